package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, VerifyPassword(hash, "Sup3rSecret"))
	assert.False(t, VerifyPassword(hash, "sup3rsecret"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "Sup3rSecret"))
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("token-a")
	h2 := HashRefreshRaw("token-a")
	h3 := HashRefreshRaw("token-b")

	assert.Equal(t, h1, h2, "hashing must be deterministic for lookups")
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestNewRefreshToken(t *testing.T) {
	t1, err := NewRefreshToken(30)
	require.NoError(t, err)
	t2, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, t1.Raw, 64)
	assert.NotEqual(t, t1.Raw, t2.Raw)

	until := time.Until(t1.Exp)
	assert.Greater(t, until, 29*24*time.Hour)
	assert.LessOrEqual(t, until, 30*24*time.Hour)
}

func TestNewAccessToken_RoundTrip(t *testing.T) {
	at, err := NewAccessToken("test-secret", 7, "USER", 15)
	require.NoError(t, err)
	assert.True(t, at.Exp.After(time.Now()))

	tok, err := jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, float64(7), claims["sub"])
	assert.Equal(t, "USER", claims["role"])
}

func TestNewAccessToken_RejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("right-secret", 7, "USER", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	assert.Error(t, err)
}
