package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

func TestValidate_AcceptsWellFormedBody(t *testing.T) {
	v := New()
	err := v.Validate(registerBody{Email: "user@example.com", Password: "Sup3rsecret"})
	assert.NoError(t, err)
}

func TestValidate_ReportsFirstFailure(t *testing.T) {
	v := New()
	err := v.Validate(registerBody{Email: "not-an-email", Password: "Sup3rsecret"})
	require.Error(t, err)
	assert.Equal(t, "email must be a valid email address", err.Error())
}

func TestValidate_PasswordRule(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{name: "letters and digits", password: "abcdef12", ok: true},
		{name: "too short", password: "ab1", ok: false},
		{name: "digits only", password: "12345678", ok: false},
		{name: "letters only", password: "abcdefgh", ok: false},
		{name: "over bcrypt limit", password: strings.Repeat("a1", 40), ok: false},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(registerBody{Email: "user@example.com", Password: tt.password})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "password")
			}
		})
	}
}
