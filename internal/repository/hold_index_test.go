package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisHoldIndex_TrySetHold(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	mock.ExpectSetNX("hold:1:2", "9", 10*time.Minute).SetVal(true)

	ok, err := idx.TrySetHold(context.Background(), 1, 2, 9, 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHoldIndex_TrySetHold_SeatTaken(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	mock.ExpectSetNX("hold:1:2", "9", 10*time.Minute).SetVal(false)

	ok, err := idx.TrySetHold(context.Background(), 1, 2, 9, 10*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "an existing live entry must refuse the claim")
}

func TestRedisHoldIndex_TrySetHold_CommandFails(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	mock.ExpectSetNX("hold:1:2", "9", time.Minute).SetErr(errors.New("connection refused"))

	_, err := idx.TrySetHold(context.Background(), 1, 2, 9, time.Minute)
	assert.ErrorIs(t, err, ErrHoldIndexDown)
}

func TestRedisHoldIndex_Holder(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	mock.ExpectGet("hold:1:2").SetVal("12")

	holder, live, err := idx.Holder(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, live)
	assert.Equal(t, uint64(12), holder)
}

func TestRedisHoldIndex_Holder_NoLiveEntry(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	// A missing key covers both never-held and expired.
	mock.ExpectGet("hold:1:2").RedisNil()

	_, live, err := idx.Holder(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, live)
}

func TestRedisHoldIndex_Release(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	mock.ExpectDel("hold:1:2").SetVal(1)
	require.NoError(t, idx.Release(context.Background(), 1, 2))

	// Deleting an already-expired key is still a success.
	mock.ExpectDel("hold:1:3").SetVal(0)
	require.NoError(t, idx.Release(context.Background(), 1, 3))
}

func TestRedisHoldIndex_HeldSeats(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	mock.ExpectScan(0, "hold:1:*", 100).SetVal([]string{"hold:1:2", "hold:1:5"}, 0)
	// Seat 5 expired between the scan and the fetch.
	mock.ExpectMGet("hold:1:2", "hold:1:5").SetVal([]interface{}{"9", nil})

	held, err := idx.HeldSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[uint64]uint64{2: 9}, held)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisHoldIndex_HeldSeats_Empty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	idx := NewRedisHoldIndex(db)

	mock.ExpectScan(0, "hold:7:*", 100).SetVal([]string{}, 0)

	held, err := idx.HeldSeats(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestRedisHoldIndex_NilClient(t *testing.T) {
	idx := NewRedisHoldIndex(nil)
	ctx := context.Background()

	_, err := idx.TrySetHold(ctx, 1, 2, 9, time.Minute)
	assert.ErrorIs(t, err, ErrHoldIndexDown)

	_, _, err = idx.Holder(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrHoldIndexDown)

	assert.ErrorIs(t, idx.Release(ctx, 1, 2), ErrHoldIndexDown)

	_, err = idx.HeldSeats(ctx, 1)
	assert.ErrorIs(t, err, ErrHoldIndexDown)
}
