// Package repository contains data access logic, including the Redis hold
// index. The index is advisory: entries expire on their own and the seat
// becomes available again without any write. The booked_seats unique key in
// MySQL remains the only authority on what is actually sold.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrHoldIndexDown is returned by every RedisHoldIndex method when the
// index is unreachable, either because the client is nil (Redis was down
// at startup) or because a command failed.
var ErrHoldIndexDown = errors.New("hold index unavailable")

// RedisHoldIndex stores seat holds as per-seat keys with a TTL. A key
// hold:<showtime_id>:<seat_id> maps to the reservation ID that owns the
// hold. Expiry is the only release path besides explicit deletion.
type RedisHoldIndex struct {
	client *redis.Client
}

// NewRedisHoldIndex wraps a Redis client. The client may be nil; in that
// case every method reports ErrHoldIndexDown and callers decide whether
// to degrade or refuse.
func NewRedisHoldIndex(client *redis.Client) *RedisHoldIndex {
	return &RedisHoldIndex{client: client}
}

func holdKey(showtimeID, seatID uint64) string {
	return fmt.Sprintf("hold:%d:%d", showtimeID, seatID)
}

// TrySetHold atomically claims a seat for a reservation using SET NX with
// the given TTL. It returns false when another reservation already holds
// the seat.
func (x *RedisHoldIndex) TrySetHold(ctx context.Context, showtimeID, seatID, reservationID uint64, ttl time.Duration) (bool, error) {
	if x.client == nil {
		return false, ErrHoldIndexDown
	}
	ok, err := x.client.SetNX(ctx, holdKey(showtimeID, seatID), strconv.FormatUint(reservationID, 10), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrHoldIndexDown, err)
	}
	return ok, nil
}

// Holder returns the reservation ID currently holding a seat. The second
// return value is false when no live hold exists, which covers both
// never-held and expired entries.
func (x *RedisHoldIndex) Holder(ctx context.Context, showtimeID, seatID uint64) (uint64, bool, error) {
	if x.client == nil {
		return 0, false, ErrHoldIndexDown
	}
	val, err := x.client.Get(ctx, holdKey(showtimeID, seatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", ErrHoldIndexDown, err)
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("hold index: malformed value %q: %w", val, err)
	}
	return id, true, nil
}

// Release deletes a hold entry. Deleting an absent key is not an error;
// the hold may simply have expired first.
func (x *RedisHoldIndex) Release(ctx context.Context, showtimeID, seatID uint64) error {
	if x.client == nil {
		return ErrHoldIndexDown
	}
	if err := x.client.Del(ctx, holdKey(showtimeID, seatID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrHoldIndexDown, err)
	}
	return nil
}

// HeldSeats scans the index for every live hold of a showtime and returns
// a map of seat ID to holding reservation ID. Keys that expire between
// the scan and the value fetch are skipped.
func (x *RedisHoldIndex) HeldSeats(ctx context.Context, showtimeID uint64) (map[uint64]uint64, error) {
	if x.client == nil {
		return nil, ErrHoldIndexDown
	}
	pattern := fmt.Sprintf("hold:%d:*", showtimeID)
	var keys []string
	iter := x.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHoldIndexDown, err)
	}

	held := make(map[uint64]uint64, len(keys))
	if len(keys) == 0 {
		return held, nil
	}

	vals, err := x.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHoldIndexDown, err)
	}
	for i, v := range vals {
		if v == nil {
			continue // expired after the scan
		}
		seatID, err := seatIDFromHoldKey(keys[i])
		if err != nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		resID, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			continue
		}
		held[seatID] = resID
	}
	return held, nil
}

func seatIDFromHoldKey(key string) (uint64, error) {
	var showtimeID, seatID uint64
	if _, err := fmt.Sscanf(key, "hold:%d:%d", &showtimeID, &seatID); err != nil {
		return 0, err
	}
	return seatID, nil
}
