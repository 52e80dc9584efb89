package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshInvalid covers every way a presented refresh token can be bad:
// unknown hash, already revoked, or past its expiry. Handlers respond 401
// without telling the client which case it was.
var ErrRefreshInvalid = errors.New("refresh token invalid")

// TokenRepo stores refresh tokens by their SHA-256 hash. Raw tokens never
// touch the database.
type TokenRepo struct {
	db *sql.DB
}

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// Save records a freshly issued refresh token hash for the user.
func (r *TokenRepo) Save(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, tokenHash, expiresAt)
	return err
}

// Consume validates and revokes a refresh token in one transaction, returning
// the owning user ID. The row is locked while being checked, so when two
// requests race on the same token exactly one consumes it and the other gets
// ErrRefreshInvalid. Rotation and logout both run through here.
func (r *TokenRepo) Consume(ctx context.Context, tokenHash string) (userID uint64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	const sel = `SELECT user_id, expires_at, revoked_at FROM refresh_tokens
	             WHERE token_hash = ? FOR UPDATE`
	var (
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	if err = tx.QueryRowContext(ctx, sel, tokenHash).Scan(&userID, &expiresAt, &revokedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRefreshInvalid
		}
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		err = ErrRefreshInvalid
		return 0, err
	}

	const upd = `UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE token_hash = ?`
	if _, err = tx.ExecContext(ctx, upd, tokenHash); err != nil {
		return 0, err
	}
	return userID, nil
}
