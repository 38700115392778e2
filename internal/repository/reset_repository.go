package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ResetRepo stores password reset tokens by hash, like TokenRepo.  A token
// works once and a successful reset spends every other pending token of
// the same user.
type ResetRepo struct {
	db *sql.DB
}

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{db: db} }

func (r *ResetRepo) Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO password_resets (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// Consume spends tokenHash and sets the owner's password hash in one
// transaction.  All of the owner's refresh tokens are revoked with it.
// Unknown, used and expired tokens yield ErrNotFound.
func (r *ResetRepo) Consume(ctx context.Context, tokenHash, passwordHash string) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var (
		owner     uint64
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at, used_at FROM password_resets WHERE token_hash = ? LIMIT 1 FOR UPDATE", tokenHash).
		Scan(&owner, &expiresAt, &usedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, ErrNotFound
	case err != nil:
		return 0, err
	case usedAt.Valid, !time.Now().UTC().Before(expiresAt):
		return 0, ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE password_resets SET used_at = UTC_TIMESTAMP() WHERE user_id = ? AND used_at IS NULL", owner); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, owner); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = UTC_TIMESTAMP() WHERE user_id = ? AND revoked_at IS NULL", owner); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return owner, nil
}

// PurgeExpired deletes reset tokens that expired before cutoff.
func (r *ResetRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM password_resets WHERE expires_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
