package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/roadready/internal/model"
)

// ProfileRepo reads and updates the one profile row each user owns.
type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = "id, user_id, first_name, last_name, phone, avatar_url, user_type, created_at, updated_at"

// GetByUser returns the caller's profile.
func (r *ProfileRepo) GetByUser(ctx context.Context, userID uint64) (*model.Profile, error) {
	const q = "SELECT " + profileColumns + " FROM profiles WHERE user_id = ?"
	var p model.Profile
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Phone, &p.AvatarURL, &p.UserType, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies the non-nil fields of u and returns the stored row.
func (r *ProfileRepo) Update(ctx context.Context, userID uint64, u model.ProfileUpdate) (*model.Profile, error) {
	if u.Empty() {
		return r.GetByUser(ctx, userID)
	}
	var (
		sets []string
		args []any
	)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, strings.TrimSpace(*v))
		}
	}
	add("first_name", u.FirstName)
	add("last_name", u.LastName)
	add("phone", u.Phone)
	add("avatar_url", u.AvatarURL)
	args = append(args, userID)

	if _, err := r.db.ExecContext(ctx, "UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE user_id = ?", args...); err != nil {
		return nil, err
	}
	// MySQL reports 0 affected rows for an unchanged row, so existence is
	// decided by the read back.
	return r.GetByUser(ctx, userID)
}

// SwitchType changes profiles.user_type and users.role together so the
// next access token carries the new role.
func (r *ProfileRepo) SwitchType(ctx context.Context, userID uint64, t model.UserType) (*model.Profile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET user_type = ? WHERE user_id = ?", t, userID); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", t.Role(), userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByUser(ctx, userID)
}
