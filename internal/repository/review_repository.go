package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roadready/internal/model"
)

// ReviewRepo stores reviews and keeps mechanic_profiles.rating and
// review_count in step with them.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create records userID's review of a completed request they own and
// recomputes the mechanic's rating in the same transaction.
func (r *ReviewRepo) Create(ctx context.Context, userID uint64, in model.ReviewInput) (*model.Review, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		owner      uint64
		mechanicID sql.NullInt64
		status     model.RequestStatus
	)
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, mechanic_id, status FROM service_requests WHERE id = ? FOR UPDATE",
		in.ServiceRequestID).Scan(&owner, &mechanicID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner != userID {
		return nil, ErrForbidden
	}
	if status != model.StatusCompleted || !mechanicID.Valid {
		return nil, ErrNotCompleted
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (service_request_id, mechanic_id, user_id, rating, comment) VALUES (?,?,?,?,?)",
		in.ServiceRequestID, mechanicID.Int64, userID, in.Rating, in.Comment)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var (
		avg   float64
		count int
	)
	if err := tx.QueryRowContext(ctx,
		"SELECT AVG(rating), COUNT(*) FROM reviews WHERE mechanic_id = ?", mechanicID.Int64).Scan(&avg, &count); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE mechanic_profiles SET rating = ?, review_count = ? WHERE id = ?",
		model.RoundRating(avg), count, mechanicID.Int64); err != nil {
		return nil, err
	}

	rv := model.Review{
		ID:               uint64(id),
		ServiceRequestID: in.ServiceRequestID,
		MechanicID:       uint64(mechanicID.Int64),
		UserID:           userID,
		Rating:           in.Rating,
		Comment:          in.Comment,
	}
	if err := tx.QueryRowContext(ctx, "SELECT created_at FROM reviews WHERE id = ?", id).Scan(&rv.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &rv, nil
}

// ListPublicByMechanic returns a mechanic's reviews, newest first, without
// reviewer identities.
func (r *ReviewRepo) ListPublicByMechanic(ctx context.Context, mechanicID uint64, limit int) ([]model.PublicReview, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, service_request_id, mechanic_id, rating, comment, created_at
		 FROM reviews WHERE mechanic_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, mechanicID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PublicReview{}
	for rows.Next() {
		var pr model.PublicReview
		if err := rows.Scan(&pr.ID, &pr.ServiceRequestID, &pr.MechanicID, &pr.Rating, &pr.Comment, &pr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}
