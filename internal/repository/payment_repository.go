package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roadready/internal/model"
)

// PaymentRepo stores payment method display metadata.  Each user with at
// least one method has exactly one default.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, user_id, type, last4, brand, bank_name, is_default, created_at"

func scanPayment(row scanner) (*model.PaymentMethod, error) {
	var p model.PaymentMethod
	err := row.Scan(&p.ID, &p.UserID, &p.Type, &p.Last4, &p.Brand, &p.BankName, &p.IsDefault, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByUser returns the default method first, then the rest oldest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payment_methods WHERE user_id = ? ORDER BY is_default DESC, created_at, id", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.PaymentMethod{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Add stores pm.  The user's first method becomes the default.
func (r *PaymentRepo) Add(ctx context.Context, pm *model.PaymentMethod) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment_methods WHERE user_id = ? FOR UPDATE", pm.UserID).Scan(&n); err != nil {
		return err
	}
	pm.IsDefault = n == 0

	res, err := tx.ExecContext(ctx,
		"INSERT INTO payment_methods (user_id, type, last4, brand, bank_name, is_default) VALUES (?,?,?,?,?,?)",
		pm.UserID, pm.Type, pm.Last4, pm.Brand, pm.BankName, pm.IsDefault)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := scanPayment(tx.QueryRowContext(ctx, "SELECT "+paymentColumns+" FROM payment_methods WHERE id = ?", id))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	*pm = *stored
	return nil
}

// Delete removes a method.  When it was the default, the oldest remaining
// method is promoted.
func (r *PaymentRepo) Delete(ctx context.Context, id, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var wasDefault bool
	err = tx.QueryRowContext(ctx,
		"SELECT is_default FROM payment_methods WHERE id = ? AND user_id = ? FOR UPDATE", id, userID).Scan(&wasDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM payment_methods WHERE id = ? AND user_id = ?", id, userID); err != nil {
		return err
	}
	if wasDefault {
		if _, err := tx.ExecContext(ctx,
			"UPDATE payment_methods SET is_default = 1 WHERE user_id = ? ORDER BY created_at, id LIMIT 1", userID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetDefault makes id the user's only default method.
func (r *PaymentRepo) SetDefault(ctx context.Context, id, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM payment_methods WHERE id = ? AND user_id = ? FOR UPDATE", id, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE payment_methods SET is_default = (id = ?) WHERE user_id = ?", id, userID); err != nil {
		return err
	}
	return tx.Commit()
}
