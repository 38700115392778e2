package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/roadready/internal/model"
)

// VehicleRepo stores a driver's vehicles.  Every statement filters on
// user_id, so rows of other users behave as missing.
type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

const vehicleColumns = "id, user_id, make, model, year, color, license_plate, created_at, updated_at"

func scanVehicle(row scanner) (*model.Vehicle, error) {
	var v model.Vehicle
	err := row.Scan(&v.ID, &v.UserID, &v.Make, &v.Model, &v.Year, &v.Color, &v.LicensePlate, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByUser returns the user's vehicles, newest first.
func (r *VehicleRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetByIDAndOwner fetches one vehicle if userID owns it.
func (r *VehicleRepo) GetByIDAndOwner(ctx context.Context, id, userID uint64) (*model.Vehicle, error) {
	return scanVehicle(r.db.QueryRowContext(ctx,
		"SELECT "+vehicleColumns+" FROM vehicles WHERE id = ? AND user_id = ?", id, userID))
}

// Create inserts a vehicle for userID.
func (r *VehicleRepo) Create(ctx context.Context, userID uint64, in model.VehicleInput) (*model.Vehicle, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO vehicles (user_id, make, model, year, color, license_plate) VALUES (?,?,?,?,?,?)",
		userID, in.Make, in.Model, in.Year, in.Color, in.LicensePlate)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, uint64(id), userID)
}

// Update applies the non-nil fields of u.  It returns ErrNotFound when the
// vehicle does not exist or belongs to someone else.
func (r *VehicleRepo) Update(ctx context.Context, id, userID uint64, u model.VehicleUpdate) (*model.Vehicle, error) {
	if _, err := r.GetByIDAndOwner(ctx, id, userID); err != nil {
		return nil, err
	}
	if u.Empty() {
		return r.GetByIDAndOwner(ctx, id, userID)
	}
	var (
		sets []string
		args []any
	)
	text := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, strings.TrimSpace(*v))
		}
	}
	text("make", u.Make)
	text("model", u.Model)
	text("color", u.Color)
	if u.LicensePlate != nil {
		sets = append(sets, "license_plate = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(*u.LicensePlate)))
	}
	if u.Year != nil {
		sets = append(sets, "year = ?")
		args = append(args, *u.Year)
	}
	args = append(args, id, userID)
	if _, err := r.db.ExecContext(ctx,
		"UPDATE vehicles SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?", args...); err != nil {
		return nil, err
	}
	return r.GetByIDAndOwner(ctx, id, userID)
}

// Delete removes the vehicle.  Requests that referenced it keep a NULL vehicle_id.
func (r *VehicleRepo) Delete(ctx context.Context, id, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM vehicles WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
