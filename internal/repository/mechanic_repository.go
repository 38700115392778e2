package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/roadready/internal/model"
)

// MechanicRepo stores mechanic_profiles.  services_offered and
// business_hours are JSON columns.
type MechanicRepo struct {
	db *sql.DB
}

func NewMechanicRepo(db *sql.DB) *MechanicRepo { return &MechanicRepo{db: db} }

const mechanicColumns = `id, user_id, mechanic_id, business_name, phone, bio, address, latitude, longitude,
	services_offered, business_hours, rating, review_count, is_available, average_response_time, created_at, updated_at`

func scanMechanic(row scanner) (*model.MechanicProfile, error) {
	var (
		m             model.MechanicProfile
		services, hrs []byte
	)
	err := row.Scan(&m.ID, &m.UserID, &m.MechanicID, &m.BusinessName, &m.Phone, &m.Bio, &m.Address,
		&m.Latitude, &m.Longitude, &services, &hrs, &m.Rating, &m.ReviewCount, &m.IsAvailable,
		&m.AverageResponseTime, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := model.UnmarshalJSONColumn(services, &m.ServicesOffered); err != nil {
		return nil, err
	}
	if err := model.UnmarshalJSONColumn(hrs, &m.BusinessHours); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MechanicRepo) queryList(ctx context.Context, q string, args ...any) ([]*model.MechanicProfile, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.MechanicProfile{}
	for rows.Next() {
		m, err := scanMechanic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create inserts m and populates its id and timestamps.  A user may own a
// single mechanic profile; a second attempt returns ErrConflict.
func (r *MechanicRepo) Create(ctx context.Context, m *model.MechanicProfile) error {
	services, err := model.MarshalJSONColumn(m.ServicesOffered)
	if err != nil {
		return err
	}
	hrs, err := model.MarshalJSONColumn(m.BusinessHours)
	if err != nil {
		return err
	}
	const q = `INSERT INTO mechanic_profiles
		(user_id, mechanic_id, business_name, phone, bio, address, latitude, longitude,
		 services_offered, business_hours, rating, review_count, is_available, average_response_time)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, m.UserID, m.MechanicID, m.BusinessName, m.Phone, m.Bio, m.Address,
		m.Latitude, m.Longitude, services, hrs, m.Rating, m.ReviewCount, m.IsAvailable, m.AverageResponseTime)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// GetByID fetches a profile by primary key.
func (r *MechanicRepo) GetByID(ctx context.Context, id uint64) (*model.MechanicProfile, error) {
	return scanMechanic(r.db.QueryRowContext(ctx, "SELECT "+mechanicColumns+" FROM mechanic_profiles WHERE id = ?", id))
}

// GetByUser fetches the profile owned by userID.
func (r *MechanicRepo) GetByUser(ctx context.Context, userID uint64) (*model.MechanicProfile, error) {
	return scanMechanic(r.db.QueryRowContext(ctx, "SELECT "+mechanicColumns+" FROM mechanic_profiles WHERE user_id = ?", userID))
}

// GetByPublicID fetches a profile by its RR- identifier.
func (r *MechanicRepo) GetByPublicID(ctx context.Context, mechanicID string) (*model.MechanicProfile, error) {
	return scanMechanic(r.db.QueryRowContext(ctx, "SELECT "+mechanicColumns+" FROM mechanic_profiles WHERE mechanic_id = ?",
		strings.ToUpper(strings.TrimSpace(mechanicID))))
}

// ListPublic returns profiles ordered by rating, best first.
func (r *MechanicRepo) ListPublic(ctx context.Context, limit, offset int) ([]*model.MechanicProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return r.queryList(ctx, "SELECT "+mechanicColumns+
		" FROM mechanic_profiles ORDER BY rating DESC, review_count DESC, id LIMIT ? OFFSET ?", limit, offset)
}

// ListLocated returns every profile with both coordinates set, the
// candidate set for nearby search.
func (r *MechanicRepo) ListLocated(ctx context.Context) ([]*model.MechanicProfile, error) {
	return r.queryList(ctx, "SELECT "+mechanicColumns+
		" FROM mechanic_profiles WHERE latitude IS NOT NULL AND longitude IS NOT NULL")
}

// Update applies the non-nil fields of u to the profile owned by userID.
func (r *MechanicRepo) Update(ctx context.Context, userID uint64, u model.MechanicUpdate) (*model.MechanicProfile, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.BusinessName != nil {
		set("business_name", strings.TrimSpace(*u.BusinessName))
	}
	if u.Phone != nil {
		set("phone", *u.Phone)
	}
	if u.Bio != nil {
		set("bio", *u.Bio)
	}
	if u.Address != nil {
		set("address", *u.Address)
	}
	if u.Latitude != nil && u.Longitude != nil {
		set("latitude", *u.Latitude)
		set("longitude", *u.Longitude)
	}
	if u.ServicesOffered != nil {
		raw, err := model.MarshalJSONColumn(*u.ServicesOffered)
		if err != nil {
			return nil, err
		}
		set("services_offered", raw)
	}
	if u.BusinessHours != nil {
		raw, err := model.MarshalJSONColumn(*u.BusinessHours)
		if err != nil {
			return nil, err
		}
		set("business_hours", raw)
	}
	if u.IsAvailable != nil {
		set("is_available", *u.IsAvailable)
	}
	if u.AverageResponseTime != nil {
		set("average_response_time", *u.AverageResponseTime)
	}
	if len(sets) > 0 {
		args = append(args, userID)
		if _, err := r.db.ExecContext(ctx,
			"UPDATE mechanic_profiles SET "+strings.Join(sets, ", ")+" WHERE user_id = ?", args...); err != nil {
			return nil, err
		}
	}
	return r.GetByUser(ctx, userID)
}
