package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roadready/internal/model"
)

// ServiceRequestRepo stores drivers' calls for help and their lifecycle.
type ServiceRequestRepo struct {
	db *sql.DB
}

func NewServiceRequestRepo(db *sql.DB) *ServiceRequestRepo { return &ServiceRequestRepo{db: db} }

const serviceRequestColumns = `id, user_id, mechanic_id, vehicle_id, issue_type, description, contact_method, phone_number,
	status, location_latitude, location_longitude, location_address, estimated_arrival, created_at, updated_at`

func scanServiceRequest(row scanner) (*model.ServiceRequest, error) {
	var s model.ServiceRequest
	err := row.Scan(&s.ID, &s.UserID, &s.MechanicID, &s.VehicleID, &s.IssueType, &s.Description, &s.ContactMethod,
		&s.PhoneNumber, &s.Status, &s.LocationLatitude, &s.LocationLongitude, &s.LocationAddress,
		&s.EstimatedArrival, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *ServiceRequestRepo) queryList(ctx context.Context, q string, args ...any) ([]*model.ServiceRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.ServiceRequest{}
	for rows.Next() {
		s, err := scanServiceRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a pending request for userID.  A vehicle, when given, must
// belong to the same user.
func (r *ServiceRequestRepo) Create(ctx context.Context, userID uint64, in model.ServiceRequestInput, eta *int) (*model.ServiceRequest, error) {
	if in.VehicleID != nil {
		var owner uint64
		err := r.db.QueryRowContext(ctx, "SELECT user_id FROM vehicles WHERE id = ?", *in.VehicleID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		if owner != userID {
			return nil, ErrForbidden
		}
	}
	const q = `INSERT INTO service_requests
		(user_id, mechanic_id, vehicle_id, issue_type, description, contact_method, phone_number, status,
		 location_latitude, location_longitude, location_address, estimated_arrival)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	res, err := r.db.ExecContext(ctx, q, userID, in.MechanicID, in.VehicleID, in.IssueType, in.Description,
		in.ContactMethod, in.PhoneNumber, model.StatusPending, in.LocationLatitude, in.LocationLongitude,
		in.LocationAddress, eta)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a request without any ownership check; callers decide
// visibility with CanView.
func (r *ServiceRequestRepo) GetByID(ctx context.Context, id uint64) (*model.ServiceRequest, error) {
	return scanServiceRequest(r.db.QueryRowContext(ctx,
		"SELECT "+serviceRequestColumns+" FROM service_requests WHERE id = ?", id))
}

// ListForDriver returns the driver's requests, newest first.
func (r *ServiceRequestRepo) ListForDriver(ctx context.Context, userID uint64) ([]*model.ServiceRequest, error) {
	return r.queryList(ctx, "SELECT "+serviceRequestColumns+
		" FROM service_requests WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
}

// ListForMechanic returns requests assigned to the mechanic together with
// unassigned pending ones it could accept, newest first.
func (r *ServiceRequestRepo) ListForMechanic(ctx context.Context, mechanicID uint64) ([]*model.ServiceRequest, error) {
	return r.queryList(ctx, "SELECT "+serviceRequestColumns+
		" FROM service_requests WHERE mechanic_id = ? OR (mechanic_id IS NULL AND status = 'pending')"+
		" ORDER BY created_at DESC, id DESC", mechanicID)
}

// Actor identifies who is changing a request.  MechanicID is the caller's
// mechanic profile id, zero for drivers.
type Actor struct {
	UserID     uint64
	MechanicID uint64
}

// CanView reports whether a may read s: its driver, its assigned mechanic,
// or any mechanic while it is still open.
func CanView(a Actor, s *model.ServiceRequest) bool {
	if s.UserID == a.UserID {
		return true
	}
	if a.MechanicID == 0 {
		return false
	}
	if s.MechanicID == nil {
		return s.Status == model.StatusPending
	}
	return *s.MechanicID == a.MechanicID
}

// Owns reports whether s belongs to a: a is its driver or its assigned
// mechanic.  Unlike CanView it does not extend to open requests.
func Owns(a Actor, s *model.ServiceRequest) bool {
	if s.UserID == a.UserID {
		return true
	}
	return a.MechanicID != 0 && s.MechanicID != nil && *s.MechanicID == a.MechanicID
}

// StatusChange is a requested transition.  EstimatedArrival, when set, is
// stored alongside an accept.
type StatusChange struct {
	Next             model.RequestStatus
	EstimatedArrival *int
}

// UpdateStatus moves a request to ch.Next inside a transaction and returns
// the row before and after the change.
//
// The driver may only cancel.  A mechanic may accept an unassigned pending
// request, which assigns it to them, and may drive any request assigned to
// them through the remaining transitions.
func (r *ServiceRequestRepo) UpdateStatus(ctx context.Context, id uint64, a Actor, ch StatusChange) (before, after *model.ServiceRequest, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	before, err = scanServiceRequest(tx.QueryRowContext(ctx,
		"SELECT "+serviceRequestColumns+" FROM service_requests WHERE id = ? FOR UPDATE", id))
	if err != nil {
		return nil, nil, err
	}
	if !CanView(a, before) {
		return nil, nil, ErrNotFound
	}

	isDriver := before.UserID == a.UserID
	assigned := before.MechanicID != nil && a.MechanicID != 0 && *before.MechanicID == a.MechanicID
	claim := before.MechanicID == nil && a.MechanicID != 0 && ch.Next == model.StatusAccepted
	switch {
	case assigned, claim:
	case isDriver && ch.Next == model.StatusCancelled:
	default:
		return nil, nil, ErrForbidden
	}
	if !before.Status.CanTransition(ch.Next) {
		return nil, nil, ErrInvalidTransition
	}

	var mechanic any
	if claim {
		mechanic = a.MechanicID
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE service_requests SET status = ?, mechanic_id = COALESCE(mechanic_id, ?), estimated_arrival = COALESCE(?, estimated_arrival) WHERE id = ?",
		ch.Next, mechanic, ch.EstimatedArrival, id); err != nil {
		return nil, nil, err
	}
	after, err = scanServiceRequest(tx.QueryRowContext(ctx,
		"SELECT "+serviceRequestColumns+" FROM service_requests WHERE id = ?", id))
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}
