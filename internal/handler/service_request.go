package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/geo"
	"github.com/iliyamo/roadready/internal/geocode"
	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/middleware"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
)

// geocodeTimeout caps the address lookup done while creating a request.
// On expiry the coordinates are stored as the address.
var geocodeTimeout = 2 * time.Second

// ServiceRequestHandler serves requests for help from the driver side and
// the mechanic side.
type ServiceRequestHandler struct {
	Requests  *repository.ServiceRequestRepo
	Mechanics *repository.MechanicRepo
	Geocoder  *geocode.Client
	Pub       realtime.Publisher
	Log       logger.ILogger
}

// actor builds the caller's identity.  Mechanics without a profile act as
// plain users.
func (h *ServiceRequestHandler) actor(c echo.Context, uid uint64) (repository.Actor, error) {
	a := repository.Actor{UserID: uid}
	if middleware.Role(c) != model.RoleMechanic {
		return a, nil
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	m, err := h.Mechanics.GetByUser(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return a, nil
	}
	if err != nil {
		return a, err
	}
	a.MechanicID = m.ID
	return a, nil
}

// Create handles POST /v1/service-requests.  When a mechanic is chosen and
// both positions are known the arrival estimate is stored with the request;
// a missing address is filled by reverse geocoding.
func (h *ServiceRequestHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in model.ServiceRequestInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	hasLocation := in.LocationLatitude != nil && in.LocationLongitude != nil
	if hasLocation && (in.LocationAddress == nil || strings.TrimSpace(*in.LocationAddress) == "") && h.Geocoder != nil {
		addr := h.reverse(c, *in.LocationLatitude, *in.LocationLongitude)
		in.LocationAddress = &addr
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	var eta *int
	if in.MechanicID != nil {
		m, err := h.Mechanics.GetByID(ctx, *in.MechanicID)
		if err != nil {
			return fail(c, h.Log, err, "load mechanic failed")
		}
		if hasLocation && m.HasLocation() {
			minutes := model.EstimateArrival(geo.Distance(*in.LocationLatitude, *in.LocationLongitude, *m.Latitude, *m.Longitude))
			eta = &minutes
		}
	}

	sr, err := h.Requests.Create(ctx, uid, in, eta)
	if err != nil {
		return fail(c, h.Log, err, "create service request failed")
	}
	publish(ctx, h.Pub, h.Log, realtime.TableServiceRequests, realtime.EventInsert, sr, nil)
	h.Log.Info("service request created",
		logger.Uint64("id", sr.ID),
		logger.Uint64("user_id", uid),
		logger.String("issue_type", string(sr.IssueType)))
	return c.JSON(http.StatusCreated, sr)
}

// reverse resolves an address under its own deadline so a slow geocoder
// cannot eat into the database budget of the insert.
func (h *ServiceRequestHandler) reverse(c echo.Context, lat, lng float64) string {
	ctx, cancel := context.WithTimeout(c.Request().Context(), geocodeTimeout)
	defer cancel()
	return h.Geocoder.Reverse(ctx, lat, lng)
}

// List handles GET /v1/service-requests.  Drivers see their own requests;
// mechanics see those assigned to them plus open ones they could accept.
func (h *ServiceRequestHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	a, err := h.actor(c, uid)
	if err != nil {
		return fail(c, h.Log, err, "load mechanic failed")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	var out []*model.ServiceRequest
	if a.MechanicID != 0 {
		out, err = h.Requests.ListForMechanic(ctx, a.MechanicID)
	} else {
		out, err = h.Requests.ListForDriver(ctx, uid)
	}
	if err != nil {
		return fail(c, h.Log, err, "list service requests failed")
	}
	if out == nil {
		out = []*model.ServiceRequest{}
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/service-requests/:id.  Requests the caller may not
// see are reported as missing.
func (h *ServiceRequestHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	a, err := h.actor(c, uid)
	if err != nil {
		return fail(c, h.Log, err, "load mechanic failed")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	sr, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		return fail(c, h.Log, err, "load service request failed")
	}
	if !repository.CanView(a, sr) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, sr)
}

type statusReq struct {
	Status           model.RequestStatus `json:"status"`
	EstimatedArrival *int                `json:"estimated_arrival"`
}

// UpdateStatus handles PATCH /v1/service-requests/:id/status.
func (h *ServiceRequestHandler) UpdateStatus(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body statusReq
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if !body.Status.Valid() {
		return badRequest(c, "invalid status")
	}
	if body.EstimatedArrival != nil && *body.EstimatedArrival <= 0 {
		return badRequest(c, "estimated_arrival must be positive")
	}
	a, err := h.actor(c, uid)
	if err != nil {
		return fail(c, h.Log, err, "load mechanic failed")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	before, after, err := h.Requests.UpdateStatus(ctx, id, a, repository.StatusChange{
		Next:             body.Status,
		EstimatedArrival: body.EstimatedArrival,
	})
	if err != nil {
		return fail(c, h.Log, err, "update status failed")
	}
	publish(ctx, h.Pub, h.Log, realtime.TableServiceRequests, realtime.EventUpdate, after, before)
	h.Log.Info("service request status changed",
		logger.Uint64("id", id),
		logger.String("from", string(before.Status)),
		logger.String("to", string(after.Status)))
	return c.JSON(http.StatusOK, after)
}
