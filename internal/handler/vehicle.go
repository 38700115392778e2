package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
)

// VehicleHandler serves the caller's vehicles.
type VehicleHandler struct {
	Vehicles *repository.VehicleRepo
	Pub      realtime.Publisher
	Log      logger.ILogger
}

// publishVehicle attaches the owner, which the JSON form of a vehicle hides.
func (h *VehicleHandler) publishVehicle(c echo.Context, uid uint64, typ realtime.EventType, newV, oldV *model.Vehicle) {
	var nr, or realtime.Row
	if newV != nil {
		nr, _ = withOwner(uid, newV)
	}
	if oldV != nil {
		or, _ = withOwner(uid, oldV)
	}
	publish(c.Request().Context(), h.Pub, h.Log, realtime.TableVehicles, typ, nr, or)
}

// List handles GET /v1/vehicles.
func (h *VehicleHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	vs, err := h.Vehicles.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "list vehicles failed")
	}
	if vs == nil {
		vs = []*model.Vehicle{}
	}
	return c.JSON(http.StatusOK, vs)
}

// Create handles POST /v1/vehicles.
func (h *VehicleHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in model.VehicleInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	in.Normalize()
	if err := in.Validate(time.Now()); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	v, err := h.Vehicles.Create(ctx, uid, in)
	if err != nil {
		return fail(c, h.Log, err, "create vehicle failed")
	}
	h.publishVehicle(c, uid, realtime.EventInsert, v, nil)
	return c.JSON(http.StatusCreated, v)
}

// Update handles PUT and PATCH /v1/vehicles/:id.  Both apply only the
// fields present in the body.
func (h *VehicleHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	var body model.VehicleUpdate
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if body.Empty() {
		return badRequest(c, "nothing to update")
	}
	if err := body.Validate(time.Now()); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	before, err := h.Vehicles.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		return fail(c, h.Log, err, "load vehicle failed")
	}
	after, err := h.Vehicles.Update(ctx, id, uid, body)
	if err != nil {
		return fail(c, h.Log, err, "update vehicle failed")
	}
	h.publishVehicle(c, uid, realtime.EventUpdate, after, before)
	return c.JSON(http.StatusOK, after)
}

// Delete handles DELETE /v1/vehicles/:id.
func (h *VehicleHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	before, err := h.Vehicles.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		return fail(c, h.Log, err, "load vehicle failed")
	}
	if err := h.Vehicles.Delete(ctx, id, uid); err != nil {
		return fail(c, h.Log, err, "delete vehicle failed")
	}
	h.publishVehicle(c, uid, realtime.EventDelete, nil, before)
	return c.NoContent(http.StatusNoContent)
}
