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

// PaymentHandler serves saved payment methods.  Only display metadata is
// stored; card and account numbers are reduced to their last four digits
// before anything reaches the repository.
type PaymentHandler struct {
	Payments *repository.PaymentRepo
	Pub      realtime.Publisher
	Log      logger.ILogger
}

func (h *PaymentHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	pms, err := h.Payments.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "list payment methods failed")
	}
	if pms == nil {
		pms = []*model.PaymentMethod{}
	}
	return c.JSON(http.StatusOK, pms)
}

func (h *PaymentHandler) Add(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in model.PaymentMethodInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	pm, err := in.ToMethod(uid, time.Now())
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Payments.Add(ctx, pm); err != nil {
		return fail(c, h.Log, err, "add payment method failed")
	}
	h.changed(c, uid, realtime.EventInsert, pm)
	return c.JSON(http.StatusCreated, pm)
}

func (h *PaymentHandler) Delete(c echo.Context) error {
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

	if err := h.Payments.Delete(ctx, id, uid); err != nil {
		return fail(c, h.Log, err, "delete payment method failed")
	}
	row, _ := withOwner(uid, echo.Map{"id": id})
	publish(ctx, h.Pub, h.Log, realtime.TablePaymentMethods, realtime.EventDelete, nil, row)
	return c.NoContent(http.StatusNoContent)
}

// SetDefault handles POST /v1/payment-methods/:id/default and returns the
// updated list.
func (h *PaymentHandler) SetDefault(c echo.Context) error {
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

	if err := h.Payments.SetDefault(ctx, id, uid); err != nil {
		return fail(c, h.Log, err, "set default payment method failed")
	}
	pms, err := h.Payments.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "list payment methods failed")
	}
	for _, pm := range pms {
		if pm.ID == id {
			h.changed(c, uid, realtime.EventUpdate, pm)
		}
	}
	return c.JSON(http.StatusOK, pms)
}

func (h *PaymentHandler) changed(c echo.Context, uid uint64, typ realtime.EventType, pm *model.PaymentMethod) {
	row, err := withOwner(uid, pm)
	if err != nil {
		h.Log.Warning("payment change row failed", logger.Error(err))
		return
	}
	publish(c.Request().Context(), h.Pub, h.Log, realtime.TablePaymentMethods, typ, row, nil)
}
