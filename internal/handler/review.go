package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
)

type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Pub     realtime.Publisher
	Log     logger.ILogger
}

// Create handles POST /v1/reviews.  The request must be the caller's and
// completed; the mechanic's rating is recomputed in the same transaction.
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var in model.ReviewInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := in.Validate(); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	r, err := h.Reviews.Create(ctx, uid, in)
	if err != nil {
		return fail(c, h.Log, err, "create review failed")
	}
	publish(ctx, h.Pub, h.Log, realtime.TableReviews, realtime.EventInsert, r, nil)
	return c.JSON(http.StatusCreated, r)
}
