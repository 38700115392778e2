package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/middleware"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

var errNoUser = errors.New("invalid user_id in context")

// getUserID returns the authenticated caller set by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	uid, ok := middleware.UserID(c)
	if !ok {
		return 0, errNoUser
	}
	return uid, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail maps repository sentinels to statuses.  Anything else is logged and
// reported as a 500 with msg; nothing has been written in that case.
func fail(c echo.Context, log logger.ILogger, err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	case errors.Is(err, repository.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotCompleted):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}
	log.Error(msg,
		logger.String("path", c.Path()),
		logger.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		logger.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// publish sends a change for the row; failures are logged and never
// affect the response.
func publish(ctx context.Context, pub realtime.Publisher, log logger.ILogger, table string, typ realtime.EventType, newV, oldV any) {
	if pub == nil {
		return
	}
	ch, err := realtime.NewChange(table, typ, newV, oldV)
	if err == nil {
		err = pub.Publish(ctx, ch)
	}
	if err != nil {
		log.Warning("publish change failed", logger.String("table", table), logger.Error(err))
	}
}

// withOwner adds user_id to the JSON row of a model that hides it, so
// per-user subscriptions can match.
func withOwner(userID uint64, v any) (realtime.Row, error) {
	row, err := realtime.RowOf(v)
	if err != nil || row == nil {
		return row, err
	}
	row["user_id"] = userID
	return row, nil
}

func pagination(c echo.Context) (limit, offset int) {
	_ = echo.QueryParamsBinder(c).Int("limit", &limit).Int("offset", &offset).BindError()
	return limit, offset
}
