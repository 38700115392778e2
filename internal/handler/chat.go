package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/messaging"
	"github.com/iliyamo/roadready/internal/repository"
)

// ChatHandler serves in-app conversations with a simulated mechanic.
type ChatHandler struct {
	Chat      *messaging.Simulator
	Mechanics *repository.MechanicRepo
	Log       logger.ILogger
}

func (h *ChatHandler) chatError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, messaging.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
	case errors.Is(err, messaging.ErrEmptyMessage):
		return badRequest(c, err.Error())
	case errors.Is(err, messaging.ErrClosed):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "messaging unavailable"})
	}
	return fail(c, h.Log, err, msg)
}

// Start handles POST /v1/conversations.  With mechanic_id the mechanic's
// business name is used; otherwise mechanic_name, defaulting to "Mechanic".
func (h *ChatHandler) Start(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		MechanicID   *uint64 `json:"mechanic_id"`
		MechanicName string  `json:"mechanic_name"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	name := body.MechanicName
	if body.MechanicID != nil {
		m, err := h.Mechanics.GetByID(ctx, *body.MechanicID)
		if err != nil {
			return fail(c, h.Log, err, "load mechanic failed")
		}
		name = m.BusinessName
	}
	conv, err := h.Chat.Start(ctx, uid, name, body.MechanicID)
	if err != nil {
		return h.chatError(c, err, "start conversation failed")
	}
	return c.JSON(http.StatusCreated, conv)
}

// Get handles GET /v1/conversations/:id.
func (h *ChatHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	conv, err := h.Chat.Get(ctx, uid, c.Param("id"))
	if err != nil {
		return h.chatError(c, err, "load conversation failed")
	}
	return c.JSON(http.StatusOK, conv)
}

// Send handles POST /v1/conversations/:id/messages.  The reply arrives
// later through the realtime feed or the next Get.
func (h *ChatHandler) Send(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := h.Chat.Send(ctx, uid, c.Param("id"), body.Content)
	if err != nil {
		return h.chatError(c, err, "send message failed")
	}
	return c.JSON(http.StatusAccepted, msg)
}
