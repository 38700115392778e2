package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/logger"
	"github.com/iliyamo/roadready/internal/model"
	"github.com/iliyamo/roadready/internal/realtime"
	"github.com/iliyamo/roadready/internal/repository"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	Profiles *repository.ProfileRepo
	Auth     *AuthHandler
	Pub      realtime.Publisher
	Log      logger.ILogger
}

// Get handles GET /v1/profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := h.Profiles.GetByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load profile failed")
	}
	return c.JSON(http.StatusOK, p)
}

// Update handles PATCH /v1/profile.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body model.ProfileUpdate
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if body.Empty() {
		return badRequest(c, "nothing to update")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	before, err := h.Profiles.GetByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load profile failed")
	}
	after, err := h.Profiles.Update(ctx, uid, body)
	if err != nil {
		return fail(c, h.Log, err, "update profile failed")
	}
	publish(ctx, h.Pub, h.Log, realtime.TableProfiles, realtime.EventUpdate, after, before)
	return c.JSON(http.StatusOK, after)
}

// Switch handles POST /v1/profile/switch.  The role is part of the access
// token, so a fresh token pair is returned with the new profile.
func (h *ProfileHandler) Switch(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var body struct {
		UserType model.UserType `json:"user_type"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid body")
	}
	if !body.UserType.Valid() {
		return badRequest(c, "user_type must be driver or mechanic")
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	before, err := h.Profiles.GetByUser(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load profile failed")
	}
	after, err := h.Profiles.SwitchType(ctx, uid, body.UserType)
	if err != nil {
		return fail(c, h.Log, err, "switch user type failed")
	}
	u, err := h.Auth.Users.GetByID(ctx, uid)
	if err != nil {
		return fail(c, h.Log, err, "load user failed")
	}
	tokens, err := h.Auth.issue(c, userPart{ID: uid, Email: u.Email, Role: u.Role, UserType: after.UserType})
	if err != nil {
		return fail(c, h.Log, err, "issue tokens failed")
	}
	publish(ctx, h.Pub, h.Log, realtime.TableProfiles, realtime.EventUpdate, after, before)
	h.Log.Info("user type switched", logger.Uint64("user_id", uid), logger.String("user_type", string(after.UserType)))
	return c.JSON(http.StatusOK, echo.Map{"profile": after, "tokens": tokens})
}
