package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/handler"
	"github.com/iliyamo/roadready/internal/middleware"
	"github.com/iliyamo/roadready/internal/model"
)

// RegisterMechanic mounts the MECHANIC-only routes for the caller's own
// business profile.
func RegisterMechanic(e *echo.Echo, m *handler.MechanicHandler, jwtSecret string) {
	g := e.Group("/v1/mechanic-profile",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMechanic),
	)
	g.POST("", m.CreateMine)
	g.GET("", m.GetMine)
	g.PATCH("", m.UpdateMine)
}
