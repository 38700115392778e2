package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/middleware"
	"github.com/iliyamo/roadready/internal/model"
)

// roles accepted on every authenticated route.
var roles = []string{model.RoleDriver, model.RoleMechanic}

// RegisterAccount mounts the routes open to any signed-in user.  Ownership
// is enforced by the handlers and repositories, not by role.
func RegisterAccount(e *echo.Echo, h Handlers, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(roles...))

	g.GET("/profile", h.Profile.Get)
	g.PATCH("/profile", h.Profile.Update)
	g.POST("/profile/switch", h.Profile.Switch)

	// static segment wins over /v1/mechanics/:id
	g.GET("/mechanics/nearby", h.Mechanic.Nearby)

	g.GET("/vehicles", h.Vehicle.List)
	g.POST("/vehicles", h.Vehicle.Create)
	g.PUT("/vehicles/:id", h.Vehicle.Update)
	g.PATCH("/vehicles/:id", h.Vehicle.Update)
	g.DELETE("/vehicles/:id", h.Vehicle.Delete)

	g.GET("/service-requests", h.ServiceRequest.List)
	g.POST("/service-requests", h.ServiceRequest.Create)
	g.GET("/service-requests/:id", h.ServiceRequest.Get)
	g.PATCH("/service-requests/:id/status", h.ServiceRequest.UpdateStatus)

	g.POST("/reviews", h.Review.Create)

	g.GET("/payment-methods", h.Payment.List)
	g.POST("/payment-methods", h.Payment.Add)
	g.DELETE("/payment-methods/:id", h.Payment.Delete)
	g.POST("/payment-methods/:id/default", h.Payment.SetDefault)

	g.POST("/conversations", h.Chat.Start)
	g.GET("/conversations/:id", h.Chat.Get)
	g.POST("/conversations/:id/messages", h.Chat.Send)

	// JWTAuth reads ?access_token= on WebSocket upgrades.
	g.GET("/realtime", h.Realtime.Serve)
}
