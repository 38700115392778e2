// Package router registers the HTTP surface on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/roadready/internal/handler"
	"github.com/iliyamo/roadready/internal/middleware"
)

// Handlers groups every resource handler the routes point at.
type Handlers struct {
	Health         *handler.HealthHandler
	Auth           *handler.AuthHandler
	Profile        *handler.ProfileHandler
	Mechanic       *handler.MechanicHandler
	Search         *handler.SearchHandler
	Vehicle        *handler.VehicleHandler
	ServiceRequest *handler.ServiceRequestHandler
	Review         *handler.ReviewHandler
	Payment        *handler.PaymentHandler
	Chat           *handler.ChatHandler
	Realtime       *handler.RealtimeHandler
}

// Register mounts every route.  cache wraps the public read endpoints;
// pass nil to serve them uncached.
func Register(e *echo.Echo, h Handlers, jwtSecret string, cache echo.MiddlewareFunc) {
	RegisterPublic(e, h, cache)
	RegisterAuth(e, h.Auth, jwtSecret)
	RegisterAccount(e, h, jwtSecret)
	RegisterMechanic(e, h.Mechanic, jwtSecret)
}

// RegisterPublic mounts routes that need no token.
func RegisterPublic(e *echo.Echo, h Handlers, cache echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if cache != nil {
		mw = append(mw, cache)
	}
	e.GET("/healthz", h.Health.Health)

	e.GET("/v1/cities", h.Search.Cities, mw...)
	e.GET("/v1/geocode/reverse", h.Search.Reverse)
	e.GET("/v1/search/demo", h.Search.Demo)

	e.GET("/v1/mechanics", h.Mechanic.List, mw...)
	e.GET("/v1/mechanics/:id", h.Mechanic.Get, mw...)
	e.GET("/v1/mechanics/:id/reviews", h.Mechanic.Reviews, mw...)
}

// RegisterAuth mounts the session endpoints.  Logout accepts either a
// refresh token in the body or a bearer token, so it sits outside JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)              // rotates the refresh token
	g.POST("/refresh-access", a.RefreshAccess) // access token only
	g.POST("/logout", a.Logout)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(roles...))
	auth.GET("/me", a.Me)
}
