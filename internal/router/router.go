// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/handler"
	"github.com/iliyamo/bakery-bookings/internal/middleware"
)

// Deps collects everything the routes need.  RateLimit guards write
// routes; Cache wraps public read routes.  Either may be nil.
type Deps struct {
	JWTSecret         string
	Auth              *handler.AuthHandler
	Availability      *handler.AvailabilityHandler
	Reservations      *handler.ReservationHandler
	AdminReservations *handler.AdminReservationHandler
	Reviews           *handler.ReviewHandler
	Cache             *middleware.ResponseCache
	RateLimit         echo.MiddlewareFunc
	Logger            *zap.Logger
}

// New builds the Echo server with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if d.Logger != nil {
		e.Use(middleware.RequestLogger(d.Logger))
	}
	if d.RateLimit == nil {
		d.RateLimit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	RegisterRoutes(e)
	RegisterAuth(e, d.Auth, d.JWTSecret)
	RegisterPublic(e, d.Availability, d.Reviews, d.Cache.Middleware())
	RegisterCustomer(e, d.Reservations, d.Reviews, d.JWTSecret, d.RateLimit)
	RegisterAdmin(e, d.AdminReservations, d.Reviews, d.JWTSecret)
	return e
}

// RegisterRoutes registers routes that need no authentication and no
// domain dependencies.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts /v1/auth and the protected /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	if a == nil {
		return
	}
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// logout parses the bearer itself so a refresh token alone also works
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}
