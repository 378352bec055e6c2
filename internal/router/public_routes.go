package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bakery-bookings/internal/handler"
)

// RegisterPublic mounts the guest-visible read endpoints.  Reviews change
// only on moderation, so that listing goes through the response cache;
// availability must always be live.
func RegisterPublic(e *echo.Echo, a *handler.AvailabilityHandler, r *handler.ReviewHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/slots", a.Slots)
	g.GET("/availability", a.Availability)
	g.GET("/calendar", a.Calendar)
	g.GET("/reviews", r.ListPublic, cache)
}
