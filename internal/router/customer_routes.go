package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bakery-bookings/internal/handler"
	"github.com/iliyamo/bakery-bookings/internal/middleware"
	"github.com/iliyamo/bakery-bookings/internal/model"
)

// RegisterCustomer mounts the signed-in customer endpoints.  Admins may
// use them too.  Creating a reservation is rate limited.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, r *handler.ReviewHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("/reservations", h.Create, limit)
	g.GET("/my-reservations", h.ListMine)
	g.GET("/reservations/:id", h.Get)
	g.DELETE("/reservations/:id", h.Cancel)
	g.POST("/reviews", r.Create, limit)
}
