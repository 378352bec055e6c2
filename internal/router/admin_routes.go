package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bakery-bookings/internal/handler"
	"github.com/iliyamo/bakery-bookings/internal/middleware"
	"github.com/iliyamo/bakery-bookings/internal/model"
)

// RegisterAdmin mounts staff endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminReservationHandler, r *handler.ReviewHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/reservations", h.List)
	g.POST("/reservations/:id/confirm", h.Confirm)
	g.POST("/reservations/:id/reject", h.Reject)

	g.GET("/reviews", r.ListAdmin)
	g.POST("/reviews/:id/approve", r.Approve)
	g.POST("/reviews/:id/reject", r.Reject)
}
