package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/model"
	"github.com/iliyamo/bakery-bookings/internal/repository"
	"github.com/iliyamo/bakery-bookings/internal/service"
)

// AdminReservationHandler lets staff review incoming bookings.
type AdminReservationHandler struct {
	Bookings *service.BookingService
	Logger   *zap.Logger
}

func NewAdminReservationHandler(b *service.BookingService, logger *zap.Logger) *AdminReservationHandler {
	return &AdminReservationHandler{Bookings: b, Logger: logger}
}

type moderationReq struct {
	Note string `json:"note"`
}

// List handles GET /v1/admin/reservations?status=&from=&to=.
func (h *AdminReservationHandler) List(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var f repository.ReservationFilter
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := model.ParseStatus(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		f.Status = st
	}
	for _, p := range []struct {
		name string
		dst  *model.Date
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := c.QueryParam(p.name)
		if raw == "" {
			continue
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": p.name + " must be YYYY-MM-DD"})
		}
		*p.dst = d
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Bookings.ListAll(ctx, sess, f)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list, "count": len(list)})
}

// Confirm handles POST /v1/admin/reservations/:id/confirm.
func (h *AdminReservationHandler) Confirm(c echo.Context) error {
	return h.moderate(c, h.Bookings.Confirm)
}

// Reject handles POST /v1/admin/reservations/:id/reject.
func (h *AdminReservationHandler) Reject(c echo.Context) error {
	return h.moderate(c, h.Bookings.Reject)
}

func (h *AdminReservationHandler) moderate(c echo.Context, op func(context.Context, service.Session, string, string) (model.Reservation, error)) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req moderationReq
	// an empty body binds to no note; a body that fails to decode is an error
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	r, err := op(ctx, sess, c.Param("id"), req.Note)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, r)
}
