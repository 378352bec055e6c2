package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/service"
)

// ReservationHandler serves the customer reservation endpoints.  JWT and
// role checks happen in middleware; ownership is checked by the service.
type ReservationHandler struct {
	Bookings *service.BookingService
	Logger   *zap.Logger
}

func NewReservationHandler(b *service.BookingService, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{Bookings: b, Logger: logger}
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req service.BookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	r, err := h.Bookings.Submit(ctx, sess, req)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Bookings.ListMine(ctx, sess)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list, "count": len(list)})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	r, err := h.Bookings.Get(ctx, sess, c.Param("id"))
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Cancel handles DELETE /v1/reservations/:id.  Only pending reservations
// can be withdrawn.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	sess, err := sessionFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Bookings.Cancel(ctx, sess, c.Param("id")); err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}
