package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/availability"
	"github.com/iliyamo/bakery-bookings/internal/middleware"
	"github.com/iliyamo/bakery-bookings/internal/repository"
	"github.com/iliyamo/bakery-bookings/internal/service"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

var errUnauthenticated = errors.New("invalid user_id in context")

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID reads the user id stored by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserIDFrom(c)
	if !ok {
		return 0, errUnauthenticated
	}
	return id, nil
}

func sessionFrom(c echo.Context) (service.Session, error) {
	id, err := getUserID(c)
	if err != nil {
		return service.Session{}, err
	}
	return service.Session{UserID: id, Role: middleware.RoleFrom(c)}, nil
}

func parseUintParam(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// writeError maps service and repository errors to the JSON error shape.
// Unknown errors are logged and reported as 500 without detail.
func writeError(c echo.Context, logger *zap.Logger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, availability.ErrDateOutOfRange):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "date outside booking window", "detail": err.Error()})
	case errors.Is(err, availability.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable", "detail": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, repository.ErrReviewNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "state conflict", "detail": err.Error()})
	case errors.Is(err, repository.ErrContention):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "busy, retry shortly"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
	}
	logger.Error("handler.internal_error", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
