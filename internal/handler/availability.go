package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/availability"
	"github.com/iliyamo/bakery-bookings/internal/model"
	"github.com/iliyamo/bakery-bookings/internal/service"
)

// AvailabilityHandler serves the public booking page data.
type AvailabilityHandler struct {
	Bookings *service.BookingService
	Logger   *zap.Logger
}

func NewAvailabilityHandler(b *service.BookingService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Bookings: b, Logger: logger}
}

// Availability handles GET /v1/availability?date=YYYY-MM-DD.
func (h *AvailabilityHandler) Availability(c echo.Context) error {
	date, err := model.ParseDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	day, err := h.Bookings.Availability(ctx, date)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, day)
}

// Calendar handles GET /v1/calendar?month=YYYY-MM.  Without month the
// current month is returned.
func (h *AvailabilityHandler) Calendar(c echo.Context) error {
	today := h.Bookings.Engine().Today()
	year, month := today.Year, today.Month
	if raw := c.QueryParam("month"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be YYYY-MM"})
		}
		year, month = t.Year(), t.Month()
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	days, err := h.Bookings.Calendar(ctx, year, month)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"month": time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"),
		"days":  days,
	})
}

type slotView struct {
	Slot  string `json:"slot"`
	Label string `json:"label"`
}

// Slots handles GET /v1/slots: the working day grid and booking window.
func (h *AvailabilityHandler) Slots(c echo.Context) error {
	eng := h.Bookings.Engine()
	grid := eng.GenerateDailySlots()
	views := make([]slotView, 0, len(grid))
	for _, s := range grid {
		views = append(views, slotView{Slot: s, Label: availability.DisplayLabel(s)})
	}
	first, last := eng.Window()
	return c.JSON(http.StatusOK, echo.Map{
		"slots":         views,
		"groups":        availability.GroupSlots(grid),
		"full_day":      slotView{Slot: model.FullDaySlot, Label: availability.DisplayLabel(model.FullDaySlot)},
		"window_start":  first,
		"window_end":    last,
		"event_types":   model.EventTypes,
		"slot_duration": eng.Config().SlotDurationMinutes,
	})
}
