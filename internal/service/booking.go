package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/availability"
	"github.com/iliyamo/bakery-bookings/internal/model"
	"github.com/iliyamo/bakery-bookings/internal/queue"
	"github.com/iliyamo/bakery-bookings/internal/repository"
)

// insertAttempts bounds retries of InsertIfFree after ErrContention.
const insertAttempts = 3

// BookingRequest is the customer booking form.
type BookingRequest struct {
	Date            string `json:"date" validate:"required"`
	Slot            string `json:"slot" validate:"required"`
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Phone           string `json:"phone" validate:"required,min=7,max=20"`
	EventType       string `json:"event_type" validate:"required,oneof=wedding birthday corporate baby-shower graduation other"`
	GuestCount      int    `json:"guest_count" validate:"required,min=1,max=1000"`
	EventLocation   string `json:"event_location" validate:"required,max=255"`
	SpecialRequests string `json:"special_requests" validate:"max=1000"`
}

// DayAvailability is the booking page view of one date.
type DayAvailability struct {
	Date             model.Date               `json:"date"`
	InWindow         bool                     `json:"in_window"`
	WindowStart      model.Date               `json:"window_start"`
	WindowEnd        model.Date               `json:"window_end"`
	Slots            []string                 `json:"slots"`
	Labels           map[string]string        `json:"labels"`
	Groups           []availability.SlotGroup `json:"groups"`
	FullDayAvailable bool                     `json:"full_day_available"`
	FullDayLabel     string                   `json:"full_day_label,omitempty"`
}

// Day states reported by Calendar.
const (
	DayUnavailable = "unavailable"
	DayFree        = "free"
	DayPartial     = "partial"
	DayFull        = "full"
)

// CalendarDay summarizes one date of a month view.
type CalendarDay struct {
	Date      model.Date `json:"date"`
	State     string     `json:"state"`
	FreeSlots int        `json:"free_slots"`
}

// BookingService coordinates the availability engine and the reservation
// store.
type BookingService struct {
	store    repository.ReservationStore
	engine   *availability.Engine
	pub      EventPublisher
	logger   *zap.Logger
	calendar *calendarCache
	now      func() time.Time
	newID    func() string
}

// NewBookingService wires the service.  calendarSize <= 0 disables the
// month view cache.  A nil publisher drops events.
func NewBookingService(store repository.ReservationStore, engine *availability.Engine, pub EventPublisher, logger *zap.Logger, calendarSize int) (*BookingService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	cal, err := newCalendarCache(calendarSize, logger)
	if err != nil {
		return nil, err
	}
	return &BookingService{
		store:    store,
		engine:   engine,
		pub:      pub,
		logger:   logger.Named("booking"),
		calendar: cal,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Engine exposes the engine for read-only helpers such as the slot grid.
func (s *BookingService) Engine() *availability.Engine { return s.engine }

// Availability returns the free slots of date with their display labels.
func (s *BookingService) Availability(ctx context.Context, date model.Date) (DayAvailability, error) {
	first, last := s.engine.Window()
	out := DayAvailability{
		Date:        date,
		InWindow:    s.engine.InWindow(date),
		WindowStart: first,
		WindowEnd:   last,
		Slots:       []string{},
		Labels:      map[string]string{},
		Groups:      []availability.SlotGroup{},
	}
	if !out.InWindow {
		return out, nil
	}
	existing, err := s.store.ListByDate(ctx, date)
	if err != nil {
		return out, err
	}
	out.Slots = s.engine.AvailableSlots(date, existing)
	for _, slot := range out.Slots {
		out.Labels[slot] = availability.DisplayLabel(slot)
	}
	out.Groups = availability.GroupSlots(out.Slots)
	out.FullDayAvailable = s.engine.IsDayEntirelyFree(date, existing)
	if out.FullDayAvailable {
		out.FullDayLabel = availability.DisplayLabel(model.FullDaySlot)
	}
	return out, nil
}

// Calendar returns one entry per day of the month.
func (s *BookingService) Calendar(ctx context.Context, year int, month time.Month) ([]CalendarDay, error) {
	if month < time.January || month > time.December || year < 1 {
		return nil, fmt.Errorf("%w: month %04d-%02d", ErrInvalidInput, year, int(month))
	}
	key := fmt.Sprintf("%04d-%02d@%s", year, int(month), s.engine.Today())
	if days, ok := s.calendar.get(key); ok {
		return days, nil
	}

	start := model.Date{Year: year, Month: month, Day: 1}
	end := start.AddDays(time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day() - 1)
	existing, err := s.store.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	byDate := make(map[model.Date][]model.Reservation)
	for _, r := range existing {
		byDate[r.Date] = append(byDate[r.Date], r)
	}

	total := s.engine.Config().SlotCount()
	days := make([]CalendarDay, 0, end.Day)
	for d := start; !d.After(end); d = d.AddDays(1) {
		day := CalendarDay{Date: d, State: DayUnavailable}
		if s.engine.InWindow(d) {
			day.FreeSlots = len(s.engine.AvailableSlots(d, byDate[d]))
			switch day.FreeSlots {
			case total:
				day.State = DayFree
			case 0:
				day.State = DayFull
			default:
				day.State = DayPartial
			}
		}
		days = append(days, day)
	}
	s.calendar.put(key, days)
	return days, nil
}

// Submit books a slot for the session's user.  The engine check runs
// once up front for a fast rejection and again inside the store under its
// per-date lock.
func (s *BookingService) Submit(ctx context.Context, sess Session, req BookingRequest) (model.Reservation, error) {
	if err := validateStruct(req); err != nil {
		return model.Reservation{}, err
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	check := func(existing []model.Reservation) error {
		return s.engine.ValidateRequest(date, req.Slot, existing)
	}

	existing, err := s.store.ListByDate(ctx, date)
	if err != nil {
		return model.Reservation{}, err
	}
	if err := check(existing); err != nil {
		return model.Reservation{}, err
	}
	slot, _ := availability.ParseSlot(req.Slot) // parse succeeded inside check

	r := model.Reservation{
		ID:              s.newID(),
		UserID:          sess.UserID,
		Date:            date,
		Slot:            slot,
		Status:          model.StatusPending,
		FullName:        strings.TrimSpace(req.FullName),
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           strings.TrimSpace(req.Phone),
		EventType:       req.EventType,
		GuestCount:      req.GuestCount,
		EventLocation:   strings.TrimSpace(req.EventLocation),
		SpecialRequests: strings.TrimSpace(req.SpecialRequests),
	}

	for attempt := 1; ; attempt++ {
		err = s.store.InsertIfFree(ctx, &r, check)
		if err == nil || !errors.Is(err, repository.ErrContention) || attempt == insertAttempts {
			break
		}
		s.logger.Debug("reservation.insert.retry", zap.Int("attempt", attempt), zap.Error(err))
	}
	switch {
	case err == nil:
	case errors.Is(err, availability.ErrSlotUnavailable), errors.Is(err, availability.ErrDateOutOfRange):
		return model.Reservation{}, err
	case errors.Is(err, repository.ErrSlotTaken):
		// a uniqueness constraint fired without the engine check seeing it
		return model.Reservation{}, fmt.Errorf("%w: %s on %s was just booked", availability.ErrSlotUnavailable, slot, date)
	default:
		return model.Reservation{}, err
	}

	s.calendar.purge()
	s.logger.Info("reservation.created",
		zap.String("id", r.ID), zap.Uint64("user_id", r.UserID),
		zap.String("date", r.Date.String()), zap.String("slot", r.Slot))
	s.publish(ctx, queue.EventCreated, r)
	return r, nil
}

// ListMine returns the caller's reservations.
func (s *BookingService) ListMine(ctx context.Context, sess Session) ([]model.Reservation, error) {
	return s.store.ListByUser(ctx, sess.UserID)
}

// Get returns a reservation visible to the caller: its owner or an admin.
func (s *BookingService) Get(ctx context.Context, sess Session, id string) (model.Reservation, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if !sess.IsAdmin() && r.UserID != sess.UserID {
		return model.Reservation{}, repository.ErrForbidden
	}
	return r, nil
}

// Cancel withdraws a pending reservation owned by the caller.  The row is
// removed and its slot becomes available again.
func (s *BookingService) Cancel(ctx context.Context, sess Session, id string) error {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != sess.UserID {
		return repository.ErrForbidden
	}
	if r.Status != model.StatusPending {
		return fmt.Errorf("%w: reservation is %s", repository.ErrConflict, r.Status)
	}
	if err := s.store.DeletePending(ctx, id, sess.UserID); err != nil {
		return err
	}
	s.calendar.purge()
	r.Status = model.StatusCancelled
	s.logger.Info("reservation.cancelled", zap.String("id", id), zap.Uint64("user_id", sess.UserID))
	s.publish(ctx, queue.EventCancelled, r)
	return nil
}

// Confirm accepts a pending reservation.
func (s *BookingService) Confirm(ctx context.Context, sess Session, id, note string) (model.Reservation, error) {
	return s.moderate(ctx, sess, id, model.StatusConfirmed, note, queue.EventConfirmed)
}

// Reject declines a pending reservation and frees its slot.
func (s *BookingService) Reject(ctx context.Context, sess Session, id, note string) (model.Reservation, error) {
	return s.moderate(ctx, sess, id, model.StatusRejected, note, queue.EventRejected)
}

func (s *BookingService) moderate(ctx context.Context, sess Session, id string, to model.ReservationStatus, note, event string) (model.Reservation, error) {
	if !sess.IsAdmin() {
		return model.Reservation{}, repository.ErrForbidden
	}
	note = strings.TrimSpace(note)
	if len(note) > 1000 {
		return model.Reservation{}, fmt.Errorf("%w: note must be at most 1000", ErrInvalidInput)
	}
	if err := s.store.UpdateStatus(ctx, id, model.StatusPending, to, note); err != nil {
		return model.Reservation{}, err
	}
	s.calendar.purge()
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	s.logger.Info(event, zap.String("id", id), zap.Uint64("admin_id", sess.UserID))
	s.publish(ctx, event, r)
	return r, nil
}

// ListAll returns reservations matching f.  Admin only.
func (s *BookingService) ListAll(ctx context.Context, sess Session, f repository.ReservationFilter) ([]model.Reservation, error) {
	if !sess.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, fmt.Errorf("%w: to before from", ErrInvalidInput)
	}
	return s.store.List(ctx, f)
}

func (s *BookingService) publish(ctx context.Context, typ string, r model.Reservation) {
	ev := queue.NewReservationEvent(typ, r, s.now())
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.logger.Warn("reservation.event.publish_failed", zap.String("type", typ), zap.String("id", r.ID), zap.Error(err))
	}
}
