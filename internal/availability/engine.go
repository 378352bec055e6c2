// Package availability computes which booking slots are free on a given
// day and validates booking requests against existing reservations.
//
// An Engine holds only its configuration and the precomputed slot grid.
// It never touches storage: callers hand it the reservations of a date
// and get slot labels, booleans or a validation error back.  All methods
// are safe for concurrent use.
package availability

import (
	"fmt"
	"time"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// Engine answers availability questions for one configuration.
type Engine struct {
	cfg   Config
	slots []string
	index map[string]int
	now   func() time.Time
	loc   *time.Location
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the source of "now" used for the advance window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// New validates cfg and builds the slot grid.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:   cfg,
		now:   time.Now,
		loc:   time.UTC,
		slots: make([]string, 0, cfg.SlotCount()),
		index: make(map[string]int, cfg.SlotCount()),
	}
	for _, o := range opts {
		o(e)
	}
	end := cfg.WorkEndHour * 60
	for m := cfg.WorkStartHour * 60; m < end; m += cfg.SlotDurationMinutes {
		l := Label(m)
		e.index[l] = len(e.slots)
		e.slots = append(e.slots, l)
	}
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Today is the current calendar day in the engine's location.
func (e *Engine) Today() model.Date { return model.DateOf(e.now().In(e.loc)) }

// Window returns the first and last bookable dates, inclusive.
func (e *Engine) Window() (first, last model.Date) {
	today := e.Today()
	return today.AddDays(e.cfg.MinAdvanceDays), today.AddDays(e.cfg.MaxAdvanceDays)
}

// InWindow reports whether date is inside the advance booking window.
func (e *Engine) InWindow(date model.Date) bool {
	first, last := e.Window()
	return !date.Before(first) && !date.After(last)
}

// GenerateDailySlots returns the ordered slot labels of one working day.
// The slice is a copy and may be modified by the caller.
func (e *Engine) GenerateDailySlots() []string {
	out := make([]string, len(e.slots))
	copy(out, e.slots)
	return out
}

// OnGrid reports whether label is one of the generated slots.
func (e *Engine) OnGrid(label string) bool {
	_, ok := e.index[label]
	return ok
}

// OccupiedSlots marks every grid slot held by an active reservation in
// reservations.  Cancelled and rejected reservations are ignored, a full
// day reservation marks the whole grid, and labels that do not parse or
// fall off the grid are skipped.
func (e *Engine) OccupiedSlots(reservations []model.Reservation) map[string]bool {
	occupied := make(map[string]bool, len(e.slots))
	for _, r := range reservations {
		if !r.Active() {
			continue
		}
		label, err := ParseSlot(r.Slot)
		if err != nil {
			continue
		}
		if label == model.FullDaySlot {
			for _, s := range e.slots {
				occupied[s] = true
			}
			return occupied
		}
		if e.OnGrid(label) {
			occupied[label] = true
		}
	}
	return occupied
}

// AvailableSlots returns the free slots of date in grid order.  Dates
// outside the advance window have no availability.  Reservations dated
// on another day are ignored.
func (e *Engine) AvailableSlots(date model.Date, reservations []model.Reservation) []string {
	if !e.InWindow(date) {
		return []string{}
	}
	occupied := e.OccupiedSlots(sameDay(date, reservations))
	out := make([]string, 0, len(e.slots))
	for _, s := range e.slots {
		if !occupied[s] {
			out = append(out, s)
		}
	}
	return out
}

// IsDayEntirelyFree reports whether every slot of date is available, in
// which case a full day booking may be offered.
func (e *Engine) IsDayEntirelyFree(date model.Date, reservations []model.Reservation) bool {
	return len(e.AvailableSlots(date, reservations)) == len(e.slots)
}

// ValidateRequest checks that slot (a grid label or full day) can still
// be booked on date.  It returns ErrDateOutOfRange or ErrSlotUnavailable
// wrapped with detail.  A full day request needs the whole day free.
func (e *Engine) ValidateRequest(date model.Date, slot string, reservations []model.Reservation) error {
	if !e.InWindow(date) {
		first, last := e.Window()
		return fmt.Errorf("%w: %s not in %s..%s", ErrDateOutOfRange, date, first, last)
	}
	label, err := ParseSlot(slot)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
	}
	if label == model.FullDaySlot {
		if !e.IsDayEntirelyFree(date, reservations) {
			return fmt.Errorf("%w: %s already has bookings", ErrSlotUnavailable, date)
		}
		return nil
	}
	if !e.OnGrid(label) {
		return fmt.Errorf("%w: %s is not a bookable slot", ErrSlotUnavailable, label)
	}
	if e.OccupiedSlots(sameDay(date, reservations))[label] {
		return fmt.Errorf("%w: %s on %s is taken", ErrSlotUnavailable, label, date)
	}
	return nil
}

func sameDay(date model.Date, reservations []model.Reservation) []model.Reservation {
	out := reservations[:0:0]
	for _, r := range reservations {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}
