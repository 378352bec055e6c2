package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// ConflictCheck inspects the reservations already stored for a date and
// returns an error when the pending insert must not happen.  Stores call
// it while holding their per-date lock so the check and the write are
// atomic with respect to other writers of the same date.
type ConflictCheck func(existing []model.Reservation) error

// ReservationFilter narrows List.  Zero values mean "any".
type ReservationFilter struct {
	Status model.ReservationStatus
	From   model.Date
	To     model.Date
	UserID uint64
}

func (f ReservationFilter) match(r model.Reservation) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	if f.UserID != 0 && r.UserID != f.UserID {
		return false
	}
	return true
}

// ReservationStore persists reservations.  Implementations differ in
// backend but share one contract: InsertIfFree never lets two writers
// both pass the check for the same date.
type ReservationStore interface {
	// InsertIfFree runs check against the stored reservations of r.Date
	// and inserts r only if check returns nil.  A non-nil check error is
	// returned wrapped in ErrSlotTaken.
	InsertIfFree(ctx context.Context, r *model.Reservation, check ConflictCheck) error
	ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error)
	// ListByDateRange returns reservations with from <= date <= to.
	ListByDateRange(ctx context.Context, from, to model.Date) ([]model.Reservation, error)
	GetByID(ctx context.Context, id string) (model.Reservation, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
	List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error)
	// UpdateStatus moves a reservation from one status to another.  It
	// returns ErrConflict when the stored status is not from.
	UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error
	// DeletePending removes a pending reservation owned by userID.
	DeletePending(ctx context.Context, id string, userID uint64) error
	Close() error
}

// Backend names accepted by STORE_BACKEND.
const (
	BackendMySQL    = "mysql"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// slotTaken wraps a conflict check failure so callers can match both
// ErrSlotTaken and the check's own error.
func slotTaken(err error) error {
	return fmt.Errorf("%w: %w", ErrSlotTaken, err)
}

// runCheck applies check to every stored reservation of the date.
func runCheck(check ConflictCheck, existing []model.Reservation) error {
	if check == nil {
		return nil
	}
	if err := check(existing); err != nil {
		return slotTaken(err)
	}
	return nil
}

// sortReservations orders by date, slot, then creation time so every
// backend returns the same sequence.
func sortReservations(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		if c := rs[i].Date.Compare(rs[j].Date); c != 0 {
			return c < 0
		}
		if rs[i].Slot != rs[j].Slot {
			return rs[i].Slot < rs[j].Slot
		}
		return rs[i].CreatedAt.Before(rs[j].CreatedAt)
	})
}
