package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// MemoryStore keeps reservations in process memory.  It backs local
// development and tests; a single mutex makes InsertIfFree atomic.
type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]model.Reservation
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]model.Reservation{}, now: time.Now}
}

func (s *MemoryStore) InsertIfFree(ctx context.Context, r *model.Reservation, check ConflictCheck) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byID[r.ID]; dup {
		return ErrConflict
	}
	if err := runCheck(check, s.filterLocked(func(x model.Reservation) bool { return x.Date == r.Date })); err != nil {
		return err
	}
	now := s.now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	s.byID[r.ID] = *r
	return nil
}

func (s *MemoryStore) ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	return s.List(ctx, ReservationFilter{From: date, To: date})
}

func (s *MemoryStore) ListByDateRange(ctx context.Context, from, to model.Date) ([]model.Reservation, error) {
	return s.List(ctx, ReservationFilter{From: from, To: to})
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return model.Reservation{}, ErrReservationNotFound
	}
	return r, nil
}

func (s *MemoryStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.List(ctx, ReservationFilter{UserID: userID})
}

func (s *MemoryStore) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterLocked(f.match), nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return ErrReservationNotFound
	}
	if r.Status != from {
		return ErrConflict
	}
	r.Status = to
	if note != "" {
		r.AdminNote = note
	}
	r.UpdatedAt = s.now().UTC()
	s.byID[id] = r
	return nil
}

func (s *MemoryStore) DeletePending(ctx context.Context, id string, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return ErrReservationNotFound
	}
	if r.UserID != userID {
		return ErrForbidden
	}
	if r.Status != model.StatusPending {
		return ErrConflict
	}
	delete(s.byID, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) filterLocked(keep func(model.Reservation) bool) []model.Reservation {
	out := make([]model.Reservation, 0)
	for _, r := range s.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out
}
