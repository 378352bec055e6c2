package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iliyamo/bakery-bookings/internal/model"
	"github.com/iliyamo/bakery-bookings/internal/repository"
)

type memReviews struct {
	mu   sync.Mutex
	next uint64
	rows map[uint64]model.Review
}

func newMemReviews() *memReviews { return &memReviews{rows: map[uint64]model.Review{}} }

func (m *memReviews) Create(_ context.Context, rv *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	rv.ID = m.next
	rv.Status = model.ReviewPending
	m.rows[rv.ID] = *rv
	return nil
}

func (m *memReviews) ListByStatus(_ context.Context, status model.ReviewStatus, limit int) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Review
	for id := uint64(1); id <= m.next; id++ {
		if rv, ok := m.rows[id]; ok && rv.Status == status {
			out = append(out, rv)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memReviews) GetByID(_ context.Context, id uint64) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rv, ok := m.rows[id]
	if !ok {
		return rv, repository.ErrReviewNotFound
	}
	return rv, nil
}

func (m *memReviews) Moderate(_ context.Context, id uint64, status model.ReviewStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rv, ok := m.rows[id]
	if !ok {
		return repository.ErrReviewNotFound
	}
	if rv.Status != model.ReviewPending {
		return repository.ErrConflict
	}
	rv.Status = status
	m.rows[id] = rv
	return nil
}

func TestReviewSubmitValidation(t *testing.T) {
	svc := NewReviewService(newMemReviews(), nil, nil)
	ok := ReviewRequest{Author: "Ada", Rating: 5, Text: "The cake was perfect."}
	tests := []struct {
		name   string
		mutate func(*ReviewRequest)
	}{
		{"rating zero", func(r *ReviewRequest) { r.Rating = 0 }},
		{"rating six", func(r *ReviewRequest) { r.Rating = 6 }},
		{"short text", func(r *ReviewRequest) { r.Text = "  yum     " }},
		{"long text", func(r *ReviewRequest) { r.Text = strings.Repeat("a", 1001) }},
		{"no author", func(r *ReviewRequest) { r.Author = "" }},
		{"bad event type", func(r *ReviewRequest) { r.EventType = "rave" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ok
			tt.mutate(&req)
			if _, err := svc.Submit(context.Background(), customer, req); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
	rv, err := svc.Submit(context.Background(), customer, ok)
	if err != nil || rv.Status != model.ReviewPending || rv.UserID != customer.UserID {
		t.Fatalf("Submit = %+v, %v", rv, err)
	}
}

func TestReviewModeration(t *testing.T) {
	ctx := context.Background()
	purged := 0
	svc := NewReviewService(newMemReviews(), nil, func(context.Context) error { purged++; return nil })
	a, _ := svc.Submit(ctx, customer, ReviewRequest{Author: "Ada", Rating: 5, Text: "Lovely wedding cake."})
	b, _ := svc.Submit(ctx, other, ReviewRequest{Author: "Bob", Rating: 2, Text: "Delivery was late."})

	if _, err := svc.ListPending(ctx, customer); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("customer ListPending: %v", err)
	}
	if _, err := svc.Approve(ctx, customer, a.ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("customer Approve: %v", err)
	}
	pending, _ := svc.ListPending(ctx, admin)
	if len(pending) != 2 {
		t.Fatalf("pending = %d", len(pending))
	}

	if got, err := svc.Approve(ctx, admin, a.ID); err != nil || got.Status != model.ReviewApproved {
		t.Fatalf("Approve = %+v, %v", got, err)
	}
	if _, err := svc.Reject(ctx, admin, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Reject(ctx, admin, a.ID); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("re-moderate: %v", err)
	}
	if _, err := svc.Approve(ctx, admin, 99); !errors.Is(err, repository.ErrReviewNotFound) {
		t.Fatalf("missing: %v", err)
	}

	public, _ := svc.ListApproved(ctx)
	if len(public) != 1 || public[0].ID != a.ID {
		t.Fatalf("approved = %+v", public)
	}
	if purged != 2 {
		t.Fatalf("cache purged %d times, want 2", purged)
	}
}
