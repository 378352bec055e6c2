package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/bakery-bookings/internal/model"
	"github.com/iliyamo/bakery-bookings/internal/repository"
)

// ReviewStore persists reviews.  *repository.ReviewRepo implements it.
type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	ListByStatus(ctx context.Context, status model.ReviewStatus, limit int) ([]model.Review, error)
	GetByID(ctx context.Context, id uint64) (model.Review, error)
	Moderate(ctx context.Context, id uint64, status model.ReviewStatus) error
}

// ReviewRequest is the testimonial form.
type ReviewRequest struct {
	Author    string `json:"author" validate:"required,min=2,max=100"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Text      string `json:"text" validate:"required,min=10,max=1000"`
	EventType string `json:"event_type" validate:"omitempty,oneof=wedding birthday corporate baby-shower graduation other"`
}

// publicReviewLimit caps the public listing.
const publicReviewLimit = 50

// ReviewService handles submission and moderation of reviews.
type ReviewService struct {
	store      ReviewStore
	logger     *zap.Logger
	invalidate func(context.Context) error
}

// NewReviewService builds the service.  invalidate, when set, runs after
// every moderation so cached public listings drop stale entries.
func NewReviewService(store ReviewStore, logger *zap.Logger, invalidate func(context.Context) error) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{store: store, logger: logger.Named("review"), invalidate: invalidate}
}

// Submit stores a pending review from the caller.
func (s *ReviewService) Submit(ctx context.Context, sess Session, req ReviewRequest) (model.Review, error) {
	req.Author = strings.TrimSpace(req.Author)
	req.Text = strings.TrimSpace(req.Text)
	if err := validateStruct(req); err != nil {
		return model.Review{}, err
	}
	rv := model.Review{
		UserID:    sess.UserID,
		Author:    req.Author,
		Rating:    req.Rating,
		Text:      req.Text,
		EventType: req.EventType,
	}
	if err := s.store.Create(ctx, &rv); err != nil {
		return model.Review{}, err
	}
	s.logger.Info("review.submitted", zap.Uint64("id", rv.ID), zap.Uint64("user_id", sess.UserID))
	return rv, nil
}

// ListApproved returns the public reviews, newest first.
func (s *ReviewService) ListApproved(ctx context.Context) ([]model.Review, error) {
	return s.store.ListByStatus(ctx, model.ReviewApproved, publicReviewLimit)
}

// ListPending returns reviews awaiting moderation.  Admin only.
func (s *ReviewService) ListPending(ctx context.Context, sess Session) ([]model.Review, error) {
	if !sess.IsAdmin() {
		return nil, repository.ErrForbidden
	}
	return s.store.ListByStatus(ctx, model.ReviewPending, 0)
}

func (s *ReviewService) Approve(ctx context.Context, sess Session, id uint64) (model.Review, error) {
	return s.moderate(ctx, sess, id, model.ReviewApproved)
}

func (s *ReviewService) Reject(ctx context.Context, sess Session, id uint64) (model.Review, error) {
	return s.moderate(ctx, sess, id, model.ReviewRejected)
}

func (s *ReviewService) moderate(ctx context.Context, sess Session, id uint64, to model.ReviewStatus) (model.Review, error) {
	if !sess.IsAdmin() {
		return model.Review{}, repository.ErrForbidden
	}
	if err := s.store.Moderate(ctx, id, to); err != nil {
		return model.Review{}, err
	}
	if s.invalidate != nil {
		if err := s.invalidate(ctx); err != nil {
			s.logger.Warn("review.cache.invalidate_failed", zap.Error(err))
		}
	}
	s.logger.Info("review.moderated", zap.Uint64("id", id), zap.String("status", string(to)))
	return s.store.GetByID(ctx, id)
}
