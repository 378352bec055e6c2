package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// ReviewRepo stores customer reviews in MySQL.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewColumns = "id, user_id, author, rating, body, event_type, status, created_at, moderated_at"

// Create inserts rv as pending and fills ID, Status and CreatedAt.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	rv.Status = model.ReviewPending
	rv.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (user_id, author, rating, body, event_type, status, created_at) VALUES (?,?,?,?,?,?,?)",
		rv.UserID, rv.Author, rv.Rating, rv.Text, rv.EventType, string(rv.Status), rv.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// ListByStatus returns reviews in status, newest first.  limit <= 0
// means no limit.
func (r *ReviewRepo) ListByStatus(ctx context.Context, status model.ReviewStatus, limit int) ([]model.Review, error) {
	q := "SELECT " + reviewColumns + " FROM reviews WHERE status = ? ORDER BY created_at DESC, id DESC"
	args := []any{string(status)}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// GetByID returns ErrReviewNotFound when no row matches.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReview(r.DB.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rv, ErrReviewNotFound
	}
	return rv, err
}

// Moderate moves a pending review to status.  ErrConflict means the
// review was already moderated.
func (r *ReviewRepo) Moderate(ctx context.Context, id uint64, status model.ReviewStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET status = ?, moderated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?",
		string(status), id, string(model.ReviewPending))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func scanReview(s rowScanner) (model.Review, error) {
	var (
		rv        model.Review
		moderated sql.NullTime
	)
	err := s.Scan(&rv.ID, &rv.UserID, &rv.Author, &rv.Rating, &rv.Text, &rv.EventType, &rv.Status, &rv.CreatedAt, &moderated)
	if moderated.Valid {
		t := moderated.Time
		rv.ModeratedAt = &t
	}
	return rv, err
}
