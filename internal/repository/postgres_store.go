package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// PostgresStore is the PostgreSQL ReservationStore.  InsertIfFree takes a
// transaction-scoped advisory lock keyed by the date, and a partial
// unique index on (event_date, time_slot) for active rows catches
// anything that slips past it.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore { return &PostgresStore{pool: pool} }

const pgReservationColumns = `id, user_id, event_date, time_slot, status, full_name, email, phone,
	event_type, guest_count, event_location, special_requests, admin_note, created_at, updated_at`

func (s *PostgresStore) query(ctx context.Context, q interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
}, where string, args ...any) ([]model.Reservation, error) {
	rows, err := q.Query(ctx,
		"SELECT "+pgReservationColumns+" FROM reservations "+where+" ORDER BY event_date, time_slot, created_at", args...)
	if err != nil {
		return nil, classifyPostgres(err)
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanPgReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func scanPgReservation(row pgx.Row) (model.Reservation, error) {
	var (
		res    model.Reservation
		day    time.Time
		status string
		guests int32
	)
	err := row.Scan(&res.ID, &res.UserID, &day, &res.Slot, &status, &res.FullName, &res.Email, &res.Phone,
		&res.EventType, &guests, &res.EventLocation, &res.SpecialRequests, &res.AdminNote, &res.CreatedAt, &res.UpdatedAt)
	res.Date = model.DateOf(day)
	res.Status = model.ReservationStatus(status)
	res.GuestCount = int(guests)
	return res, err
}

func (s *PostgresStore) InsertIfFree(ctx context.Context, res *model.Reservation, check ConflictCheck) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classifyPostgres(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", "reservation-day:"+res.Date.String()); err != nil {
		return classifyPostgres(err)
	}
	existing, err := s.query(ctx, tx, "WHERE event_date = $1", res.Date.String())
	if err != nil {
		return err
	}
	if err := runCheck(check, existing); err != nil {
		return err
	}

	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	_, err = tx.Exec(ctx, `INSERT INTO reservations (id, user_id, event_date, time_slot, status, full_name, email,
		phone, event_type, guest_count, event_location, special_requests, admin_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		res.ID, res.UserID, res.Date.String(), res.Slot, string(res.Status), res.FullName, res.Email, res.Phone,
		res.EventType, res.GuestCount, res.EventLocation, res.SpecialRequests, res.AdminNote, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		return classifyPostgres(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return classifyPostgres(err)
	}
	committed = true
	return nil
}

func (s *PostgresStore) ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	return s.query(ctx, s.pool, "WHERE event_date = $1", date.String())
}

func (s *PostgresStore) ListByDateRange(ctx context.Context, from, to model.Date) ([]model.Reservation, error) {
	return s.query(ctx, s.pool, "WHERE event_date BETWEEN $1 AND $2", from.String(), to.String())
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	res, err := scanPgReservation(s.pool.QueryRow(ctx,
		"SELECT "+pgReservationColumns+" FROM reservations WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, err
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return s.query(ctx, s.pool, "WHERE user_id = $1", userID)
}

func (s *PostgresStore) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.From.IsZero() {
		add("event_date >= $%d", f.From.String())
	}
	if !f.To.IsZero() {
		add("event_date <= $%d", f.To.String())
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	return s.query(ctx, s.pool, where, args...)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reservations SET status = $1, admin_note = COALESCE(NULLIF($2, ''), admin_note), updated_at = now()
		 WHERE id = $3 AND status = $4`,
		string(to), note, id, string(from))
	if err != nil {
		return classifyPostgres(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (s *PostgresStore) DeletePending(ctx context.Context, id string, userID uint64) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM reservations WHERE id = $1 AND user_id = $2 AND status = $3",
		id, userID, string(model.StatusPending))
	if err != nil {
		return classifyPostgres(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	res, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.UserID != userID {
		return ErrForbidden
	}
	return ErrConflict
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// classifyPostgres maps SQLSTATE codes onto repository sentinels.
func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23P01": // unique_violation, exclusion_violation
			return slotTaken(err)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return errors.Join(ErrContention, err)
		}
	}
	return err
}
