package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// ReservationRepo is the MySQL ReservationStore.  Writers of one date are
// serialized by locking that date's row in reservation_days; the
// generated active_slot column with UNIQUE(event_date, active_slot) is a
// second line of defence against duplicate slot rows.  All timestamp
// fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, event_date, time_slot, status, full_name, email, phone,
	event_type, guest_count, event_location, special_requests, admin_note, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (model.Reservation, error) {
	var res model.Reservation
	err := s.Scan(&res.ID, &res.UserID, &res.Date, &res.Slot, &res.Status, &res.FullName, &res.Email,
		&res.Phone, &res.EventType, &res.GuestCount, &res.EventLocation, &res.SpecialRequests,
		&res.AdminNote, &res.CreatedAt, &res.UpdatedAt)
	return res, err
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *ReservationRepo) query(ctx context.Context, q queryer, where string, args ...any) ([]model.Reservation, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations "+where+" ORDER BY event_date, time_slot, created_at", args...)
	if err != nil {
		return nil, classifyMySQL(err)
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// InsertIfFree locks the date, runs check over its reservations and
// inserts res in the same transaction.
func (r *ReservationRepo) InsertIfFree(ctx context.Context, res *model.Reservation, check ConflictCheck) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// make sure the lock row exists, then take it
	if _, err := tx.ExecContext(ctx, "INSERT IGNORE INTO reservation_days (event_date) VALUES (?)", res.Date); err != nil {
		return classifyMySQL(err)
	}
	var locked model.Date
	if err := tx.QueryRowContext(ctx,
		"SELECT event_date FROM reservation_days WHERE event_date = ? FOR UPDATE", res.Date).Scan(&locked); err != nil {
		return classifyMySQL(err)
	}

	existing, err := r.query(ctx, tx, "WHERE event_date = ?", res.Date)
	if err != nil {
		return err
	}
	if err := runCheck(check, existing); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	res.CreatedAt, res.UpdatedAt = now, now
	const q = `INSERT INTO reservations (id, user_id, event_date, time_slot, status, full_name, email, phone,
		event_type, guest_count, event_location, special_requests, admin_note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, res.ID, res.UserID, res.Date, res.Slot, string(res.Status),
		res.FullName, res.Email, res.Phone, res.EventType, res.GuestCount, res.EventLocation,
		res.SpecialRequests, res.AdminNote, res.CreatedAt, res.UpdatedAt); err != nil {
		return classifyMySQL(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyMySQL(err)
	}
	committed = true
	return nil
}

func (r *ReservationRepo) ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	return r.query(ctx, r.db, "WHERE event_date = ?", date)
}

func (r *ReservationRepo) ListByDateRange(ctx context.Context, from, to model.Date) ([]model.Reservation, error) {
	return r.query(ctx, r.db, "WHERE event_date BETWEEN ? AND ?", from, to)
}

// GetByID returns ErrReservationNotFound when no row matches.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, err
}

func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.query(ctx, r.db, "WHERE user_id = ?", userID)
}

func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		conds = append(conds, "event_date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, "event_date <= ?")
		args = append(args, f.To)
	}
	if f.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	return r.query(ctx, r.db, where, args...)
}

// UpdateStatus performs a compare-and-set on the status column.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, admin_note = IF(? = '', admin_note, ?), updated_at = UTC_TIMESTAMP()
		 WHERE id = ? AND status = ?`,
		string(to), note, note, id, string(from))
	if err != nil {
		return classifyMySQL(err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	// tell "missing" apart from "wrong state"
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

// DeletePending removes the reservation when userID owns it and it is
// still pending.
func (r *ReservationRepo) DeletePending(ctx context.Context, id string, userID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var (
		owner  uint64
		status string
	)
	err = tx.QueryRowContext(ctx, "SELECT user_id, status FROM reservations WHERE id = ? FOR UPDATE", id).Scan(&owner, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}
	if err != nil {
		return classifyMySQL(err)
	}
	if owner != userID {
		return ErrForbidden
	}
	if model.ReservationStatus(status) != model.StatusPending {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE id = ?", id); err != nil {
		return classifyMySQL(err)
	}
	if err := tx.Commit(); err != nil {
		return classifyMySQL(err)
	}
	committed = true
	return nil
}

// Close is a no-op; the *sql.DB is shared with the other repositories.
func (r *ReservationRepo) Close() error { return nil }

// MySQL error numbers the store reacts to.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// classifyMySQL maps driver errors onto repository sentinels.
func classifyMySQL(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return slotTaken(err)
		case mysqlDeadlock, mysqlLockWaitTimeout:
			return errors.Join(ErrContention, err)
		}
	}
	return err
}

// isDuplicateKey reports MySQL error 1062.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
