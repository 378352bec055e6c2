package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// RedisStore keeps reservations in Redis.  Each date is one hash
// (id -> JSON) so a WATCH on that key turns InsertIfFree into an
// optimistic transaction; a concurrent writer makes EXEC fail and the
// call returns ErrContention.
//
// Keys:
//
//	<prefix>:day:<date>  hash of reservations on that date
//	<prefix>:id:<id>     date of a reservation
//	<prefix>:user:<uid>  set of reservation ids owned by uid
//	<prefix>:days        sorted set of dates that ever had a reservation
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "bookings"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) dayKey(d model.Date) string { return s.prefix + ":day:" + d.String() }
func (s *RedisStore) idKey(id string) string     { return s.prefix + ":id:" + id }
func (s *RedisStore) userKey(uid uint64) string {
	return s.prefix + ":user:" + strconv.FormatUint(uid, 10)
}
func (s *RedisStore) daysKey() string { return s.prefix + ":days" }

// dateScore orders dates numerically: 2026-10-18 -> 20261018.
func dateScore(d model.Date) float64 {
	return float64(d.Year*10000 + int(d.Month)*100 + d.Day)
}

func decodeDay(date model.Date, raw map[string]string) []model.Reservation {
	out := make([]model.Reservation, 0, len(raw))
	for _, v := range raw {
		var r model.Reservation
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			continue
		}
		r.Date = date
		out = append(out, r)
	}
	sortReservations(out)
	return out
}

func (s *RedisStore) InsertIfFree(ctx context.Context, res *model.Reservation, check ConflictCheck) error {
	dayKey := s.dayKey(res.Date)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGetAll(ctx, dayKey).Result()
		if err != nil {
			return err
		}
		if _, dup := raw[res.ID]; dup {
			return ErrConflict
		}
		if err := runCheck(check, decodeDay(res.Date, raw)); err != nil {
			return err
		}
		now := time.Now().UTC()
		res.CreatedAt, res.UpdatedAt = now, now
		payload, err := json.Marshal(res)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, dayKey, res.ID, payload)
			p.Set(ctx, s.idKey(res.ID), res.Date.String(), 0)
			p.SAdd(ctx, s.userKey(res.UserID), res.ID)
			p.ZAdd(ctx, s.daysKey(), redis.Z{Score: dateScore(res.Date), Member: res.Date.String()})
			return nil
		})
		return err
	}
	return classifyRedis(s.rdb.Watch(ctx, txf, dayKey))
}

func (s *RedisStore) ListByDate(ctx context.Context, date model.Date) ([]model.Reservation, error) {
	raw, err := s.rdb.HGetAll(ctx, s.dayKey(date)).Result()
	if err != nil {
		return nil, err
	}
	return decodeDay(date, raw), nil
}

func (s *RedisStore) ListByDateRange(ctx context.Context, from, to model.Date) ([]model.Reservation, error) {
	days, err := s.rdb.ZRangeByScore(ctx, s.daysKey(), &redis.ZRangeBy{
		Min: strconv.FormatFloat(dateScore(from), 'f', 0, 64),
		Max: strconv.FormatFloat(dateScore(to), 'f', 0, 64),
	}).Result()
	if err != nil {
		return nil, err
	}
	return s.loadDays(ctx, days)
}

func (s *RedisStore) loadDays(ctx context.Context, days []string) ([]model.Reservation, error) {
	if len(days) == 0 {
		return []model.Reservation{}, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(days))
	for i, d := range days {
		cmds[i] = pipe.HGetAll(ctx, s.prefix+":day:"+d)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	out := make([]model.Reservation, 0)
	for i, d := range days {
		date, err := model.ParseDate(d)
		if err != nil {
			continue
		}
		out = append(out, decodeDay(date, cmds[i].Val())...)
	}
	sortReservations(out)
	return out, nil
}

func (s *RedisStore) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	date, raw, err := s.lookup(ctx, s.rdb, id)
	if err != nil {
		return model.Reservation{}, err
	}
	return decodeOne(date, raw)
}

// lookup finds the date and stored JSON of a reservation.
func (s *RedisStore) lookup(ctx context.Context, c redis.Cmdable, id string) (model.Date, string, error) {
	d, err := c.Get(ctx, s.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Date{}, "", ErrReservationNotFound
	}
	if err != nil {
		return model.Date{}, "", err
	}
	date, err := model.ParseDate(d)
	if err != nil {
		return model.Date{}, "", fmt.Errorf("corrupt index for %s: %w", id, err)
	}
	raw, err := c.HGet(ctx, s.dayKey(date), id).Result()
	if errors.Is(err, redis.Nil) {
		return model.Date{}, "", ErrReservationNotFound
	}
	return date, raw, err
}

func decodeOne(date model.Date, raw string) (model.Reservation, error) {
	var r model.Reservation
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return model.Reservation{}, err
	}
	r.Date = date
	return r, nil
}

func (s *RedisStore) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	ids, err := s.rdb.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]model.Reservation, 0, len(ids))
	for _, id := range ids {
		r, err := s.GetByID(ctx, id)
		if errors.Is(err, ErrReservationNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sortReservations(out)
	return out, nil
}

func (s *RedisStore) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	var (
		all []model.Reservation
		err error
	)
	switch {
	case f.UserID != 0:
		all, err = s.ListByUser(ctx, f.UserID)
	default:
		lo, hi := "-inf", "+inf"
		if !f.From.IsZero() {
			lo = strconv.FormatFloat(dateScore(f.From), 'f', 0, 64)
		}
		if !f.To.IsZero() {
			hi = strconv.FormatFloat(dateScore(f.To), 'f', 0, 64)
		}
		var days []string
		days, err = s.rdb.ZRangeByScore(ctx, s.daysKey(), &redis.ZRangeBy{Min: lo, Max: hi}).Result()
		if err == nil {
			all, err = s.loadDays(ctx, days)
		}
	}
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if f.match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RedisStore) UpdateStatus(ctx context.Context, id string, from, to model.ReservationStatus, note string) error {
	date, _, err := s.lookup(ctx, s.rdb, id)
	if err != nil {
		return err
	}
	dayKey := s.dayKey(date)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, dayKey, id).Result()
		if errors.Is(err, redis.Nil) {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		r, err := decodeOne(date, raw)
		if err != nil {
			return err
		}
		if r.Status != from {
			return ErrConflict
		}
		r.Status = to
		if note != "" {
			r.AdminNote = note
		}
		r.UpdatedAt = time.Now().UTC()
		payload, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, dayKey, id, payload)
			return nil
		})
		return err
	}
	return classifyRedis(s.rdb.Watch(ctx, txf, dayKey))
}

func (s *RedisStore) DeletePending(ctx context.Context, id string, userID uint64) error {
	date, _, err := s.lookup(ctx, s.rdb, id)
	if err != nil {
		return err
	}
	dayKey := s.dayKey(date)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, dayKey, id).Result()
		if errors.Is(err, redis.Nil) {
			return ErrReservationNotFound
		}
		if err != nil {
			return err
		}
		r, err := decodeOne(date, raw)
		if err != nil {
			return err
		}
		if r.UserID != userID {
			return ErrForbidden
		}
		if r.Status != model.StatusPending {
			return ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HDel(ctx, dayKey, id)
			p.Del(ctx, s.idKey(id))
			p.SRem(ctx, s.userKey(userID), id)
			return nil
		})
		return err
	}
	return classifyRedis(s.rdb.Watch(ctx, txf, dayKey))
}

// Close leaves the shared client open; main owns its lifetime.
func (s *RedisStore) Close() error { return nil }

func classifyRedis(err error) error {
	if errors.Is(err, redis.TxFailedErr) {
		return errors.Join(ErrContention, err)
	}
	return err
}
