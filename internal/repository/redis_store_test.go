package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

func newRedisStore(t *testing.T) (*RedisStore, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "test"), rdb
}

func TestRedisStoreInsertIfFree(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)
	d := mustDate(t, "2026-11-02")

	if err := s.InsertIfFree(ctx, newRes("a", 1, d, "10:00"), slotFree("10:00")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := s.InsertIfFree(ctx, newRes("b", 2, d, "10:00"), slotFree("10:00"))
	if !errors.Is(err, ErrSlotTaken) || !errors.Is(err, errTaken) {
		t.Fatalf("second insert error = %v, want ErrSlotTaken wrapping the check error", err)
	}
	if err := s.InsertIfFree(ctx, newRes("c", 2, d, "11:00"), slotFree("11:00")); err != nil {
		t.Fatalf("other slot: %v", err)
	}
	if err := s.InsertIfFree(ctx, newRes("a", 3, d, "12:00"), nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate id error = %v, want ErrConflict", err)
	}

	got, err := s.ListByDate(ctx, d)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Slot != "10:00" || got[1].Slot != "11:00" {
		t.Fatalf("ListByDate = %+v", got)
	}
	mine, err := s.ListByUser(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != "c" {
		t.Fatalf("ListByUser = %+v", mine)
	}
	if r, err := s.GetByID(ctx, "a"); err != nil || r.Date != d {
		t.Fatalf("GetByID = %+v, %v", r, err)
	}
}

// A write to the day key between WATCH and EXEC aborts the transaction.
func TestRedisStoreWatchConflictIsContention(t *testing.T) {
	ctx := context.Background()
	s, rdb := newRedisStore(t)
	d := mustDate(t, "2026-11-03")

	interfere := func(existing []model.Reservation) error {
		return rdb.HSet(ctx, s.dayKey(d), "intruder", `{"id":"intruder","slot":"09:00","status":"pending"}`).Err()
	}
	err := s.InsertIfFree(ctx, newRes("a", 1, d, "10:00"), interfere)
	if !errors.Is(err, ErrContention) {
		t.Fatalf("err = %v, want ErrContention", err)
	}
	if errors.Is(err, ErrSlotTaken) {
		t.Fatal("contention must not read as a taken slot")
	}
	if _, err := s.GetByID(ctx, "a"); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("aborted insert left a row behind: %v", err)
	}

	// the retry sees the intruder and succeeds
	if err := s.InsertIfFree(ctx, newRes("a", 1, d, "10:00"), slotFree("10:00")); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestRedisStoreStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newRedisStore(t)
	d := mustDate(t, "2026-11-04")
	for _, r := range []*model.Reservation{newRes("a", 1, d, "10:00"), newRes("b", 1, d, "11:00")} {
		if err := s.InsertIfFree(ctx, r, nil); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.UpdateStatus(ctx, "a", model.StatusPending, model.StatusConfirmed, "see you"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStatus(ctx, "a", model.StatusPending, model.StatusRejected, ""); !errors.Is(err, ErrConflict) {
		t.Fatalf("second transition err = %v, want ErrConflict", err)
	}
	confirmed, err := s.List(ctx, ReservationFilter{Status: model.StatusConfirmed})
	if err != nil {
		t.Fatal(err)
	}
	if len(confirmed) != 1 || confirmed[0].AdminNote != "see you" {
		t.Fatalf("List confirmed = %+v", confirmed)
	}

	if err := s.DeletePending(ctx, "b", 2); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete err = %v, want ErrForbidden", err)
	}
	if err := s.DeletePending(ctx, "b", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetByID(ctx, "b"); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("deleted reservation still found: %v", err)
	}
}
