package availability

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

var fixedNow = time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg, WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("New(%+v): %v", cfg, err)
	}
	return e
}

func day(s string) model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func booking(date, slot string, status model.ReservationStatus) model.Reservation {
	return model.Reservation{ID: date + "/" + slot, Date: day(date), Slot: slot, Status: status}
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"start after end", Config{WorkStartHour: 18, WorkEndHour: 8, SlotDurationMinutes: 60, MaxAdvanceDays: 1}},
		{"start equals end", Config{WorkStartHour: 9, WorkEndHour: 9, SlotDurationMinutes: 60, MaxAdvanceDays: 1}},
		{"end past midnight", Config{WorkStartHour: 8, WorkEndHour: 25, SlotDurationMinutes: 60, MaxAdvanceDays: 1}},
		{"negative start", Config{WorkStartHour: -1, WorkEndHour: 8, SlotDurationMinutes: 60, MaxAdvanceDays: 1}},
		{"zero duration", Config{WorkStartHour: 8, WorkEndHour: 18, SlotDurationMinutes: 0, MaxAdvanceDays: 1}},
		{"duration not dividing an hour", Config{WorkStartHour: 8, WorkEndHour: 18, SlotDurationMinutes: 45, MaxAdvanceDays: 1}},
		{"duration longer than an hour", Config{WorkStartHour: 8, WorkEndHour: 18, SlotDurationMinutes: 120, MaxAdvanceDays: 1}},
		{"negative min advance", Config{WorkStartHour: 8, WorkEndHour: 18, SlotDurationMinutes: 60, MinAdvanceDays: -1, MaxAdvanceDays: 1}},
		{"max before min", Config{WorkStartHour: 8, WorkEndHour: 18, SlotDurationMinutes: 60, MinAdvanceDays: 5, MaxAdvanceDays: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.cfg); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("New() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestGenerateDailySlots(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	want := []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}
	if got := e.GenerateDailySlots(); !reflect.DeepEqual(got, want) {
		t.Fatalf("GenerateDailySlots() = %v, want %v", got, want)
	}

	// callers may scribble on the result
	got := e.GenerateDailySlots()
	got[0] = "xx"
	if e.GenerateDailySlots()[0] != "08:00" {
		t.Fatal("GenerateDailySlots leaked internal state")
	}
}

func TestGenerateDailySlotsLength(t *testing.T) {
	for _, dur := range []int{1, 2, 3, 4, 5, 6, 10, 12, 15, 20, 30, 60} {
		for _, hours := range [][2]int{{0, 24}, {8, 18}, {9, 10}, {6, 23}} {
			cfg := Config{WorkStartHour: hours[0], WorkEndHour: hours[1], SlotDurationMinutes: dur, MaxAdvanceDays: 10}
			e := newTestEngine(t, cfg)
			want := (hours[1] - hours[0]) * 60 / dur
			slots := e.GenerateDailySlots()
			if len(slots) != want {
				t.Fatalf("dur=%d hours=%v: len = %d, want %d", dur, hours, len(slots), want)
			}
			if slots[0] != Label(hours[0]*60) {
				t.Fatalf("dur=%d hours=%v: first slot %s", dur, hours, slots[0])
			}
		}
	}
}

func TestHalfHourGrid(t *testing.T) {
	e := newTestEngine(t, Config{WorkStartHour: 9, WorkEndHour: 11, SlotDurationMinutes: 30, MaxAdvanceDays: 5})
	want := []string{"09:00", "09:30", "10:00", "10:30"}
	if got := e.GenerateDailySlots(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAvailableSlotsNoReservations(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	if got := e.AvailableSlots(day("2026-10-25"), nil); !reflect.DeepEqual(got, e.GenerateDailySlots()) {
		t.Fatalf("AvailableSlots(no reservations) = %v", got)
	}
}

func TestAvailableSlotsRemovesBookedSlot(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	d := day("2026-10-25")
	got := e.AvailableSlots(d, []model.Reservation{booking("2026-10-25", "10:00", model.StatusPending)})
	want := []string{"08:00", "09:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AvailableSlots = %v, want %v", got, want)
	}
}

func TestAvailableSlotsFullDay(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	d := day("2026-10-25")
	got := e.AvailableSlots(d, []model.Reservation{booking("2026-10-25", model.FullDaySlot, model.StatusConfirmed)})
	if len(got) != 0 {
		t.Fatalf("full day reservation left %v available", got)
	}
}

func TestCancelledAndRejectedDoNotOccupy(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	d := day("2026-10-25")
	rs := []model.Reservation{
		booking("2026-10-25", "10:00", model.StatusCancelled),
		booking("2026-10-25", model.FullDaySlot, model.StatusRejected),
	}
	if got := e.AvailableSlots(d, rs); len(got) != 10 {
		t.Fatalf("inactive reservations occupied slots: %v", got)
	}
	if !e.IsDayEntirelyFree(d, rs) {
		t.Fatal("day with only inactive reservations should be entirely free")
	}
}

func TestMalformedLabelsAreIgnored(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	d := day("2026-10-25")
	rs := []model.Reservation{
		booking("2026-10-25", "lunchtime", model.StatusPending),
		booking("2026-10-25", "25:00", model.StatusPending),
		booking("2026-10-25", "10:15", model.StatusPending), // off grid
		booking("2026-10-25", "", model.StatusConfirmed),
		booking("2026-10-25", "9:00", model.StatusConfirmed), // legacy unpadded
	}
	got := e.AvailableSlots(d, rs)
	if len(got) != 9 || got[0] != "08:00" || got[1] != "10:00" {
		t.Fatalf("AvailableSlots = %v", got)
	}
}

func TestOccupiedSlots(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	occ := e.OccupiedSlots([]model.Reservation{
		booking("2026-10-25", "10:00", model.StatusPending),
		booking("2026-10-25", "14:00", model.StatusConfirmed),
		booking("2026-10-25", "15:00", model.StatusCancelled),
	})
	if !occ["10:00"] || !occ["14:00"] || occ["15:00"] || len(occ) != 2 {
		t.Fatalf("OccupiedSlots = %v", occ)
	}

	full := e.OccupiedSlots([]model.Reservation{booking("2026-10-25", "full day", model.StatusPending)})
	if len(full) != 10 {
		t.Fatalf("full day occupied %d slots, want 10", len(full))
	}
}

func TestReservationsOnOtherDatesIgnored(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	rs := []model.Reservation{booking("2026-10-26", model.FullDaySlot, model.StatusConfirmed)}
	if !e.IsDayEntirelyFree(day("2026-10-25"), rs) {
		t.Fatal("a reservation on another date blocked the day")
	}
}

func TestOutOfRangeDatesHaveNoAvailability(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	for _, s := range []string{"2026-10-17", "2026-10-18", "2026-10-19", "2027-01-17", "2030-01-01"} {
		d := day(s)
		if got := e.AvailableSlots(d, nil); len(got) != 0 {
			t.Errorf("%s: AvailableSlots = %v, want empty", s, got)
		}
		if e.IsDayEntirelyFree(d, nil) {
			t.Errorf("%s: IsDayEntirelyFree = true outside window", s)
		}
		if err := e.ValidateRequest(d, "10:00", nil); !errors.Is(err, ErrDateOutOfRange) {
			t.Errorf("%s: ValidateRequest error = %v, want ErrDateOutOfRange", s, err)
		}
	}
	for _, s := range []string{"2026-10-20", "2026-12-31", "2027-01-16"} {
		if got := e.AvailableSlots(day(s), nil); len(got) != 10 {
			t.Errorf("%s: boundary date has %d slots, want 10", s, len(got))
		}
	}
}

func TestWindowUsesLocation(t *testing.T) {
	// 23:30 UTC on the 18th is already the 19th in Auckland.
	now := time.Date(2026, time.October, 18, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("NZDT", 13*3600)
	e, err := New(DefaultConfig(), WithClock(func() time.Time { return now }), WithLocation(loc))
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Today(); got != day("2026-10-19") {
		t.Fatalf("Today() = %s", got)
	}
	if first, _ := e.Window(); first != day("2026-10-21") {
		t.Fatalf("Window first = %s", first)
	}
}

func TestIsDayEntirelyFreeMatchesAvailableCount(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	inputs := [][]model.Reservation{
		nil,
		{booking("2026-10-25", "10:00", model.StatusPending)},
		{booking("2026-10-25", "10:00", model.StatusCancelled)},
		{booking("2026-10-25", model.FullDaySlot, model.StatusPending)},
		{booking("2026-10-25", "garbage", model.StatusPending)},
	}
	for _, d := range []model.Date{day("2026-10-25"), day("2026-10-18")} {
		for i, rs := range inputs {
			want := len(e.AvailableSlots(d, rs)) == len(e.GenerateDailySlots())
			if got := e.IsDayEntirelyFree(d, rs); got != want {
				t.Errorf("%s input %d: IsDayEntirelyFree = %v, want %v", d, i, got, want)
			}
		}
	}
}

func TestValidateRequest(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	d := day("2026-10-25")
	booked := []model.Reservation{booking("2026-10-25", "10:00", model.StatusPending)}

	cases := []struct {
		name    string
		slot    string
		rs      []model.Reservation
		wantErr error
	}{
		{"taken slot", "10:00", booked, ErrSlotUnavailable},
		{"free slot", "11:00", booked, nil},
		{"unpadded free slot", "9:00", booked, nil},
		{"off grid", "10:30", nil, ErrSlotUnavailable},
		{"after closing", "18:00", nil, ErrSlotUnavailable},
		{"garbage", "noon", nil, ErrSlotUnavailable},
		{"full day on free day", model.FullDaySlot, nil, nil},
		{"full day on partly booked day", model.FullDaySlot, booked, ErrSlotUnavailable},
		{"slot on full day", "15:00", []model.Reservation{booking("2026-10-25", "Full Day", model.StatusConfirmed)}, ErrSlotUnavailable},
		{"slot freed by cancellation", "10:00", []model.Reservation{booking("2026-10-25", "10:00", model.StatusCancelled)}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.ValidateRequest(d, tc.slot, tc.rs)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("ValidateRequest(%q) = %v, want nil", tc.slot, err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("ValidateRequest(%q) = %v, want %v", tc.slot, err, tc.wantErr)
			}
		})
	}
}

func TestWorkedExample(t *testing.T) {
	e := newTestEngine(t, Config{WorkStartHour: 8, WorkEndHour: 18, SlotDurationMinutes: 60, MinAdvanceDays: 2, MaxAdvanceDays: 90})
	d := day("2026-11-02")
	if n := len(e.GenerateDailySlots()); n != 10 {
		t.Fatalf("slots = %d, want 10", n)
	}
	var rs []model.Reservation
	if err := e.ValidateRequest(d, "10:00", rs); err != nil {
		t.Fatalf("first booking of 10:00: %v", err)
	}
	rs = append(rs, booking("2026-11-02", "10:00", model.StatusPending))
	for _, s := range e.AvailableSlots(d, rs) {
		if s == "10:00" {
			t.Fatal("10:00 still available after booking")
		}
	}
	if err := e.ValidateRequest(d, "10:00", rs); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("second booking of 10:00: %v, want ErrSlotUnavailable", err)
	}
	if err := e.ValidateRequest(d, "11:00", rs); err != nil {
		t.Fatalf("booking 11:00: %v", err)
	}
}

func TestAvailableSlotsIsIdempotentAndConcurrent(t *testing.T) {
	e := newTestEngine(t, DefaultConfig())
	d := day("2026-10-25")
	rs := []model.Reservation{
		booking("2026-10-25", "08:00", model.StatusPending),
		booking("2026-10-25", "16:00", model.StatusConfirmed),
	}
	want := e.AvailableSlots(d, rs)

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := e.AvailableSlots(d, rs); !reflect.DeepEqual(got, want) {
				errs <- "mismatch"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Fatal(msg)
	}
}
