package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2026-12-30")
	if err != nil {
		t.Fatal(err)
	}
	if got := d.AddDays(3).String(); got != "2027-01-02" {
		t.Fatalf("AddDays(3) = %s", got)
	}
	if got := d.AddDays(-30).String(); got != "2026-11-30" {
		t.Fatalf("AddDays(-30) = %s", got)
	}
	leap, _ := ParseDate("2028-02-28")
	if got := leap.AddDays(1).String(); got != "2028-02-29" {
		t.Fatalf("leap day = %s", got)
	}
	if !d.Before(d.AddDays(1)) || !d.After(d.AddDays(-1)) || d.Compare(d) != 0 {
		t.Fatal("comparison helpers disagree")
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2026-13-01", "2026-02-30", "18/10/2026", "2026-1-5"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) succeeded", s)
		}
	}
}

func TestDateJSONAndScan(t *testing.T) {
	type wrap struct {
		D Date `json:"d"`
	}
	b, err := json.Marshal(wrap{D: Date{2026, time.October, 5}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"2026-10-05"}` {
		t.Fatalf("marshal = %s", b)
	}
	var w wrap
	if err := json.Unmarshal(b, &w); err != nil || w.D != (Date{2026, time.October, 5}) {
		t.Fatalf("unmarshal = %+v, %v", w, err)
	}

	var d Date
	if err := d.Scan(time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)); err != nil || d.String() != "2026-10-05" {
		t.Fatalf("Scan(time) = %s, %v", d, err)
	}
	if err := d.Scan([]byte("2027-01-31")); err != nil || d.String() != "2027-01-31" {
		t.Fatalf("Scan(bytes) = %s, %v", d, err)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("Scan(int) succeeded")
	}
	v, _ := d.Value()
	if v != "2027-01-31" {
		t.Fatalf("Value = %v", v)
	}
}

func TestStatusRules(t *testing.T) {
	if !CanTransition(StatusPending, StatusConfirmed) || !CanTransition(StatusPending, StatusRejected) || !CanTransition(StatusPending, StatusCancelled) {
		t.Fatal("pending must move to confirmed, rejected or cancelled")
	}
	for _, from := range []ReservationStatus{StatusConfirmed, StatusCancelled, StatusRejected} {
		for _, to := range []ReservationStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusRejected} {
			if CanTransition(from, to) {
				t.Errorf("%s -> %s allowed", from, to)
			}
		}
	}
	if StatusCancelled.Occupying() || StatusRejected.Occupying() || !StatusPending.Occupying() || !StatusConfirmed.Occupying() {
		t.Fatal("Occupying disagrees with lifecycle")
	}
	if !IsFullDay("Full-Day") || !IsFullDay(" full day ") || IsFullDay("10:00") {
		t.Fatal("IsFullDay")
	}
}
