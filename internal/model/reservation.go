package model

import (
	"strings"
	"time"
)

// FullDaySlot is the slot value of a reservation that books the whole
// working day.
const FullDaySlot = "Full Day"

// IsFullDay reports whether a stored slot label names the full day.
// Legacy rows spell it in several ways ("full day", "Full-Day").
func IsFullDay(slot string) bool {
	s := strings.ToLower(strings.TrimSpace(slot))
	s = strings.ReplaceAll(s, "-", " ")
	return s == "full day"
}

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusRejected  ReservationStatus = "rejected"
)

// ParseStatus normalizes a status string.  ok is false for unknown values.
func ParseStatus(s string) (ReservationStatus, bool) {
	st := ReservationStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRejected:
		return st, true
	}
	return "", false
}

// Occupying reports whether a reservation in this state holds its slot.
func (s ReservationStatus) Occupying() bool {
	return s != StatusCancelled && s != StatusRejected
}

// CanTransition reports whether from -> to is an allowed status change.
// Only pending reservations move; every other state is terminal.
func CanTransition(from, to ReservationStatus) bool {
	if from != StatusPending {
		return false
	}
	switch to {
	case StatusConfirmed, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// Reservation is a booking of one slot (or the full day) on an event
// date.  Contact and event fields come from the booking form and do not
// influence availability.
//
// Fields:
//  ID              – opaque identifier (UUID), immutable.
//  UserID          – owner of the reservation.
//  Date            – event date.
//  Slot            – "HH:MM" grid label or FullDaySlot.
//  Status          – lifecycle state.
//  FullName, Email, Phone – contact details captured at booking time.
//  EventType       – wedding, birthday, corporate, ...
//  GuestCount      – expected guests.
//  EventLocation   – venue or address.
//  SpecialRequests – free text from the customer.
//  AdminNote       – reason recorded by an admin on confirm/reject.
type Reservation struct {
	ID              string            `json:"id" bson:"id"`
	UserID          uint64            `json:"user_id" bson:"user_id"`
	Date            Date              `json:"date" bson:"-"`
	Slot            string            `json:"slot" bson:"slot"`
	Status          ReservationStatus `json:"status" bson:"status"`
	FullName        string            `json:"full_name" bson:"full_name"`
	Email           string            `json:"email" bson:"email"`
	Phone           string            `json:"phone" bson:"phone"`
	EventType       string            `json:"event_type" bson:"event_type"`
	GuestCount      int               `json:"guest_count" bson:"guest_count"`
	EventLocation   string            `json:"event_location" bson:"event_location"`
	SpecialRequests string            `json:"special_requests,omitempty" bson:"special_requests,omitempty"`
	AdminNote       string            `json:"admin_note,omitempty" bson:"admin_note,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

// Active reports whether r currently occupies its slot.
func (r Reservation) Active() bool { return r.Status.Occupying() }

// EventTypes lists the event categories offered on the booking form.
var EventTypes = []string{"wedding", "birthday", "corporate", "baby-shower", "graduation", "other"}
