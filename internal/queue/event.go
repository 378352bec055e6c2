// Package queue carries reservation events over RabbitMQ: the payload
// type, a publisher with a long-lived connection and the consumer that
// writes the bakery's booking log.
package queue

import (
	"time"

	"github.com/iliyamo/bakery-bookings/internal/model"
)

// Event types.
const (
	EventCreated   = "reservation.created"
	EventConfirmed = "reservation.confirmed"
	EventRejected  = "reservation.rejected"
	EventCancelled = "reservation.cancelled"
)

// ReservationEvent is published on every reservation state change.  It
// holds enough for consumers to log or notify without a database read.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID string `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	Date          string `json:"date"`
	Slot          string `json:"slot"`
	EventType     string `json:"event_type"`
	Status        string `json:"status"`
	Note          string `json:"note,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// NewReservationEvent snapshots r under the given event type.
func NewReservationEvent(typ string, r model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          typ,
		ReservationID: r.ID,
		UserID:        r.UserID,
		Date:          r.Date.String(),
		Slot:          r.Slot,
		EventType:     r.EventType,
		Status:        string(r.Status),
		Note:          r.AdminNote,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
