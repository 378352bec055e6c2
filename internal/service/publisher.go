package service

import (
	"context"

	"github.com/iliyamo/bakery-bookings/internal/queue"
)

// EventPublisher delivers reservation lifecycle events.  Publish failures
// never fail the originating request.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// NopPublisher drops every event.  Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ReservationEvent) error { return nil }
