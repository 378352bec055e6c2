package availability

import "errors"

var (
	// ErrInvalidConfiguration is returned by New when the slot grid cannot
	// be built from the given hours and duration.
	ErrInvalidConfiguration = errors.New("invalid availability configuration")
	// ErrDateOutOfRange is returned when a date falls outside the advance
	// booking window.
	ErrDateOutOfRange = errors.New("date outside booking window")
	// ErrSlotUnavailable is returned when the requested slot (or full day)
	// is not free.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrMalformedReservation marks a stored slot label that is not on the
	// grid.  Such records are skipped when computing occupancy.
	ErrMalformedReservation = errors.New("malformed reservation slot")
)
