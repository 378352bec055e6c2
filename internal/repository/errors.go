// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// the record is no longer in the expected state, such as confirming a
// reservation that was already cancelled. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrReservationNotFound is returned when no reservation has the given id.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrReviewNotFound is returned when no review has the given id.
var ErrReviewNotFound = errors.New("review not found")

// ErrSlotTaken is returned by InsertIfFree when the conflict check or a
// uniqueness constraint rejects the insert.
var ErrSlotTaken = errors.New("slot taken")

// ErrContention is returned when a concurrent writer aborted the
// transaction (deadlock, lock timeout, optimistic version mismatch).
// The operation may be retried.
var ErrContention = errors.New("concurrent modification")
