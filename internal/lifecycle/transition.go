// Package lifecycle holds the booking status graph and the engine that
// applies it. Nothing here performs I/O.
package lifecycle

import (
	"fmt"
	"time"

	"cargo-booking/internal/data/entity"
)

// transitions is the complete set of legal status edges.
var transitions = map[entity.BookingStatus][]entity.BookingStatus{
	entity.BookingStatusPending: {
		entity.BookingStatusAccepted,
		entity.BookingStatusRejected,
		entity.BookingStatusCancelled,
	},
	entity.BookingStatusAccepted: {
		entity.BookingStatusInTransit,
	},
	entity.BookingStatusInTransit: {
		entity.BookingStatusCompleted,
	},
}

// CanTransition reports whether from → to is an edge of the graph.
func CanTransition(from, to entity.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s in one step.
func Next(s entity.BookingStatus) []entity.BookingStatus {
	out := make([]entity.BookingStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Engine validates and applies status transitions on booking snapshots.
type Engine struct {
	policy Policy
	now    func() time.Time
}

type EngineOption func(*Engine)

func WithPolicy(p Policy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		policy: OpenPolicy{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Attempt checks that requester owns booking and that the requested
// status is a legal next step, then returns an updated copy. The input
// booking is never modified; persisting the copy is the caller's job.
//
// A nil booking or a booking owned by someone else yields
// ErrBookingNotFound, before any graph check, so callers cannot discover
// other users' bookings.
func (e *Engine) Attempt(booking *entity.Booking, to entity.BookingStatus, requester entity.Identity) (*entity.Booking, error) {
	if booking == nil || booking.UserID != requester.UserID {
		return nil, entity.ErrBookingNotFound
	}

	if !CanTransition(booking.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", entity.ErrInvalidTransition, booking.Status, to)
	}

	if !e.policy.Allows(requester.Role, booking.Status, to) {
		return nil, fmt.Errorf("%w: %s may not request %s", entity.ErrForbiddenTransition, requester.Role, to)
	}

	updated := *booking
	updated.Status = to
	updated.UpdatedAt = e.now()
	return &updated, nil
}

// Replay folds targets over a fresh pending booking status and returns
// the final status, stopping at the first illegal step.
func Replay(targets ...entity.BookingStatus) (entity.BookingStatus, error) {
	status := entity.BookingStatusPending
	for i, to := range targets {
		if !CanTransition(status, to) {
			return status, fmt.Errorf("%w: step %d %s -> %s", entity.ErrInvalidTransition, i, status, to)
		}
		status = to
	}
	return status, nil
}
