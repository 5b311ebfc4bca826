// Package domain holds the event-sourced aggregates of the registration
// workflow: Order, SeatsAvailability and SeatAssignments.  An aggregate's
// state is derived solely from its own ordered event stream; command
// methods validate first and emit events only when the whole command is
// legal, so a rejected command never leaves partial state behind.
package domain

import (
	"net/mail"

	"github.com/iliyamo/conference-registration/internal/event"
)

// EventSourced is the persistence contract every aggregate satisfies.  The
// repository appends Pending() to the store on save and clears it after a
// successful append.
type EventSourced interface {
	ID() string
	Version() int
	Pending() []event.Versioned
	ClearPending()
}

// Aggregate is the embedded base tracking identity, version and the
// not-yet-persisted events.  Versions start at 1 for the first event.
type Aggregate struct {
	id      string
	version int
	pending []event.Versioned
}

func newAggregate(id string) Aggregate { return Aggregate{id: id} }

// ID returns the aggregate instance id.
func (a *Aggregate) ID() string { return a.id }

// Version returns the version of the last event applied or recorded.
func (a *Aggregate) Version() int { return a.version }

// Pending returns the events recorded since the last save.
func (a *Aggregate) Pending() []event.Versioned { return a.pending }

// ClearPending drops the pending events after they have been persisted.
func (a *Aggregate) ClearPending() { a.pending = nil }

// record assigns the next version to the payload and buffers it.  The
// caller must have applied the payload to its own state first so that
// replaying the stream reproduces the same state.
func (a *Aggregate) record(p event.Payload) {
	a.version++
	a.pending = append(a.pending, event.Versioned{SourceID: a.id, Version: a.version, Payload: p})
}

// restore folds an ordered history into the aggregate via its apply
// function.  The fold is deterministic: given the same history the
// resulting state is always identical.
func (a *Aggregate) restore(apply func(event.Payload), history []event.Versioned) {
	for _, e := range history {
		apply(e.Payload)
		a.version = e.Version
	}
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}

func validSeatLines(seats []event.SeatQuantity) bool {
	if len(seats) == 0 {
		return false
	}
	for _, s := range seats {
		if s.SeatType == "" || s.Quantity <= 0 {
			return false
		}
	}
	return true
}

func copySeats(seats []event.SeatQuantity) []event.SeatQuantity {
	out := make([]event.SeatQuantity, len(seats))
	copy(out, seats)
	return out
}
