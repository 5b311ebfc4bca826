package domain

import "github.com/iliyamo/conference-registration/internal/event"

// SeatsAvailability is the per-conference seat inventory.  There is one
// instance per conference, keyed by the conference id.  Reservations are
// best effort: a request is satisfied up to the remaining quantity per
// seat type and never blocks or queues.
//
// Invariant: remaining never goes below zero, and for every seat type the
// seats still pending plus the seats committed plus remaining equals the
// seats ever added minus the seats ever removed.
type SeatsAvailability struct {
	Aggregate

	remaining map[string]int
	pending   map[string][]event.SeatQuantity
}

// NewSeatsAvailability creates an empty inventory for a conference.  The
// instance only starts to exist in the store once its first event is
// saved.
func NewSeatsAvailability(conferenceID string) *SeatsAvailability {
	return &SeatsAvailability{
		Aggregate: newAggregate(conferenceID),
		remaining: make(map[string]int),
		pending:   make(map[string][]event.SeatQuantity),
	}
}

// NewSeatsAvailabilityFromHistory reconstructs the inventory by folding
// its event stream.
func NewSeatsAvailabilityFromHistory(id string, history []event.Versioned) *SeatsAvailability {
	a := NewSeatsAvailability(id)
	a.restore(a.apply, history)
	return a
}

// Remaining returns the currently unreserved quantity for a seat type.
func (a *SeatsAvailability) Remaining(seatType string) int { return a.remaining[seatType] }

// AddSeats grows the remaining pool for a seat type.
func (a *SeatsAvailability) AddSeats(seatType string, quantity int) error {
	if seatType == "" || quantity <= 0 {
		return ErrInvalidQuantity
	}
	a.emit(event.SeatsAvailabilityChanged{SeatType: seatType, Delta: quantity})
	return nil
}

// RemoveSeats shrinks the remaining pool for a seat type.  Seats that are
// pending-reserved cannot be removed.
func (a *SeatsAvailability) RemoveSeats(seatType string, quantity int) error {
	if seatType == "" || quantity <= 0 {
		return ErrInvalidQuantity
	}
	if a.remaining[seatType] < quantity {
		return ErrInsufficientInventory
	}
	a.emit(event.SeatsAvailabilityChanged{SeatType: seatType, Delta: -quantity})
	return nil
}

// MakeReservation reserves up to the requested quantity per seat type and
// records the grant under the reservation id, replacing any prior pending
// reservation for that id.  Seats already pending under the same id are
// reusable, so repeating or updating a request only adjusts the
// difference.  The emitted SeatsReserved event carries the quantities
// actually granted; the caller must inspect them to learn about
// shortfalls.
func (a *SeatsAvailability) MakeReservation(reservationID string, wanted []event.SeatQuantity) error {
	if !validSeatLines(wanted) {
		return ErrInvalidOrderLines
	}
	// Collapse repeated seat types first: a request like [{A,3},{A,3}]
	// asks for six seats of A and must be granted against the pool once,
	// not once per line.
	types := make([]string, 0, len(wanted))
	want := make(map[string]int, len(wanted))
	for _, s := range wanted {
		if _, ok := want[s.SeatType]; !ok {
			types = append(types, s.SeatType)
		}
		want[s.SeatType] += s.Quantity
	}

	existing := make(map[string]int)
	for _, s := range a.pending[reservationID] {
		existing[s.SeatType] += s.Quantity
	}

	reserved := make([]event.SeatQuantity, 0, len(types))
	changed := make([]event.SeatQuantity, 0, len(types))
	for _, seatType := range types {
		held := existing[seatType]
		available := a.remaining[seatType] + held
		got := want[seatType]
		if got > available {
			got = available
		}
		reserved = append(reserved, event.SeatQuantity{SeatType: seatType, Quantity: got})
		if diff := got - held; diff != 0 {
			changed = append(changed, event.SeatQuantity{SeatType: seatType, Quantity: -diff})
		}
		delete(existing, seatType)
	}
	// Seat types held by the prior pending reservation but absent from the
	// new request go back to the pool.
	for seatType, held := range existing {
		if held > 0 {
			changed = append(changed, event.SeatQuantity{SeatType: seatType, Quantity: held})
		}
	}

	a.emit(event.SeatsReserved{
		ReservationID:       reservationID,
		Reserved:            reserved,
		AvailabilityChanged: changed,
	})
	return nil
}

// CancelReservation returns every seat recorded under the pending
// reservation to the pool.  Unknown ids are a no-op: cancel commands are
// delivered at least once and may arrive after the reservation was
// already cancelled or never existed.
func (a *SeatsAvailability) CancelReservation(reservationID string) error {
	held, ok := a.pending[reservationID]
	if !ok {
		return nil
	}
	returned := make([]event.SeatQuantity, 0, len(held))
	for _, s := range held {
		if s.Quantity > 0 {
			returned = append(returned, s)
		}
	}
	a.emit(event.SeatsReservationCancelled{ReservationID: reservationID, AvailabilityChanged: returned})
	return nil
}

// CommitReservation consumes the pending reservation for good: the record
// is dropped and the seats never return to the pool.  Unknown ids are a
// no-op for the same redelivery reason as CancelReservation.
func (a *SeatsAvailability) CommitReservation(reservationID string) error {
	if _, ok := a.pending[reservationID]; !ok {
		return nil
	}
	a.emit(event.SeatsReservationCommitted{ReservationID: reservationID})
	return nil
}

func (a *SeatsAvailability) emit(p event.Payload) {
	a.apply(p)
	a.record(p)
}

func (a *SeatsAvailability) apply(p event.Payload) {
	switch e := p.(type) {
	case event.SeatsAvailabilityChanged:
		a.remaining[e.SeatType] += e.Delta
	case event.SeatsReserved:
		for _, c := range e.AvailabilityChanged {
			a.remaining[c.SeatType] += c.Quantity
		}
		a.pending[e.ReservationID] = copySeats(e.Reserved)
	case event.SeatsReservationCancelled:
		for _, c := range e.AvailabilityChanged {
			a.remaining[c.SeatType] += c.Quantity
		}
		delete(a.pending, e.ReservationID)
	case event.SeatsReservationCommitted:
		delete(a.pending, e.ReservationID)
	}
}
