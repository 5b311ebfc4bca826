package domain

import "github.com/iliyamo/conference-registration/internal/event"

// SeatAssignment is one assignable slot of a SeatAssignments aggregate.
// Attendee is nil while the slot is unassigned.
type SeatAssignment struct {
	Position int
	SeatType string
	Attendee *event.Attendee
}

// SeatAssignments binds attendees to the seats of a confirmed order.  The
// aggregate is created once by Order.CreateSeatAssignments and mutated
// through AssignSeat and Unassign afterwards.
type SeatAssignments struct {
	Aggregate

	orderID string
	seats   []SeatAssignment
}

// newSeatAssignments expands the reserved quantities into individual
// slots, positions counting from zero.
func newSeatAssignments(id, orderID string, reserved []event.SeatQuantity) *SeatAssignments {
	slots := make([]event.SeatSlot, 0)
	position := 0
	for _, s := range reserved {
		for i := 0; i < s.Quantity; i++ {
			slots = append(slots, event.SeatSlot{Position: position, SeatType: s.SeatType})
			position++
		}
	}
	sa := &SeatAssignments{Aggregate: newAggregate(id)}
	sa.emit(event.SeatAssignmentsCreated{OrderID: orderID, Seats: slots})
	return sa
}

// NewSeatAssignmentsFromHistory reconstructs the aggregate by folding its
// event stream.
func NewSeatAssignmentsFromHistory(id string, history []event.Versioned) *SeatAssignments {
	sa := &SeatAssignments{Aggregate: newAggregate(id)}
	sa.restore(sa.apply, history)
	return sa
}

// OrderID returns the order this aggregate belongs to.
func (sa *SeatAssignments) OrderID() string { return sa.orderID }

// Seats returns the current slots.
func (sa *SeatAssignments) Seats() []SeatAssignment { return sa.seats }

// AssignSeat binds an attendee to the slot at position, replacing any
// attendee already assigned there.
func (sa *SeatAssignments) AssignSeat(position int, attendee event.Attendee) error {
	if position < 0 || position >= len(sa.seats) {
		return ErrInvalidPosition
	}
	if !validEmail(attendee.Email) {
		return ErrInvalidEmail
	}
	sa.emit(event.SeatAssigned{
		Position: position,
		SeatType: sa.seats[position].SeatType,
		Attendee: attendee,
	})
	return nil
}

// Unassign clears the slot at position.  Clearing an already-empty slot
// is a no-op.
func (sa *SeatAssignments) Unassign(position int) error {
	if position < 0 || position >= len(sa.seats) {
		return ErrInvalidPosition
	}
	if sa.seats[position].Attendee == nil {
		return nil
	}
	sa.emit(event.SeatUnassigned{Position: position})
	return nil
}

func (sa *SeatAssignments) emit(p event.Payload) {
	sa.apply(p)
	sa.record(p)
}

func (sa *SeatAssignments) apply(p event.Payload) {
	switch e := p.(type) {
	case event.SeatAssignmentsCreated:
		sa.orderID = e.OrderID
		sa.seats = make([]SeatAssignment, len(e.Seats))
		for i, slot := range e.Seats {
			sa.seats[i] = SeatAssignment{Position: slot.Position, SeatType: slot.SeatType}
		}
	case event.SeatAssigned:
		if e.Position >= 0 && e.Position < len(sa.seats) {
			attendee := e.Attendee
			sa.seats[e.Position].Attendee = &attendee
		}
	case event.SeatUnassigned:
		if e.Position >= 0 && e.Position < len(sa.seats) {
			sa.seats[e.Position].Attendee = nil
		}
	}
}
