// Package command defines the commands consumed by the registration
// workers.  Every command carries a unique id; that id becomes the
// causation id recorded alongside any events the command produces, so a
// stored event can always be traced back to the command that caused it.
package command

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/conference-registration/internal/event"
)

// Kind identifies the type of a command.  The prefix names the aggregate
// the command targets and selects the queue it is routed to.
type Kind string

// Order aggregate commands.
const (
	KindRegisterToConference    Kind = "order.register"
	KindMarkSeatsAsReserved     Kind = "order.mark_reserved"
	KindRejectOrder             Kind = "order.reject"
	KindAssignRegistrantDetails Kind = "order.assign_registrant"
	KindConfirmOrder            Kind = "order.confirm"
)

// Seats availability aggregate commands.
const (
	KindMakeSeatReservation   Kind = "availability.make_reservation"
	KindCancelSeatReservation Kind = "availability.cancel_reservation"
	KindCommitSeatReservation Kind = "availability.commit_reservation"
	KindAddSeats              Kind = "availability.add_seats"
	KindRemoveSeats           Kind = "availability.remove_seats"
)

// Seat assignments aggregate commands.
const (
	KindAssignSeat   Kind = "assignments.assign_seat"
	KindUnassignSeat Kind = "assignments.unassign_seat"
)

// Command is implemented by every command struct.
type Command interface {
	Kind() Kind
	CommandID() string
}

// Header carries the unique command id.  It is embedded by every command.
type Header struct {
	ID string `json:"id"`
}

// CommandID returns the unique id of the command.
func (h Header) CommandID() string { return h.ID }

// RegisterToConference creates an order or replaces the seat selection of
// an existing one.
type RegisterToConference struct {
	Header
	OrderID      string               `json:"order_id"`
	ConferenceID string               `json:"conference_id"`
	Seats        []event.SeatQuantity `json:"seats"`
}

func (RegisterToConference) Kind() Kind { return KindRegisterToConference }

// MarkSeatsAsReserved tells the order which quantities were actually
// reserved.  ReservationVersion is the version of the SeatsReserved event
// that triggered the command; the order rejects stale re-deliveries by
// comparing it against the last version it has applied.
type MarkSeatsAsReserved struct {
	Header
	OrderID            string               `json:"order_id"`
	Seats              []event.SeatQuantity `json:"seats"`
	Expiration         time.Time            `json:"expiration"`
	ReservationVersion int                  `json:"reservation_version"`
}

func (MarkSeatsAsReserved) Kind() Kind { return KindMarkSeatsAsReserved }

// RejectOrder expires an order whose reservation window elapsed.
type RejectOrder struct {
	Header
	OrderID string `json:"order_id"`
}

func (RejectOrder) Kind() Kind { return KindRejectOrder }

// AssignRegistrantDetails sets the registrant contact details on an order.
type AssignRegistrantDetails struct {
	Header
	OrderID   string `json:"order_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (AssignRegistrantDetails) Kind() Kind { return KindAssignRegistrantDetails }

// ConfirmOrder confirms an order whose reservation was acknowledged.
type ConfirmOrder struct {
	Header
	OrderID string `json:"order_id"`
}

func (ConfirmOrder) Kind() Kind { return KindConfirmOrder }

// MakeSeatReservation asks the availability aggregate to reserve seats
// under the given reservation id.  Re-sending with the same id replaces
// the prior pending reservation.
type MakeSeatReservation struct {
	Header
	ConferenceID  string               `json:"conference_id"`
	ReservationID string               `json:"reservation_id"`
	Seats         []event.SeatQuantity `json:"seats"`
}

func (MakeSeatReservation) Kind() Kind { return KindMakeSeatReservation }

// CancelSeatReservation returns a pending reservation to the pool.
type CancelSeatReservation struct {
	Header
	ConferenceID  string `json:"conference_id"`
	ReservationID string `json:"reservation_id"`
}

func (CancelSeatReservation) Kind() Kind { return KindCancelSeatReservation }

// CommitSeatReservation consumes a pending reservation permanently.
type CommitSeatReservation struct {
	Header
	ConferenceID  string `json:"conference_id"`
	ReservationID string `json:"reservation_id"`
}

func (CommitSeatReservation) Kind() Kind { return KindCommitSeatReservation }

// AddSeats grows the remaining pool for a seat type.
type AddSeats struct {
	Header
	ConferenceID string `json:"conference_id"`
	SeatType     string `json:"seat_type"`
	Quantity     int    `json:"quantity"`
}

func (AddSeats) Kind() Kind { return KindAddSeats }

// RemoveSeats shrinks the remaining pool for a seat type.
type RemoveSeats struct {
	Header
	ConferenceID string `json:"conference_id"`
	SeatType     string `json:"seat_type"`
	Quantity     int    `json:"quantity"`
}

func (RemoveSeats) Kind() Kind { return KindRemoveSeats }

// AssignSeat binds an attendee to a slot of a seat assignments aggregate.
type AssignSeat struct {
	Header
	AssignmentsID string         `json:"assignments_id"`
	Position      int            `json:"position"`
	Attendee      event.Attendee `json:"attendee"`
}

func (AssignSeat) Kind() Kind { return KindAssignSeat }

// UnassignSeat clears a slot of a seat assignments aggregate.
type UnassignSeat struct {
	Header
	AssignmentsID string `json:"assignments_id"`
	Position      int    `json:"position"`
}

func (UnassignSeat) Kind() Kind { return KindUnassignSeat }

// Unmarshal decodes a command of the given kind from its JSON form.
func Unmarshal(kind Kind, data []byte) (Command, error) {
	switch kind {
	case KindRegisterToConference:
		var c RegisterToConference
		return c, json.Unmarshal(data, &c)
	case KindMarkSeatsAsReserved:
		var c MarkSeatsAsReserved
		return c, json.Unmarshal(data, &c)
	case KindRejectOrder:
		var c RejectOrder
		return c, json.Unmarshal(data, &c)
	case KindAssignRegistrantDetails:
		var c AssignRegistrantDetails
		return c, json.Unmarshal(data, &c)
	case KindConfirmOrder:
		var c ConfirmOrder
		return c, json.Unmarshal(data, &c)
	case KindMakeSeatReservation:
		var c MakeSeatReservation
		return c, json.Unmarshal(data, &c)
	case KindCancelSeatReservation:
		var c CancelSeatReservation
		return c, json.Unmarshal(data, &c)
	case KindCommitSeatReservation:
		var c CommitSeatReservation
		return c, json.Unmarshal(data, &c)
	case KindAddSeats:
		var c AddSeats
		return c, json.Unmarshal(data, &c)
	case KindRemoveSeats:
		var c RemoveSeats
		return c, json.Unmarshal(data, &c)
	case KindAssignSeat:
		var c AssignSeat
		return c, json.Unmarshal(data, &c)
	case KindUnassignSeat:
		var c UnassignSeat
		return c, json.Unmarshal(data, &c)
	default:
		return nil, fmt.Errorf("command: unknown kind %q", kind)
	}
}
