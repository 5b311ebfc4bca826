package domain

import (
	"context"
	"time"

	"github.com/iliyamo/conference-registration/internal/event"
)

// reservationAutoExpiration is how long a placed order may sit unconfirmed
// before its reservation is released.  The saga schedules its timer with a
// one minute grace on top of this.
const reservationAutoExpiration = 15 * time.Minute

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated              OrderStatus = "created"
	OrderStatusPartiallyReserved    OrderStatus = "partially_reserved"
	OrderStatusReservationCompleted OrderStatus = "reservation_completed"
	OrderStatusConfirmed            OrderStatus = "confirmed"
	OrderStatusExpired              OrderStatus = "expired"
)

// OrderTotals is the priced breakdown of an order, produced by the pricing
// collaborator.
type OrderTotals struct {
	Lines          []event.PricedLine
	TotalCents     int64
	IsFreeOfCharge bool
}

// PricingService computes the totals for a seat selection.  It is passed
// into the operations that need it rather than held by the aggregate, so
// aggregate state stays a pure fold over its events.
type PricingService interface {
	ComputeTotals(ctx context.Context, conferenceID string, seats []event.SeatQuantity) (OrderTotals, error)
}

// Order is the seat-selection, pricing and confirmation lifecycle of a
// single registration order.
type Order struct {
	Aggregate

	conferenceID       string
	items              []event.SeatQuantity
	status             OrderStatus
	registrant         *event.Attendee
	reserved           []event.SeatQuantity
	reservationVersion int
	expiration         time.Time
}

// NewOrder places a new order.  The seat selection must contain at least
// one line with a positive quantity.
func NewOrder(id, conferenceID string, items []event.SeatQuantity) (*Order, error) {
	if !validSeatLines(items) {
		return nil, ErrInvalidOrderLines
	}
	o := &Order{Aggregate: newAggregate(id)}
	o.emit(event.OrderPlaced{
		ConferenceID:              conferenceID,
		Seats:                     copySeats(items),
		ReservationAutoExpiration: time.Now().UTC().Add(reservationAutoExpiration),
	})
	return o, nil
}

// NewOrderFromHistory reconstructs an order by folding its event stream.
func NewOrderFromHistory(id string, history []event.Versioned) *Order {
	o := &Order{Aggregate: newAggregate(id)}
	o.restore(o.apply, history)
	return o
}

// ConferenceID returns the conference the order registers for.
func (o *Order) ConferenceID() string { return o.conferenceID }

// Status returns the current lifecycle state.
func (o *Order) Status() OrderStatus { return o.status }

// UpdateSeats replaces the order's seat selection.  Only legal while the
// order is still open.
func (o *Order) UpdateSeats(items []event.SeatQuantity) error {
	if o.status == OrderStatusConfirmed || o.status == OrderStatusExpired {
		return ErrOrderClosed
	}
	if !validSeatLines(items) {
		return ErrInvalidOrderLines
	}
	o.emit(event.OrderUpdated{Seats: copySeats(items)})
	return nil
}

// MarkAsReserved records the reservation outcome reported by the
// availability aggregate.  If every requested quantity was fully reserved
// the order moves to ReservationCompleted, otherwise to PartiallyReserved.
// Totals are computed from the actually-reserved seats.
//
// reservationVersion must be the version of the SeatsReserved event being
// acknowledged; an equal-or-lower version than the one already recorded is
// rejected with ErrStaleReservation so re-delivered or out-of-order
// acknowledgments cannot roll the order back.
func (o *Order) MarkAsReserved(ctx context.Context, pricing PricingService, expiration time.Time, reserved []event.SeatQuantity, reservationVersion int) error {
	if o.status == OrderStatusConfirmed || o.status == OrderStatusExpired {
		return ErrOrderClosed
	}
	if reservationVersion <= o.reservationVersion {
		return ErrStaleReservation
	}
	totals, err := pricing.ComputeTotals(ctx, o.conferenceID, reserved)
	if err != nil {
		return err
	}
	if o.fullyReserved(reserved) {
		o.emit(event.OrderReservationCompleted{
			ReservationExpiration: expiration,
			Seats:                 copySeats(reserved),
			ReservationVersion:    reservationVersion,
		})
	} else {
		o.emit(event.OrderPartiallyReserved{
			ReservationExpiration: expiration,
			Seats:                 copySeats(reserved),
			ReservationVersion:    reservationVersion,
		})
	}
	o.emit(event.OrderTotalsCalculated{
		Lines:          totals.Lines,
		TotalCents:     totals.TotalCents,
		IsFreeOfCharge: totals.IsFreeOfCharge,
	})
	return nil
}

// AssignRegistrant sets the registrant contact details.
func (o *Order) AssignRegistrant(firstName, lastName, email string) error {
	if !validEmail(email) {
		return ErrInvalidEmail
	}
	o.emit(event.OrderRegistrantAssigned{FirstName: firstName, LastName: lastName, Email: email})
	return nil
}

// Confirm moves the order to its terminal confirmed state.  Confirming an
// already-confirmed order is a no-op so the command can be re-delivered
// safely.
func (o *Order) Confirm() error {
	switch o.status {
	case OrderStatusConfirmed:
		return nil
	case OrderStatusPartiallyReserved, OrderStatusReservationCompleted:
		o.emit(event.OrderConfirmed{})
		return nil
	case OrderStatusExpired:
		return ErrOrderClosed
	default:
		return ErrOrderNotReserved
	}
}

// Expire rejects the order after its reservation window elapsed.
// Expiring an already-expired order is a no-op; the reject command is
// delivered at least once.
func (o *Order) Expire() error {
	switch o.status {
	case OrderStatusExpired:
		return nil
	case OrderStatusConfirmed:
		return ErrOrderClosed
	default:
		o.emit(event.OrderExpired{})
		return nil
	}
}

// CreateSeatAssignments builds the seat assignments aggregate for a
// confirmed order, one slot per reserved seat unit.
func (o *Order) CreateSeatAssignments(id string) (*SeatAssignments, error) {
	if o.status != OrderStatusConfirmed {
		return nil, ErrOrderNotConfirmed
	}
	return newSeatAssignments(id, o.id, o.reserved), nil
}

// fullyReserved reports whether every requested quantity was granted.
// Both sides are summed per seat type so a request that repeats a type
// across lines is compared against the total, not line by line.
func (o *Order) fullyReserved(reserved []event.SeatQuantity) bool {
	granted := make(map[string]int, len(reserved))
	for _, s := range reserved {
		granted[s.SeatType] += s.Quantity
	}
	requested := make(map[string]int, len(o.items))
	for _, s := range o.items {
		requested[s.SeatType] += s.Quantity
	}
	for seatType, want := range requested {
		if granted[seatType] < want {
			return false
		}
	}
	return true
}

func (o *Order) emit(p event.Payload) {
	o.apply(p)
	o.record(p)
}

func (o *Order) apply(p event.Payload) {
	switch e := p.(type) {
	case event.OrderPlaced:
		o.conferenceID = e.ConferenceID
		o.items = copySeats(e.Seats)
		o.status = OrderStatusCreated
		o.expiration = e.ReservationAutoExpiration
	case event.OrderUpdated:
		o.items = copySeats(e.Seats)
	case event.OrderPartiallyReserved:
		o.status = OrderStatusPartiallyReserved
		o.reserved = copySeats(e.Seats)
		o.reservationVersion = e.ReservationVersion
		o.expiration = e.ReservationExpiration
	case event.OrderReservationCompleted:
		o.status = OrderStatusReservationCompleted
		o.reserved = copySeats(e.Seats)
		o.reservationVersion = e.ReservationVersion
		o.expiration = e.ReservationExpiration
	case event.OrderRegistrantAssigned:
		o.registrant = &event.Attendee{FirstName: e.FirstName, LastName: e.LastName, Email: e.Email}
	case event.OrderConfirmed:
		o.status = OrderStatusConfirmed
	case event.OrderExpired:
		o.status = OrderStatusExpired
	}
}
