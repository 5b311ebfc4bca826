// Package event defines the versioned events emitted by the registration
// aggregates.  An event is an immutable fact about one aggregate instance;
// events for a single instance are totally ordered by their version, which
// starts at 1 and increments with every emitted event.  That ordering is
// the only consistency mechanism that crosses process boundaries, so every
// consumer must check it before applying an event.
package event

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the type of an event.  The string doubles as the routing
// key used when the event is published on the broker.
type Kind string

// Order aggregate events.
const (
	KindOrderPlaced               Kind = "order.placed"
	KindOrderUpdated              Kind = "order.updated"
	KindOrderPartiallyReserved    Kind = "order.partially_reserved"
	KindOrderReservationCompleted Kind = "order.reservation_completed"
	KindOrderRegistrantAssigned   Kind = "order.registrant_assigned"
	KindOrderConfirmed            Kind = "order.confirmed"
	KindOrderExpired              Kind = "order.expired"
	KindOrderTotalsCalculated     Kind = "order.totals_calculated"
)

// Seats availability aggregate events.
const (
	KindSeatsReserved             Kind = "availability.seats_reserved"
	KindSeatsAvailabilityChanged  Kind = "availability.seats_changed"
	KindSeatsReservationCancelled Kind = "availability.reservation_cancelled"
	KindSeatsReservationCommitted Kind = "availability.reservation_committed"
)

// Seat assignments aggregate events.
const (
	KindSeatAssignmentsCreated Kind = "assignments.created"
	KindSeatAssigned           Kind = "assignments.seat_assigned"
	KindSeatUnassigned         Kind = "assignments.seat_unassigned"
)

// KindPaymentCompleted is emitted by the payments collaborator, not by an
// aggregate in this service; the saga consumes it to confirm the order.
const KindPaymentCompleted Kind = "payment.completed"

// Aggregate type names used to partition event streams in the store.
const (
	AggregateOrder           = "Order"
	AggregateAvailability    = "SeatsAvailability"
	AggregateSeatAssignments = "SeatAssignments"

	// AggregatePayment labels the externally sourced payment events; they
	// pass through the broker but are never stored as a local stream.
	AggregatePayment = "Payment"
)

// Payload is implemented by every event body.  Kind() must be constant for
// a given concrete type.
type Payload interface {
	Kind() Kind
}

// Versioned wraps a payload with the identity and version of the source
// aggregate.  Version is assigned by the aggregate when the event is
// recorded, before the event ever leaves the process.
type Versioned struct {
	SourceID string
	Version  int
	Payload  Payload
}

// Unmarshal decodes an event payload of the given kind from its JSON form.
// Unknown kinds are an error: the store must never yield an event this
// process cannot replay.
func Unmarshal(kind Kind, data []byte) (Payload, error) {
	switch kind {
	case KindOrderPlaced:
		var p OrderPlaced
		return p, json.Unmarshal(data, &p)
	case KindOrderUpdated:
		var p OrderUpdated
		return p, json.Unmarshal(data, &p)
	case KindOrderPartiallyReserved:
		var p OrderPartiallyReserved
		return p, json.Unmarshal(data, &p)
	case KindOrderReservationCompleted:
		var p OrderReservationCompleted
		return p, json.Unmarshal(data, &p)
	case KindOrderRegistrantAssigned:
		var p OrderRegistrantAssigned
		return p, json.Unmarshal(data, &p)
	case KindOrderConfirmed:
		var p OrderConfirmed
		return p, json.Unmarshal(data, &p)
	case KindOrderExpired:
		var p OrderExpired
		return p, json.Unmarshal(data, &p)
	case KindOrderTotalsCalculated:
		var p OrderTotalsCalculated
		return p, json.Unmarshal(data, &p)
	case KindSeatsReserved:
		var p SeatsReserved
		return p, json.Unmarshal(data, &p)
	case KindSeatsAvailabilityChanged:
		var p SeatsAvailabilityChanged
		return p, json.Unmarshal(data, &p)
	case KindSeatsReservationCancelled:
		var p SeatsReservationCancelled
		return p, json.Unmarshal(data, &p)
	case KindSeatsReservationCommitted:
		var p SeatsReservationCommitted
		return p, json.Unmarshal(data, &p)
	case KindSeatAssignmentsCreated:
		var p SeatAssignmentsCreated
		return p, json.Unmarshal(data, &p)
	case KindSeatAssigned:
		var p SeatAssigned
		return p, json.Unmarshal(data, &p)
	case KindSeatUnassigned:
		var p SeatUnassigned
		return p, json.Unmarshal(data, &p)
	case KindPaymentCompleted:
		var p PaymentCompleted
		return p, json.Unmarshal(data, &p)
	default:
		return nil, fmt.Errorf("event: unknown kind %q", kind)
	}
}
