package event

import "time"

// SeatQuantity pairs a seat type with a number of seats.  It is used both
// for requested and actually-reserved quantities.
type SeatQuantity struct {
	SeatType string `json:"seat_type"`
	Quantity int    `json:"quantity"`
}

// Attendee holds the personal details bound to a registrant or an assigned
// seat.
type Attendee struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// PricedLine is one priced row of an order total.
type PricedLine struct {
	SeatType       string `json:"seat_type"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// SeatSlot is one assignable position inside a seat assignments aggregate.
type SeatSlot struct {
	Position int    `json:"position"`
	SeatType string `json:"seat_type"`
}

// OrderPlaced records the creation of an order with its initial seat
// selection.  ReservationAutoExpiration tells the saga when the
// reservation must be released if the order is never confirmed.
type OrderPlaced struct {
	ConferenceID              string         `json:"conference_id"`
	Seats                     []SeatQuantity `json:"seats"`
	ReservationAutoExpiration time.Time      `json:"reservation_auto_expiration"`
}

func (OrderPlaced) Kind() Kind { return KindOrderPlaced }

// OrderUpdated records a replacement of the order's seat selection.
type OrderUpdated struct {
	Seats []SeatQuantity `json:"seats"`
}

func (OrderUpdated) Kind() Kind { return KindOrderUpdated }

// OrderPartiallyReserved records that only part of the requested seats
// could be reserved.  Seats carries the actually-reserved quantities.
// ReservationVersion is the version of the SeatsReserved event this
// acknowledgment answers; it lets the order reject stale re-deliveries.
type OrderPartiallyReserved struct {
	ReservationExpiration time.Time      `json:"reservation_expiration"`
	Seats                 []SeatQuantity `json:"seats"`
	ReservationVersion    int            `json:"reservation_version"`
}

func (OrderPartiallyReserved) Kind() Kind { return KindOrderPartiallyReserved }

// OrderReservationCompleted records that every requested seat was reserved.
type OrderReservationCompleted struct {
	ReservationExpiration time.Time      `json:"reservation_expiration"`
	Seats                 []SeatQuantity `json:"seats"`
	ReservationVersion    int            `json:"reservation_version"`
}

func (OrderReservationCompleted) Kind() Kind { return KindOrderReservationCompleted }

// OrderRegistrantAssigned records the registrant's contact details.
type OrderRegistrantAssigned struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

func (OrderRegistrantAssigned) Kind() Kind { return KindOrderRegistrantAssigned }

// OrderConfirmed records the order reaching its terminal confirmed state.
type OrderConfirmed struct{}

func (OrderConfirmed) Kind() Kind { return KindOrderConfirmed }

// OrderExpired records the order being rejected after its reservation
// window elapsed.
type OrderExpired struct{}

func (OrderExpired) Kind() Kind { return KindOrderExpired }

// OrderTotalsCalculated records the priced totals for the currently
// reserved seats.
type OrderTotalsCalculated struct {
	Lines          []PricedLine `json:"lines"`
	TotalCents     int64        `json:"total_cents"`
	IsFreeOfCharge bool         `json:"is_free_of_charge"`
}

func (OrderTotalsCalculated) Kind() Kind { return KindOrderTotalsCalculated }

// SeatsReserved records the outcome of a reservation request.  Reserved
// carries the quantities actually granted, which may be lower per type
// than what was requested.  AvailabilityChanged carries the net change to
// the remaining pool (negative when seats were taken, positive when a
// shrunk re-reservation returned seats).
type SeatsReserved struct {
	ReservationID       string         `json:"reservation_id"`
	Reserved            []SeatQuantity `json:"reserved"`
	AvailabilityChanged []SeatQuantity `json:"availability_changed"`
}

func (SeatsReserved) Kind() Kind { return KindSeatsReserved }

// SeatsAvailabilityChanged records seats being added to or removed from a
// conference's pool.  Delta is positive for added seats.
type SeatsAvailabilityChanged struct {
	SeatType string `json:"seat_type"`
	Delta    int    `json:"delta"`
}

func (SeatsAvailabilityChanged) Kind() Kind { return KindSeatsAvailabilityChanged }

// SeatsReservationCancelled records a pending reservation being released.
// AvailabilityChanged carries the quantities returned to the pool.
type SeatsReservationCancelled struct {
	ReservationID       string         `json:"reservation_id"`
	AvailabilityChanged []SeatQuantity `json:"availability_changed"`
}

func (SeatsReservationCancelled) Kind() Kind { return KindSeatsReservationCancelled }

// SeatsReservationCommitted records a pending reservation being consumed
// for good; the seats never return to the pool.
type SeatsReservationCommitted struct {
	ReservationID string `json:"reservation_id"`
}

func (SeatsReservationCommitted) Kind() Kind { return KindSeatsReservationCommitted }

// SeatAssignmentsCreated records the creation of the attendee-to-seat
// binding for a confirmed order, one slot per reserved seat unit.
type SeatAssignmentsCreated struct {
	OrderID string     `json:"order_id"`
	Seats   []SeatSlot `json:"seats"`
}

func (SeatAssignmentsCreated) Kind() Kind { return KindSeatAssignmentsCreated }

// SeatAssigned records an attendee being bound to a slot, replacing any
// previous attendee at that position.
type SeatAssigned struct {
	Position int      `json:"position"`
	SeatType string   `json:"seat_type"`
	Attendee Attendee `json:"attendee"`
}

func (SeatAssigned) Kind() Kind { return KindSeatAssigned }

// SeatUnassigned records a slot being cleared.
type SeatUnassigned struct {
	Position int `json:"position"`
}

func (SeatUnassigned) Kind() Kind { return KindSeatUnassigned }

// PaymentCompleted is the payments collaborator's notification that the
// order was paid.  SourceID on the envelope is the order id.
type PaymentCompleted struct {
	OrderID string `json:"order_id"`
}

func (PaymentCompleted) Kind() Kind { return KindPaymentCompleted }
