package domain

import "errors"

// Sentinel errors returned by aggregate command methods.  Handlers compare
// them with errors.Is to decide between rejecting a command outright and
// acknowledging a harmless duplicate.
var (
	// ErrInvalidOrderLines is returned when a seat selection is empty or
	// contains a line with a missing type or non-positive quantity.
	ErrInvalidOrderLines = errors.New("domain: invalid order lines")

	// ErrInvalidEmail is returned when a registrant or attendee email does
	// not parse as an address.
	ErrInvalidEmail = errors.New("domain: invalid email")

	// ErrOrderClosed is returned when a command targets an order that is
	// already in a terminal state incompatible with the command.
	ErrOrderClosed = errors.New("domain: order closed")

	// ErrOrderNotReserved is returned when Confirm is called before any
	// reservation acknowledgment arrived.
	ErrOrderNotReserved = errors.New("domain: order has no reservation")

	// ErrOrderNotConfirmed is returned when seat assignments are requested
	// for an order that was never confirmed.
	ErrOrderNotConfirmed = errors.New("domain: order not confirmed")

	// ErrStaleReservation is returned when a reservation acknowledgment
	// carries a version at or below the one already recorded.  Consumers
	// treat it as a duplicate: log a warning and acknowledge the message.
	ErrStaleReservation = errors.New("domain: stale reservation acknowledgment")

	// ErrInsufficientInventory is returned when removing seats would drive
	// the remaining pool below zero.
	ErrInsufficientInventory = errors.New("domain: insufficient inventory")

	// ErrInvalidQuantity is returned when an inventory adjustment is not a
	// positive number of seats.
	ErrInvalidQuantity = errors.New("domain: invalid quantity")

	// ErrInvalidPosition is returned when a seat assignment position is out
	// of range.
	ErrInvalidPosition = errors.New("domain: invalid seat position")
)
