// Package saga drives the order registration workflow across the Order,
// SeatsAvailability and SeatAssignments aggregates.  The state machine
// itself is a pure transition function over a tagged union of inbound
// messages; persistence and command publishing live around it, never
// inside it.  Each instance owns a single durable expiration timer, kept
// as a nullable deadline on the persisted row.
package saga

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/conference-registration/internal/command"
	"github.com/iliyamo/conference-registration/internal/event"
)

// expirationDelay is how long after placement an unconfirmed order is
// rejected.  One minute longer than the order's reservation window so the
// order-side expiration is never raced by a still-live reservation.
const expirationDelay = 16 * time.Minute

// State names of the order process.
type State string

const (
	StateAwaitingReservationConfirmation State = "awaiting_reservation_confirmation"
	StateReservationConfirmationReceived State = "reservation_confirmation_received"
	StatePaymentConfirmationReceived     State = "payment_confirmation_received"
	StateCompleted                       State = "completed"
)

// ErrUnexpectedMessage is returned when no transition is defined for the
// instance's state and the inbound message.  Consumers treat it as a
// duplicate or out-of-order delivery: log a warning and acknowledge.
var ErrUnexpectedMessage = errors.New("saga: no transition for message in current state")

// Instance is the persisted state of one order's process.  OrderID is the
// correlation id; Version is the optimistic concurrency token checked by
// the store so two concurrently delivered messages can never both apply a
// transition against the same snapshot.
type Instance struct {
	OrderID                   string
	ConferenceID              string
	ReservationID             string
	State                     State
	ReservationAutoExpiration time.Time
	ExpiresAt                 *time.Time
	Completed                 bool
	Version                   int
}

// Message is the tagged union of everything the saga reacts to.
type Message interface{ sagaMessage() }

// OrderPlacedMessage starts a new process.
type OrderPlacedMessage struct {
	ConferenceID              string
	Seats                     []event.SeatQuantity
	ReservationAutoExpiration time.Time
}

// OrderUpdatedMessage re-requests the reservation with a new seat list.
type OrderUpdatedMessage struct {
	Seats []event.SeatQuantity
}

// SeatsReservedMessage reports the reservation outcome.  Version is the
// version of the SeatsReserved event, forwarded to the order so stale
// acknowledgments can be told apart from fresh ones.
type SeatsReservedMessage struct {
	Reserved []event.SeatQuantity
	Version  int
}

// PaymentCompletedMessage reports a completed payment.
type PaymentCompletedMessage struct{}

// OrderConfirmedMessage reports the order reaching its confirmed state.
type OrderConfirmedMessage struct{}

// ExpirationElapsedMessage is injected by the poller when the durable
// timer fires.
type ExpirationElapsedMessage struct{}

func (OrderPlacedMessage) sagaMessage()       {}
func (OrderUpdatedMessage) sagaMessage()      {}
func (SeatsReservedMessage) sagaMessage()     {}
func (PaymentCompletedMessage) sagaMessage()  {}
func (OrderConfirmedMessage) sagaMessage()    {}
func (ExpirationElapsedMessage) sagaMessage() {}

// NewInstance returns the not-yet-started process for an order.
func NewInstance(orderID string) *Instance {
	return &Instance{OrderID: orderID}
}

// Transition applies one message to the instance and returns the commands
// to publish.  The instance is mutated in place; the caller persists it
// (under the optimistic version check) before publishing the commands.
func Transition(inst *Instance, msg Message, now time.Time) ([]command.Command, error) {
	if inst.Completed {
		// Late timer fires and duplicate deliveries after finalization are
		// ignored; the aggregates' own no-ops make even a published
		// duplicate harmless.
		return nil, ErrUnexpectedMessage
	}

	switch inst.State {
	case "":
		if m, ok := msg.(OrderPlacedMessage); ok {
			inst.ConferenceID = m.ConferenceID
			inst.ReservationID = inst.OrderID
			inst.ReservationAutoExpiration = m.ReservationAutoExpiration
			deadline := now.Add(expirationDelay)
			inst.ExpiresAt = &deadline
			inst.State = StateAwaitingReservationConfirmation
			return []command.Command{makeReservation(inst, m.Seats)}, nil
		}

	case StateAwaitingReservationConfirmation:
		switch m := msg.(type) {
		case OrderUpdatedMessage:
			// Same reservation id: the availability aggregate replaces the
			// prior pending reservation.
			return []command.Command{makeReservation(inst, m.Seats)}, nil
		case SeatsReservedMessage:
			inst.State = StateReservationConfirmationReceived
			return []command.Command{command.MarkSeatsAsReserved{
				Header:             command.Header{ID: uuid.NewString()},
				OrderID:            inst.OrderID,
				Seats:              m.Reserved,
				Expiration:         inst.ReservationAutoExpiration,
				ReservationVersion: m.Version,
			}}, nil
		case ExpirationElapsedMessage:
			return expire(inst), nil
		}

	case StateReservationConfirmationReceived:
		switch msg.(type) {
		case OrderConfirmedMessage:
			return commit(inst), nil
		case PaymentCompletedMessage:
			inst.State = StatePaymentConfirmationReceived
			return []command.Command{confirmOrder(inst)}, nil
		case ExpirationElapsedMessage:
			return expire(inst), nil
		}

	case StatePaymentConfirmationReceived:
		switch msg.(type) {
		case OrderConfirmedMessage:
			return commit(inst), nil
		case PaymentCompletedMessage:
			// Duplicate payment notification: re-issue the confirm; the
			// order's Confirm is a no-op once confirmed.
			return []command.Command{confirmOrder(inst)}, nil
		case ExpirationElapsedMessage:
			return expire(inst), nil
		}
	}
	return nil, ErrUnexpectedMessage
}

// finalize moves the instance to its terminal state and cancels the
// expiration timer.
func finalize(inst *Instance) {
	inst.State = StateCompleted
	inst.Completed = true
	inst.ExpiresAt = nil
}

func makeReservation(inst *Instance, seats []event.SeatQuantity) command.Command {
	return command.MakeSeatReservation{
		Header:        command.Header{ID: uuid.NewString()},
		ConferenceID:  inst.ConferenceID,
		ReservationID: inst.ReservationID,
		Seats:         seats,
	}
}

func confirmOrder(inst *Instance) command.Command {
	return command.ConfirmOrder{
		Header:  command.Header{ID: uuid.NewString()},
		OrderID: inst.OrderID,
	}
}

func commit(inst *Instance) []command.Command {
	finalize(inst)
	return []command.Command{command.CommitSeatReservation{
		Header:        command.Header{ID: uuid.NewString()},
		ConferenceID:  inst.ConferenceID,
		ReservationID: inst.ReservationID,
	}}
}

func expire(inst *Instance) []command.Command {
	finalize(inst)
	return []command.Command{
		command.RejectOrder{
			Header:  command.Header{ID: uuid.NewString()},
			OrderID: inst.OrderID,
		},
		command.CancelSeatReservation{
			Header:        command.Header{ID: uuid.NewString()},
			ConferenceID:  inst.ConferenceID,
			ReservationID: inst.ReservationID,
		},
	}
}
