package saga

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/conference-registration/internal/command"
	"github.com/iliyamo/conference-registration/internal/event"
)

var testSeats = []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}}

func placedInstance(t *testing.T) *Instance {
	t.Helper()
	inst := NewInstance("order-1")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cmds, err := Transition(inst, OrderPlacedMessage{
		ConferenceID:              "conf-1",
		Seats:                     testSeats,
		ReservationAutoExpiration: now.Add(15 * time.Minute),
	}, now)
	if err != nil {
		t.Fatalf("Transition(OrderPlaced): %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("commands = %d, want 1", len(cmds))
	}
	return inst
}

func TestOrderPlacedStartsProcessAndSchedulesTimer(t *testing.T) {
	inst := NewInstance("order-1")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cmds, err := Transition(inst, OrderPlacedMessage{
		ConferenceID:              "conf-1",
		Seats:                     testSeats,
		ReservationAutoExpiration: now.Add(15 * time.Minute),
	}, now)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}

	res, ok := cmds[0].(command.MakeSeatReservation)
	if !ok {
		t.Fatalf("command = %T, want MakeSeatReservation", cmds[0])
	}
	if res.ConferenceID != "conf-1" || res.ReservationID != "order-1" {
		t.Fatalf("reservation command = %+v", res)
	}
	if inst.State != StateAwaitingReservationConfirmation {
		t.Fatalf("state = %s", inst.State)
	}
	if inst.ExpiresAt == nil || !inst.ExpiresAt.Equal(now.Add(16*time.Minute)) {
		t.Fatalf("timer = %v, want 16 minutes after placement", inst.ExpiresAt)
	}
}

func TestOrderUpdatedReissuesReservationWithSameID(t *testing.T) {
	inst := placedInstance(t)
	newSeats := []event.SeatQuantity{{SeatType: "GA", Quantity: 1}}
	cmds, err := Transition(inst, OrderUpdatedMessage{Seats: newSeats}, time.Now().UTC())
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	res, ok := cmds[0].(command.MakeSeatReservation)
	if !ok || res.ReservationID != "order-1" {
		t.Fatalf("command = %+v, want MakeSeatReservation with same reservation id", cmds[0])
	}
	if inst.State != StateAwaitingReservationConfirmation {
		t.Fatalf("state changed to %s", inst.State)
	}
}

func TestSeatsReservedForwardsVersionToOrder(t *testing.T) {
	inst := placedInstance(t)
	cmds, err := Transition(inst, SeatsReservedMessage{Reserved: testSeats, Version: 7}, time.Now().UTC())
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	mark, ok := cmds[0].(command.MarkSeatsAsReserved)
	if !ok {
		t.Fatalf("command = %T, want MarkSeatsAsReserved", cmds[0])
	}
	if mark.OrderID != "order-1" || mark.ReservationVersion != 7 {
		t.Fatalf("command = %+v", mark)
	}
	if !mark.Expiration.Equal(inst.ReservationAutoExpiration) {
		t.Fatalf("expiration = %v, want %v", mark.Expiration, inst.ReservationAutoExpiration)
	}
	if inst.State != StateReservationConfirmationReceived {
		t.Fatalf("state = %s", inst.State)
	}
}

func TestTimeoutPathIssuesRejectAndCancelThenGoesQuiet(t *testing.T) {
	inst := placedInstance(t)
	cmds, err := Transition(inst, ExpirationElapsedMessage{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want exactly one reject and one cancel", len(cmds))
	}
	if _, ok := cmds[0].(command.RejectOrder); !ok {
		t.Fatalf("first command = %T, want RejectOrder", cmds[0])
	}
	cancel, ok := cmds[1].(command.CancelSeatReservation)
	if !ok || cancel.ReservationID != "order-1" {
		t.Fatalf("second command = %+v, want CancelSeatReservation for order-1", cmds[1])
	}
	if !inst.Completed || inst.ExpiresAt != nil {
		t.Fatalf("instance = %+v, want completed with timer cancelled", inst)
	}

	// Nothing further is ever issued for this order.
	for _, msg := range []Message{SeatsReservedMessage{}, PaymentCompletedMessage{}, OrderConfirmedMessage{}, ExpirationElapsedMessage{}} {
		if _, err := Transition(inst, msg, time.Now().UTC()); !errors.Is(err, ErrUnexpectedMessage) {
			t.Fatalf("Transition(%T) after completion: error = %v, want ErrUnexpectedMessage", msg, err)
		}
	}
}

func TestConfirmationCommitsReservationAndCancelsTimer(t *testing.T) {
	inst := placedInstance(t)
	if _, err := Transition(inst, SeatsReservedMessage{Reserved: testSeats, Version: 1}, time.Now().UTC()); err != nil {
		t.Fatalf("SeatsReserved: %v", err)
	}
	cmds, err := Transition(inst, OrderConfirmedMessage{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("OrderConfirmed: %v", err)
	}
	if _, ok := cmds[0].(command.CommitSeatReservation); !ok {
		t.Fatalf("command = %T, want CommitSeatReservation", cmds[0])
	}
	if !inst.Completed || inst.ExpiresAt != nil {
		t.Fatalf("instance = %+v, want completed with timer cancelled", inst)
	}
}

func TestPaymentPathConfirmsOrder(t *testing.T) {
	inst := placedInstance(t)
	if _, err := Transition(inst, SeatsReservedMessage{Reserved: testSeats, Version: 1}, time.Now().UTC()); err != nil {
		t.Fatalf("SeatsReserved: %v", err)
	}
	cmds, err := Transition(inst, PaymentCompletedMessage{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("PaymentCompleted: %v", err)
	}
	if _, ok := cmds[0].(command.ConfirmOrder); !ok {
		t.Fatalf("command = %T, want ConfirmOrder", cmds[0])
	}
	if inst.State != StatePaymentConfirmationReceived {
		t.Fatalf("state = %s", inst.State)
	}
	if inst.ExpiresAt == nil {
		t.Fatal("timer must stay armed until the order confirms")
	}

	// A duplicate payment notification re-issues the confirm without
	// changing state; the order's Confirm is idempotent.
	cmds, err = Transition(inst, PaymentCompletedMessage{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("duplicate PaymentCompleted: %v", err)
	}
	if _, ok := cmds[0].(command.ConfirmOrder); !ok {
		t.Fatalf("command = %T, want ConfirmOrder", cmds[0])
	}
	if inst.State != StatePaymentConfirmationReceived {
		t.Fatalf("state = %s", inst.State)
	}

	// The order's OrderConfirmed event then commits the reservation.
	cmds, err = Transition(inst, OrderConfirmedMessage{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("OrderConfirmed: %v", err)
	}
	if _, ok := cmds[0].(command.CommitSeatReservation); !ok {
		t.Fatalf("command = %T, want CommitSeatReservation", cmds[0])
	}
	if !inst.Completed {
		t.Fatal("process should be complete")
	}
}

func TestUnknownOrderIgnoresNonInitialMessages(t *testing.T) {
	inst := NewInstance("order-1")
	if _, err := Transition(inst, SeatsReservedMessage{Reserved: testSeats, Version: 1}, time.Now().UTC()); !errors.Is(err, ErrUnexpectedMessage) {
		t.Fatalf("error = %v, want ErrUnexpectedMessage", err)
	}
}
