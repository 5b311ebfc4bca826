package domain

import (
	"errors"
	"testing"

	"github.com/iliyamo/conference-registration/internal/event"
)

func availabilityWith(t *testing.T, seatType string, quantity int) *SeatsAvailability {
	t.Helper()
	a := NewSeatsAvailability("conf-1")
	if err := a.AddSeats(seatType, quantity); err != nil {
		t.Fatalf("AddSeats: %v", err)
	}
	return a
}

func lastReserved(t *testing.T, a *SeatsAvailability) event.SeatsReserved {
	t.Helper()
	for i := len(a.Pending()) - 1; i >= 0; i-- {
		if e, ok := a.Pending()[i].Payload.(event.SeatsReserved); ok {
			return e
		}
	}
	t.Fatal("no SeatsReserved event pending")
	return event.SeatsReserved{}
}

func TestMakeReservationPartialFulfillment(t *testing.T) {
	a := availabilityWith(t, "A", 3)
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "A", Quantity: 5}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	e := lastReserved(t, a)
	if len(e.Reserved) != 1 || e.Reserved[0].Quantity != 3 {
		t.Fatalf("reserved = %v, want exactly 3 of A", e.Reserved)
	}
	if a.Remaining("A") != 0 {
		t.Fatalf("remaining = %d, want 0", a.Remaining("A"))
	}
}

func TestMakeReservationCollapsesRepeatedSeatTypes(t *testing.T) {
	a := availabilityWith(t, "A", 3)
	// Two lines for the same type ask for six seats total; only three
	// exist, so three are granted and the pool must not go negative.
	if err := a.MakeReservation("res-1", []event.SeatQuantity{
		{SeatType: "A", Quantity: 3},
		{SeatType: "A", Quantity: 3},
	}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	e := lastReserved(t, a)
	if len(e.Reserved) != 1 {
		t.Fatalf("reserved = %v, want one collapsed line", e.Reserved)
	}
	if e.Reserved[0].Quantity != 3 {
		t.Fatalf("granted = %d, want 3", e.Reserved[0].Quantity)
	}
	if a.Remaining("A") != 0 {
		t.Fatalf("remaining = %d, want 0", a.Remaining("A"))
	}
}

func TestMakeReservationWithZeroRemaining(t *testing.T) {
	a := NewSeatsAvailability("conf-1")
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "A", Quantity: 2}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	e := lastReserved(t, a)
	if len(e.Reserved) != 1 || e.Reserved[0].Quantity != 0 {
		t.Fatalf("reserved = %v, want an explicit zero grant", e.Reserved)
	}
}

func TestMakeReservationReplacesPriorPending(t *testing.T) {
	a := availabilityWith(t, "A", 5)
	if err := a.AddSeats("B", 1); err != nil {
		t.Fatalf("AddSeats: %v", err)
	}
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "A", Quantity: 2}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	if a.Remaining("A") != 3 {
		t.Fatalf("remaining A = %d, want 3", a.Remaining("A"))
	}

	// Growing the same reservation consumes only the difference.
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "A", Quantity: 3}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	if a.Remaining("A") != 2 {
		t.Fatalf("remaining A = %d, want 2", a.Remaining("A"))
	}

	// Switching the reservation to another seat type releases the old one.
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "B", Quantity: 1}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	if a.Remaining("A") != 5 {
		t.Fatalf("remaining A = %d, want 5 after release", a.Remaining("A"))
	}
	if a.Remaining("B") != 0 {
		t.Fatalf("remaining B = %d, want 0", a.Remaining("B"))
	}
}

func TestCancelRestoresExactlyWhatWasReserved(t *testing.T) {
	a := availabilityWith(t, "A", 5)
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "A", Quantity: 3}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	if err := a.CancelReservation("res-1"); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if a.Remaining("A") != 5 {
		t.Fatalf("remaining = %d, want 5", a.Remaining("A"))
	}

	// A second cancel is a no-op: no event, no change.
	before := len(a.Pending())
	if err := a.CancelReservation("res-1"); err != nil {
		t.Fatalf("second CancelReservation: %v", err)
	}
	if len(a.Pending()) != before || a.Remaining("A") != 5 {
		t.Fatal("repeated cancel must not change anything")
	}
}

func TestCommitIsPermanent(t *testing.T) {
	a := availabilityWith(t, "A", 5)
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "A", Quantity: 3}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	if err := a.CommitReservation("res-1"); err != nil {
		t.Fatalf("CommitReservation: %v", err)
	}
	if a.Remaining("A") != 2 {
		t.Fatalf("remaining = %d, want 2", a.Remaining("A"))
	}
	// Cancelling after commit returns nothing.
	if err := a.CancelReservation("res-1"); err != nil {
		t.Fatalf("CancelReservation: %v", err)
	}
	if a.Remaining("A") != 2 {
		t.Fatalf("remaining = %d after late cancel, want 2", a.Remaining("A"))
	}
	// Committing twice is a no-op.
	before := len(a.Pending())
	if err := a.CommitReservation("res-1"); err != nil {
		t.Fatalf("second CommitReservation: %v", err)
	}
	if len(a.Pending()) != before {
		t.Fatal("repeated commit must not emit events")
	}
}

func TestRemoveSeatsGuardsInventory(t *testing.T) {
	a := availabilityWith(t, "A", 3)
	if err := a.RemoveSeats("A", 5); !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("error = %v, want ErrInsufficientInventory", err)
	}
	// Pending seats are not removable either.
	if err := a.MakeReservation("res-1", []event.SeatQuantity{{SeatType: "A", Quantity: 2}}); err != nil {
		t.Fatalf("MakeReservation: %v", err)
	}
	if err := a.RemoveSeats("A", 2); !errors.Is(err, ErrInsufficientInventory) {
		t.Fatalf("error = %v, want ErrInsufficientInventory for pending seats", err)
	}
	if err := a.RemoveSeats("A", 1); err != nil {
		t.Fatalf("RemoveSeats: %v", err)
	}
	if a.Remaining("A") != 0 {
		t.Fatalf("remaining = %d, want 0", a.Remaining("A"))
	}
}

func TestAvailabilityReplayIsDeterministic(t *testing.T) {
	history := []event.Versioned{
		{SourceID: "conf-1", Version: 1, Payload: event.SeatsAvailabilityChanged{SeatType: "A", Delta: 5}},
		{SourceID: "conf-1", Version: 2, Payload: event.SeatsReserved{
			ReservationID:       "res-1",
			Reserved:            []event.SeatQuantity{{SeatType: "A", Quantity: 3}},
			AvailabilityChanged: []event.SeatQuantity{{SeatType: "A", Quantity: -3}},
		}},
		{SourceID: "conf-1", Version: 3, Payload: event.SeatsReservationCancelled{
			ReservationID:       "res-1",
			AvailabilityChanged: []event.SeatQuantity{{SeatType: "A", Quantity: 3}},
		}},
	}
	a := NewSeatsAvailabilityFromHistory("conf-1", history)
	if a.Remaining("A") != 5 {
		t.Fatalf("remaining = %d, want 5", a.Remaining("A"))
	}
	if a.Version() != 3 {
		t.Fatalf("version = %d, want 3", a.Version())
	}
	// The cancelled reservation left no pending record: commit is a no-op.
	if err := a.CommitReservation("res-1"); err != nil {
		t.Fatalf("CommitReservation: %v", err)
	}
	if len(a.Pending()) != 0 {
		t.Fatal("commit of unknown reservation must not emit events")
	}
}
