package domain

import (
	"errors"
	"testing"

	"github.com/iliyamo/conference-registration/internal/event"
)

func confirmedAssignments(t *testing.T) *SeatAssignments {
	t.Helper()
	reserved := []event.SeatQuantity{
		{SeatType: "VIP", Quantity: 1},
		{SeatType: "GA", Quantity: 2},
	}
	return newSeatAssignments("sa-1", "order-1", reserved)
}

func TestSeatAssignmentsCreation(t *testing.T) {
	sa := confirmedAssignments(t)
	if sa.OrderID() != "order-1" {
		t.Fatalf("order id = %s, want order-1", sa.OrderID())
	}
	seats := sa.Seats()
	if len(seats) != 3 {
		t.Fatalf("slots = %d, want 3", len(seats))
	}
	wantTypes := []string{"VIP", "GA", "GA"}
	for i, seat := range seats {
		if seat.Position != i || seat.SeatType != wantTypes[i] {
			t.Fatalf("slot %d = %+v, want position %d type %s", i, seat, i, wantTypes[i])
		}
	}
}

func TestAssignSeatValidatesPositionAndEmail(t *testing.T) {
	sa := confirmedAssignments(t)
	attendee := event.Attendee{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

	if err := sa.AssignSeat(3, attendee); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("error = %v, want ErrInvalidPosition", err)
	}
	if err := sa.AssignSeat(-1, attendee); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("error = %v, want ErrInvalidPosition", err)
	}
	if err := sa.AssignSeat(0, event.Attendee{Email: "nope"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("error = %v, want ErrInvalidEmail", err)
	}
	if err := sa.AssignSeat(0, attendee); err != nil {
		t.Fatalf("AssignSeat: %v", err)
	}
	if got := sa.Seats()[0].Attendee; got == nil || got.Email != "ada@example.com" {
		t.Fatalf("slot 0 attendee = %+v, want ada@example.com", got)
	}
}

func TestAssignSeatOverwritesExistingAttendee(t *testing.T) {
	sa := confirmedAssignments(t)
	if err := sa.AssignSeat(1, event.Attendee{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}); err != nil {
		t.Fatalf("AssignSeat: %v", err)
	}
	if err := sa.AssignSeat(1, event.Attendee{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if got := sa.Seats()[1].Attendee; got == nil || got.Email != "grace@example.com" {
		t.Fatalf("slot 1 attendee = %+v, want grace@example.com", got)
	}
}

func TestUnassignIsIdempotent(t *testing.T) {
	sa := confirmedAssignments(t)
	if err := sa.AssignSeat(0, event.Attendee{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}); err != nil {
		t.Fatalf("AssignSeat: %v", err)
	}
	if err := sa.Unassign(0); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if sa.Seats()[0].Attendee != nil {
		t.Fatal("slot 0 still assigned")
	}
	before := len(sa.Pending())
	if err := sa.Unassign(0); err != nil {
		t.Fatalf("second Unassign: %v", err)
	}
	if len(sa.Pending()) != before {
		t.Fatal("unassigning an empty slot must not emit events")
	}
}

func TestSeatAssignmentsReplay(t *testing.T) {
	history := []event.Versioned{
		{SourceID: "sa-1", Version: 1, Payload: event.SeatAssignmentsCreated{
			OrderID: "order-1",
			Seats: []event.SeatSlot{
				{Position: 0, SeatType: "VIP"},
				{Position: 1, SeatType: "VIP"},
			},
		}},
		{SourceID: "sa-1", Version: 2, Payload: event.SeatAssigned{
			Position: 1,
			SeatType: "VIP",
			Attendee: event.Attendee{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		}},
	}
	sa := NewSeatAssignmentsFromHistory("sa-1", history)
	if sa.Seats()[0].Attendee != nil {
		t.Fatal("slot 0 should be unassigned")
	}
	if got := sa.Seats()[1].Attendee; got == nil || got.FirstName != "Ada" {
		t.Fatalf("slot 1 attendee = %+v, want Ada", got)
	}
	if sa.Version() != 2 {
		t.Fatalf("version = %d, want 2", sa.Version())
	}
}
