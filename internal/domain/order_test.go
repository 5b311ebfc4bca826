package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/conference-registration/internal/event"
)

// fakePricing returns fixed totals without touching any store.
type fakePricing struct {
	totals OrderTotals
	err    error
}

func (f fakePricing) ComputeTotals(ctx context.Context, conferenceID string, seats []event.SeatQuantity) (OrderTotals, error) {
	return f.totals, f.err
}

func pendingKinds(a EventSourced) []event.Kind {
	kinds := make([]event.Kind, 0, len(a.Pending()))
	for _, e := range a.Pending() {
		kinds = append(kinds, e.Payload.Kind())
	}
	return kinds
}

func countKind(a EventSourced, kind event.Kind) int {
	n := 0
	for _, e := range a.Pending() {
		if e.Payload.Kind() == kind {
			n++
		}
	}
	return n
}

func reservedOrder(t *testing.T, reserved []event.SeatQuantity) *Order {
	t.Helper()
	o, err := NewOrder("order-1", "conf-1", []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	exp := time.Now().UTC().Add(15 * time.Minute)
	if err := o.MarkAsReserved(context.Background(), fakePricing{}, exp, reserved, 1); err != nil {
		t.Fatalf("MarkAsReserved: %v", err)
	}
	return o
}

func TestNewOrderValidatesLines(t *testing.T) {
	tests := []struct {
		name  string
		items []event.SeatQuantity
		want  error
	}{
		{"valid", []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}}, nil},
		{"empty", nil, ErrInvalidOrderLines},
		{"zero quantity", []event.SeatQuantity{{SeatType: "VIP", Quantity: 0}}, ErrInvalidOrderLines},
		{"negative quantity", []event.SeatQuantity{{SeatType: "VIP", Quantity: -1}}, ErrInvalidOrderLines},
		{"missing type", []event.SeatQuantity{{SeatType: "", Quantity: 1}}, ErrInvalidOrderLines},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder("order-1", "conf-1", tt.items)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewOrder error = %v, want %v", err, tt.want)
			}
			if tt.want != nil {
				return
			}
			if got := pendingKinds(o); len(got) != 1 || got[0] != event.KindOrderPlaced {
				t.Fatalf("pending = %v, want one OrderPlaced", got)
			}
			if o.Version() != 1 {
				t.Fatalf("version = %d, want 1", o.Version())
			}
		})
	}
}

func TestMarkAsReservedFullMovesToReservationCompleted(t *testing.T) {
	o := reservedOrder(t, []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if o.Status() != OrderStatusReservationCompleted {
		t.Fatalf("status = %s, want %s", o.Status(), OrderStatusReservationCompleted)
	}
	if n := countKind(o, event.KindOrderTotalsCalculated); n != 1 {
		t.Fatalf("totals events = %d, want 1", n)
	}
}

func TestMarkAsReservedShortfallMovesToPartiallyReserved(t *testing.T) {
	o := reservedOrder(t, []event.SeatQuantity{{SeatType: "VIP", Quantity: 1}})
	if o.Status() != OrderStatusPartiallyReserved {
		t.Fatalf("status = %s, want %s", o.Status(), OrderStatusPartiallyReserved)
	}
}

func TestMarkAsReservedSumsRepeatedSeatTypes(t *testing.T) {
	// Two lines for the same type mean four seats total; a grant of two
	// only covers half the request.
	o, err := NewOrder("order-1", "conf-1", []event.SeatQuantity{
		{SeatType: "VIP", Quantity: 2},
		{SeatType: "VIP", Quantity: 2},
	})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	exp := time.Now().UTC().Add(15 * time.Minute)
	if err := o.MarkAsReserved(context.Background(), fakePricing{}, exp,
		[]event.SeatQuantity{{SeatType: "VIP", Quantity: 2}}, 1); err != nil {
		t.Fatalf("MarkAsReserved: %v", err)
	}
	if o.Status() != OrderStatusPartiallyReserved {
		t.Fatalf("status = %s, want %s", o.Status(), OrderStatusPartiallyReserved)
	}
}

func TestMarkAsReservedRejectsStaleVersion(t *testing.T) {
	o := reservedOrder(t, []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	exp := time.Now().UTC().Add(15 * time.Minute)
	before := len(o.Pending())

	err := o.MarkAsReserved(context.Background(), fakePricing{}, exp, []event.SeatQuantity{{SeatType: "VIP", Quantity: 1}}, 1)
	if !errors.Is(err, ErrStaleReservation) {
		t.Fatalf("error = %v, want ErrStaleReservation", err)
	}
	if len(o.Pending()) != before {
		t.Fatal("stale acknowledgment must not emit events")
	}
	if o.Status() != OrderStatusReservationCompleted {
		t.Fatalf("status changed to %s on stale acknowledgment", o.Status())
	}
}

func TestMarkAsReservedPricingFailureEmitsNothing(t *testing.T) {
	o, err := NewOrder("order-1", "conf-1", []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	before := len(o.Pending())
	pricingErr := errors.New("pricing unavailable")

	err = o.MarkAsReserved(context.Background(), fakePricing{err: pricingErr}, time.Now(), []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}}, 1)
	if !errors.Is(err, pricingErr) {
		t.Fatalf("error = %v, want pricing failure", err)
	}
	if len(o.Pending()) != before || o.Status() != OrderStatusCreated {
		t.Fatal("failed command must leave the order unchanged")
	}
}

func TestConfirmLifecycle(t *testing.T) {
	o, err := NewOrder("order-1", "conf-1", []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := o.Confirm(); !errors.Is(err, ErrOrderNotReserved) {
		t.Fatalf("confirm before reservation: error = %v, want ErrOrderNotReserved", err)
	}

	o = reservedOrder(t, []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if o.Status() != OrderStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", o.Status())
	}
	// A second confirm is a no-op, not a second event.
	if err := o.Confirm(); err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if n := countKind(o, event.KindOrderConfirmed); n != 1 {
		t.Fatalf("OrderConfirmed events = %d, want 1", n)
	}
}

func TestExpireIsIdempotent(t *testing.T) {
	o, err := NewOrder("order-1", "conf-1", []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := o.Expire(); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if err := o.Expire(); err != nil {
		t.Fatalf("second Expire: %v", err)
	}
	if n := countKind(o, event.KindOrderExpired); n != 1 {
		t.Fatalf("OrderExpired events = %d, want 1", n)
	}
	if o.Status() != OrderStatusExpired {
		t.Fatalf("status = %s, want expired", o.Status())
	}
}

func TestExpireConfirmedOrderFails(t *testing.T) {
	o := reservedOrder(t, []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := o.Expire(); !errors.Is(err, ErrOrderClosed) {
		t.Fatalf("error = %v, want ErrOrderClosed", err)
	}
}

func TestAssignRegistrantValidatesEmail(t *testing.T) {
	o, err := NewOrder("order-1", "conf-1", []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if err := o.AssignRegistrant("Ada", "Lovelace", "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("error = %v, want ErrInvalidEmail", err)
	}
	if err := o.AssignRegistrant("Ada", "Lovelace", "ada@example.com"); err != nil {
		t.Fatalf("AssignRegistrant: %v", err)
	}
	if n := countKind(o, event.KindOrderRegistrantAssigned); n != 1 {
		t.Fatalf("OrderRegistrantAssigned events = %d, want 1", n)
	}
}

func TestCreateSeatAssignmentsRequiresConfirmation(t *testing.T) {
	o := reservedOrder(t, []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if _, err := o.CreateSeatAssignments("sa-1"); !errors.Is(err, ErrOrderNotConfirmed) {
		t.Fatalf("error = %v, want ErrOrderNotConfirmed", err)
	}
	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	sa, err := o.CreateSeatAssignments("sa-1")
	if err != nil {
		t.Fatalf("CreateSeatAssignments: %v", err)
	}
	if len(sa.Seats()) != 2 {
		t.Fatalf("slots = %d, want 2", len(sa.Seats()))
	}
	for i, seat := range sa.Seats() {
		if seat.Attendee != nil {
			t.Fatalf("slot %d starts assigned", i)
		}
		if seat.SeatType != "VIP" {
			t.Fatalf("slot %d seat type = %s, want VIP", i, seat.SeatType)
		}
	}
}

func TestOrderReplayIsDeterministic(t *testing.T) {
	exp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history := []event.Versioned{
		{SourceID: "order-1", Version: 1, Payload: event.OrderPlaced{
			ConferenceID:              "conf-1",
			Seats:                     []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}},
			ReservationAutoExpiration: exp,
		}},
		{SourceID: "order-1", Version: 2, Payload: event.OrderReservationCompleted{
			ReservationExpiration: exp,
			Seats:                 []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}},
			ReservationVersion:    1,
		}},
		{SourceID: "order-1", Version: 3, Payload: event.OrderConfirmed{}},
	}

	o := NewOrderFromHistory("order-1", history)
	if o.Status() != OrderStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", o.Status())
	}
	if o.Version() != 3 {
		t.Fatalf("version = %d, want 3", o.Version())
	}
	if o.ConferenceID() != "conf-1" {
		t.Fatalf("conference = %s, want conf-1", o.ConferenceID())
	}
	if len(o.Pending()) != 0 {
		t.Fatal("replay must not produce pending events")
	}
}
