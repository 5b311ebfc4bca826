package eventstore

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/conference-registration/internal/domain"
	"github.com/iliyamo/conference-registration/internal/event"
)

// captureBus records published events and can be told to fail.
type captureBus struct {
	published []event.Versioned
	fail      error
}

func (b *captureBus) PublishEvents(ctx context.Context, aggregateType string, events []event.Versioned) error {
	if b.fail != nil {
		return b.fail
	}
	b.published = append(b.published, events...)
	return nil
}

func orderRepo(store Store, bus EventPublisher) *Repository[*domain.Order] {
	return NewRepository(store, bus, event.AggregateOrder, domain.NewOrderFromHistory)
}

func placeOrder(t *testing.T, id string) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(id, "conf-1", []event.SeatQuantity{{SeatType: "VIP", Quantity: 2}})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return o
}

func TestSaveThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	bus := &captureBus{}
	repo := orderRepo(NewMemory(), bus)

	o := placeOrder(t, "order-1")
	if err := repo.Save(ctx, o, "cmd-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(o.Pending()) != 0 {
		t.Fatal("pending events not cleared after save")
	}
	if len(bus.published) != 1 {
		t.Fatalf("published = %d events, want 1", len(bus.published))
	}

	got, err := repo.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status() != domain.OrderStatusCreated || got.Version() != 1 {
		t.Fatalf("reloaded order = %s v%d, want created v1", got.Status(), got.Version())
	}
}

func TestFindReportsAbsence(t *testing.T) {
	ctx := context.Background()
	repo := orderRepo(NewMemory(), &captureBus{})

	_, ok, err := repo.Find(ctx, "missing")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if ok {
		t.Fatal("Find reported a missing aggregate as present")
	}
	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentSaveConflicts(t *testing.T) {
	ctx := context.Background()
	repo := orderRepo(NewMemory(), &captureBus{})

	o := placeOrder(t, "order-1")
	if err := repo.Save(ctx, o, "cmd-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Two workers load the same order and both try to expire it.
	first, err := repo.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := repo.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := first.Expire(); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if err := second.Expire(); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	if err := repo.Save(ctx, first, "cmd-2"); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := repo.Save(ctx, second, "cmd-3"); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("second Save error = %v, want ErrConcurrencyConflict", err)
	}

	// The loser retries from a fresh load and sees the no-op.
	retried, err := repo.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("Get after conflict: %v", err)
	}
	if err := retried.Expire(); err != nil {
		t.Fatalf("retried Expire: %v", err)
	}
	if len(retried.Pending()) != 0 {
		t.Fatal("retried expire of an expired order emitted events")
	}
}

func TestPublishFailureAfterAppendIsSurfaced(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	bus := &captureBus{fail: errors.New("broker down")}
	repo := orderRepo(store, bus)

	o := placeOrder(t, "order-1")
	err := repo.Save(ctx, o, "cmd-1")
	if !errors.Is(err, ErrPublishFailed) {
		t.Fatalf("Save error = %v, want ErrPublishFailed", err)
	}

	// The append is durable even though delivery failed.
	history, err := store.Load(ctx, event.AggregateOrder, "order-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("stored events = %d, want 1", len(history))
	}
}
