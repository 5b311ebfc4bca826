package eventstore

import (
	"context"
	"fmt"

	"github.com/iliyamo/conference-registration/internal/domain"
	"github.com/iliyamo/conference-registration/internal/event"
)

// Repository loads and saves one aggregate type.  Loading reconstructs
// the aggregate transiently by folding its stream through the factory;
// nothing is cached between commands.
type Repository[T domain.EventSourced] struct {
	store         Store
	bus           EventPublisher
	aggregateType string
	factory       func(id string, history []event.Versioned) T
}

// NewRepository builds a repository for one aggregate type.  factory must
// construct an instance from an ordered event history.
func NewRepository[T domain.EventSourced](store Store, bus EventPublisher, aggregateType string, factory func(id string, history []event.Versioned) T) *Repository[T] {
	return &Repository[T]{store: store, bus: bus, aggregateType: aggregateType, factory: factory}
}

// Find loads the aggregate, reporting absence without an error.
func (r *Repository[T]) Find(ctx context.Context, id string) (T, bool, error) {
	var zero T
	history, err := r.store.Load(ctx, r.aggregateType, id)
	if err != nil {
		return zero, false, err
	}
	if len(history) == 0 {
		return zero, false, nil
	}
	return r.factory(id, history), true, nil
}

// Get loads the aggregate and fails with ErrNotFound when it is absent.
func (r *Repository[T]) Get(ctx context.Context, id string) (T, error) {
	agg, ok, err := r.Find(ctx, id)
	if err != nil {
		return agg, err
	}
	if !ok {
		return agg, fmt.Errorf("%w: %s %s", ErrNotFound, r.aggregateType, id)
	}
	return agg, nil
}

// Save appends the aggregate's pending events and then publishes them.
// The append happens strictly before the publish: when the broker fails
// after a successful append the events are durable but undelivered, and
// Save reports that as ErrPublishFailed so the caller can log the gap
// without re-running the command.  When the append itself fails, nothing
// was published and the caller must reload and retry from scratch.
func (r *Repository[T]) Save(ctx context.Context, agg T, causationID string) error {
	pending := agg.Pending()
	if len(pending) == 0 {
		return nil
	}
	if err := r.store.Append(ctx, r.aggregateType, pending, causationID); err != nil {
		return err
	}
	agg.ClearPending()
	if err := r.bus.PublishEvents(ctx, r.aggregateType, pending); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrPublishFailed, r.aggregateType, agg.ID(), err)
	}
	return nil
}
