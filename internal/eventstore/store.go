// Package eventstore persists aggregate event streams and reconstructs
// aggregates by replaying them.  Append is guarded by an optimistic
// version check: a writer may only append version N+1 if the stream
// currently ends at N, so concurrent saves for the same aggregate cannot
// interleave.
package eventstore

import (
	"context"
	"errors"

	"github.com/iliyamo/conference-registration/internal/event"
)

// ErrNotFound is returned when no events exist for the requested
// aggregate.
var ErrNotFound = errors.New("eventstore: aggregate not found")

// ErrConcurrencyConflict is returned when an append lost the race against
// a concurrent writer for the same aggregate.  The caller must reload the
// aggregate and retry the whole command.
var ErrConcurrencyConflict = errors.New("eventstore: concurrent modification")

// ErrPublishFailed wraps a broker failure that happened after a
// successful append.  The events are durable but not yet delivered; the
// caller must not retry the command, only surface the gap.
var ErrPublishFailed = errors.New("eventstore: publish after append failed")

// Store is the append-only persistence for versioned events.
type Store interface {
	// Load returns all events of the aggregate ordered by version.  It
	// returns an empty slice, not an error, when the stream is empty.
	Load(ctx context.Context, aggregateType, id string) ([]event.Versioned, error)

	// Append durably adds the events to the aggregate's stream, tagged
	// with the causation id of the command that produced them.  It fails
	// with ErrConcurrencyConflict if any of the versions already exist.
	Append(ctx context.Context, aggregateType string, events []event.Versioned, causationID string) error
}

// EventPublisher delivers committed events to the message broker.
type EventPublisher interface {
	PublishEvents(ctx context.Context, aggregateType string, events []event.Versioned) error
}
