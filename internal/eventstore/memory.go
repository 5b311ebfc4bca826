package eventstore

import (
	"context"
	"sync"

	"github.com/iliyamo/conference-registration/internal/event"
)

// Memory is an in-process Store with the same optimistic-append semantics
// as the MySQL store.  It backs the domain and saga tests and can serve a
// single-process deployment without a database.
type Memory struct {
	mu      sync.Mutex
	streams map[string][]event.Versioned
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{streams: make(map[string][]event.Versioned)}
}

func streamKey(aggregateType, id string) string { return aggregateType + "/" + id }

// Load returns a copy of the aggregate's stream.
func (m *Memory) Load(ctx context.Context, aggregateType, id string) ([]event.Versioned, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stream := m.streams[streamKey(aggregateType, id)]
	out := make([]event.Versioned, len(stream))
	copy(out, stream)
	return out, nil
}

// Append adds the events if and only if they continue the stream at the
// next expected version.
func (m *Memory) Append(ctx context.Context, aggregateType string, events []event.Versioned, causationID string) error {
	if len(events) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := streamKey(aggregateType, events[0].SourceID)
	stream := m.streams[key]
	next := 1
	if len(stream) > 0 {
		next = stream[len(stream)-1].Version + 1
	}
	if events[0].Version != next {
		return ErrConcurrencyConflict
	}
	m.streams[key] = append(stream, events...)
	return nil
}
