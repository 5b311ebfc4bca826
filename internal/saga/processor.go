package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/conference-registration/internal/command"
)

// maxAttempts bounds the reload-and-retry loop after an optimistic
// conflict.  Conflicts only happen when two messages for the same order
// race, so a couple of retries is always enough to serialize them.
const maxAttempts = 3

// ErrPublishFailed wraps a broker failure that happened after the
// transition was already persisted.  The state change is durable but the
// commands were not delivered; the caller must log the gap instead of
// re-running the message, which would now hit ErrUnexpectedMessage.
var ErrPublishFailed = errors.New("saga: command publish after transition failed")

// CommandPublisher sends commands to the workers that own the target
// aggregates.
type CommandPublisher interface {
	PublishCommand(ctx context.Context, cmd command.Command) error
}

// Processor applies inbound messages to saga instances: load (or create),
// transition, persist under the optimistic check, then publish the
// resulting commands.  A lost version check reloads and recomputes the
// transition against the fresh snapshot.
type Processor struct {
	store Store
	bus   CommandPublisher
}

// NewProcessor builds a processor over the given store and publisher.
func NewProcessor(store Store, bus CommandPublisher) *Processor {
	return &Processor{store: store, bus: bus}
}

// Handle applies one message to the order's process.  It returns
// ErrUnexpectedMessage for duplicate or out-of-order deliveries, which
// callers acknowledge after logging.
func (p *Processor) Handle(ctx context.Context, orderID string, msg Message) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		inst, err := p.store.Find(ctx, orderID)
		created := false
		switch {
		case errors.Is(err, ErrNotFound):
			inst = NewInstance(orderID)
			created = true
		case err != nil:
			return err
		}

		cmds, err := Transition(inst, msg, time.Now().UTC())
		if err != nil {
			return err
		}

		if created {
			err = p.store.Insert(ctx, inst)
			if errors.Is(err, ErrAlreadyExists) {
				lastErr = err
				continue
			}
		} else {
			err = p.store.Update(ctx, inst)
			if errors.Is(err, ErrConcurrencyConflict) {
				lastErr = err
				continue
			}
		}
		if err != nil {
			return err
		}

		for _, cmd := range cmds {
			if err := p.bus.PublishCommand(ctx, cmd); err != nil {
				return fmt.Errorf("%w: order %s: %v", ErrPublishFailed, orderID, err)
			}
		}
		return nil
	}
	return fmt.Errorf("saga: order %s: transition retries exhausted: %w", orderID, lastErr)
}
