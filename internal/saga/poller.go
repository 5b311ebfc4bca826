package saga

import (
	"context"
	"errors"
	"log"
	"time"
)

// pollBatchSize bounds how many due timers one sweep drives.
const pollBatchSize = 100

// Poller fires the durable expiration timers.  The deadline lives in the
// saga store rather than in process memory, so timers survive restarts;
// the poller just sweeps for due, still-incomplete instances and injects
// the expiration message through the same processor every other message
// goes through.
type Poller struct {
	store     Store
	processor *Processor
	interval  time.Duration
}

// NewPoller builds a poller sweeping at the given interval.
func NewPoller(store Store, processor *Processor, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{store: store, processor: processor, interval: interval}
}

// Run sweeps until the context is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *Poller) sweep(ctx context.Context) {
	ids, err := p.store.DueForExpiration(ctx, time.Now().UTC(), pollBatchSize)
	if err != nil {
		log.Printf("saga-poller: due scan failed: %v", err)
		return
	}
	for _, orderID := range ids {
		err := p.processor.Handle(ctx, orderID, ExpirationElapsedMessage{})
		switch {
		case err == nil:
			log.Printf("saga-poller: order %s expired", orderID)
		case errors.Is(err, ErrUnexpectedMessage):
			// The process finalized between the scan and the handle; the
			// timer is moot.
		case errors.Is(err, ErrPublishFailed):
			log.Printf("saga-poller: order %s expired but commands were not delivered: %v", orderID, err)
		default:
			log.Printf("saga-poller: order %s: %v", orderID, err)
		}
	}
}
