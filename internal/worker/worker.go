// Package worker binds queue deliveries to aggregate operations.  Each
// worker owns one aggregate type and consumes the durable command queue
// for it; the assignments worker additionally reacts to confirmed orders,
// and the saga worker feeds subscribed events into the order process.
//
// Error handling follows one rule everywhere: a delivery that can never
// succeed (malformed message, domain rejection, duplicate) is logged and
// acknowledged, while an infrastructure failure is returned so the
// consumer rejects the delivery.
package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/conference-registration/internal/command"
	"github.com/iliyamo/conference-registration/internal/domain"
	"github.com/iliyamo/conference-registration/internal/eventstore"
	"github.com/iliyamo/conference-registration/internal/queue"
)

// maxAttempts bounds the reload-and-retry loop after an optimistic
// append conflict.
const maxAttempts = 3

// decodeCommand unpacks the command carried by a delivery body.
func decodeCommand(body []byte) (command.Command, error) {
	var msg queue.CommandMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode command envelope: %w", err)
	}
	cmd, err := command.Unmarshal(msg.Kind, msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode command payload: %w", err)
	}
	return cmd, nil
}

// retryConflicts re-runs the operation after an optimistic concurrency
// conflict, reloading the aggregate from scratch each time.
func retryConflicts(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, eventstore.ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}

// rejected reports whether the error is a domain rejection: the command
// can never succeed against the aggregate's current state, usually
// because it is a duplicate or out-of-order delivery.
func rejected(err error) bool {
	for _, sentinel := range []error{
		eventstore.ErrNotFound,
		domain.ErrInvalidOrderLines,
		domain.ErrInvalidEmail,
		domain.ErrOrderClosed,
		domain.ErrOrderNotReserved,
		domain.ErrOrderNotConfirmed,
		domain.ErrStaleReservation,
		domain.ErrInsufficientInventory,
		domain.ErrInvalidQuantity,
		domain.ErrInvalidPosition,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
