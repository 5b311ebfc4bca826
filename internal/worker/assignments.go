package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/conference-registration/internal/command"
	"github.com/iliyamo/conference-registration/internal/domain"
	"github.com/iliyamo/conference-registration/internal/event"
	"github.com/iliyamo/conference-registration/internal/eventstore"
	"github.com/iliyamo/conference-registration/internal/queue"
)

// assignmentsNamespace derives the seat assignments aggregate id from the
// order id.  The derivation is deterministic so a redelivered confirmed
// order maps to the same aggregate and creation is naturally idempotent.
var assignmentsNamespace = uuid.MustParse("b4a6cbcd-3b0c-4a3c-9c6f-2f3f2b6c1a58")

// AssignmentsIDFor returns the seat assignments aggregate id for an order.
func AssignmentsIDFor(orderID string) string {
	return uuid.NewSHA1(assignmentsNamespace, []byte(orderID)).String()
}

// AssignmentsWorker consumes the seat assignments command queue and the
// confirmed-order events that create the aggregate.
type AssignmentsWorker struct {
	orders      *eventstore.Repository[*domain.Order]
	assignments *eventstore.Repository[*domain.SeatAssignments]
}

// NewAssignmentsWorker builds the worker over both repositories; the
// order repository is read-only here, used to expand a confirmed order's
// reserved seats into slots.
func NewAssignmentsWorker(orders *eventstore.Repository[*domain.Order], assignments *eventstore.Repository[*domain.SeatAssignments]) *AssignmentsWorker {
	return &AssignmentsWorker{orders: orders, assignments: assignments}
}

// Handle processes one command delivery.
func (w *AssignmentsWorker) Handle(ctx context.Context, d amqp.Delivery) error {
	cmd, err := decodeCommand(d.Body)
	if err != nil {
		log.Printf("assignments-worker: %v", err)
		return nil
	}
	err = retryConflicts(func() error { return w.apply(ctx, cmd) })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eventstore.ErrPublishFailed):
		log.Printf("assignments-worker: %s %s: %v", cmd.Kind(), cmd.CommandID(), err)
		return nil
	case rejected(err):
		log.Printf("assignments-worker: %s %s rejected: %v", cmd.Kind(), cmd.CommandID(), err)
		return nil
	default:
		return err
	}
}

func (w *AssignmentsWorker) apply(ctx context.Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case command.AssignSeat:
		sa, err := w.assignments.Get(ctx, c.AssignmentsID)
		if err != nil {
			return err
		}
		if err := sa.AssignSeat(c.Position, c.Attendee); err != nil {
			return err
		}
		return w.assignments.Save(ctx, sa, c.CommandID())

	case command.UnassignSeat:
		sa, err := w.assignments.Get(ctx, c.AssignmentsID)
		if err != nil {
			return err
		}
		if err := sa.Unassign(c.Position); err != nil {
			return err
		}
		return w.assignments.Save(ctx, sa, c.CommandID())

	default:
		return fmt.Errorf("assignments-worker: unexpected command kind %s", cmd.Kind())
	}
}

// HandleOrderConfirmed creates the seat assignments aggregate for a
// confirmed order.  The event queue may redeliver; an aggregate that
// already exists, or a concurrent creation losing the append race, is
// treated as done.
func (w *AssignmentsWorker) HandleOrderConfirmed(ctx context.Context, d amqp.Delivery) error {
	var msg queue.EventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("assignments-worker: decode event envelope: %v", err)
		return nil
	}
	if msg.Kind != event.KindOrderConfirmed {
		log.Printf("assignments-worker: unexpected event kind %s", msg.Kind)
		return nil
	}

	id := AssignmentsIDFor(msg.SourceID)
	if _, ok, err := w.assignments.Find(ctx, id); err != nil {
		return err
	} else if ok {
		return nil
	}

	order, err := w.orders.Get(ctx, msg.SourceID)
	if err != nil {
		if errors.Is(err, eventstore.ErrNotFound) {
			log.Printf("assignments-worker: confirmed order %s not found", msg.SourceID)
			return nil
		}
		return err
	}
	sa, err := order.CreateSeatAssignments(id)
	if err != nil {
		log.Printf("assignments-worker: order %s: %v", msg.SourceID, err)
		return nil
	}

	causation := fmt.Sprintf("%s/%d", msg.SourceID, msg.Version)
	err = w.assignments.Save(ctx, sa, causation)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		// Another delivery created the aggregate first.
		return nil
	case errors.Is(err, eventstore.ErrPublishFailed):
		log.Printf("assignments-worker: create for order %s: %v", msg.SourceID, err)
		return nil
	default:
		return err
	}
}
