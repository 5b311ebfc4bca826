package worker

import (
	"context"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/conference-registration/internal/command"
	"github.com/iliyamo/conference-registration/internal/domain"
	"github.com/iliyamo/conference-registration/internal/eventstore"
)

// OrderWorker consumes the order command queue.
type OrderWorker struct {
	orders  *eventstore.Repository[*domain.Order]
	pricing domain.PricingService
}

// NewOrderWorker builds the worker over the order repository and the
// pricing service used when a reservation is acknowledged.
func NewOrderWorker(orders *eventstore.Repository[*domain.Order], pricing domain.PricingService) *OrderWorker {
	return &OrderWorker{orders: orders, pricing: pricing}
}

// Handle processes one command delivery.
func (w *OrderWorker) Handle(ctx context.Context, d amqp.Delivery) error {
	cmd, err := decodeCommand(d.Body)
	if err != nil {
		log.Printf("order-worker: %v", err)
		return nil
	}
	err = retryConflicts(func() error { return w.apply(ctx, cmd) })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eventstore.ErrPublishFailed):
		// The events are durable; only their delivery failed.  Re-running
		// the command would conflict, so log the gap and move on.
		log.Printf("order-worker: %s %s: %v", cmd.Kind(), cmd.CommandID(), err)
		return nil
	case rejected(err):
		log.Printf("order-worker: %s %s rejected: %v", cmd.Kind(), cmd.CommandID(), err)
		return nil
	default:
		return err
	}
}

func (w *OrderWorker) apply(ctx context.Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case command.RegisterToConference:
		order, ok, err := w.orders.Find(ctx, c.OrderID)
		if err != nil {
			return err
		}
		if !ok {
			order, err = domain.NewOrder(c.OrderID, c.ConferenceID, c.Seats)
			if err != nil {
				return err
			}
		} else if err := order.UpdateSeats(c.Seats); err != nil {
			return err
		}
		return w.orders.Save(ctx, order, c.CommandID())

	case command.MarkSeatsAsReserved:
		order, err := w.orders.Get(ctx, c.OrderID)
		if err != nil {
			return err
		}
		if err := order.MarkAsReserved(ctx, w.pricing, c.Expiration, c.Seats, c.ReservationVersion); err != nil {
			return err
		}
		return w.orders.Save(ctx, order, c.CommandID())

	case command.RejectOrder:
		order, err := w.orders.Get(ctx, c.OrderID)
		if err != nil {
			return err
		}
		if err := order.Expire(); err != nil {
			return err
		}
		return w.orders.Save(ctx, order, c.CommandID())

	case command.AssignRegistrantDetails:
		order, err := w.orders.Get(ctx, c.OrderID)
		if err != nil {
			return err
		}
		if err := order.AssignRegistrant(c.FirstName, c.LastName, c.Email); err != nil {
			return err
		}
		return w.orders.Save(ctx, order, c.CommandID())

	case command.ConfirmOrder:
		order, err := w.orders.Get(ctx, c.OrderID)
		if err != nil {
			return err
		}
		if err := order.Confirm(); err != nil {
			return err
		}
		return w.orders.Save(ctx, order, c.CommandID())

	default:
		return fmt.Errorf("order-worker: unexpected command kind %s", cmd.Kind())
	}
}
