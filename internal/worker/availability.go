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

// AvailabilityWorker consumes the seats availability command queue.  The
// aggregate is keyed by conference id and comes to exist with the first
// AddSeats for a conference.
type AvailabilityWorker struct {
	availability *eventstore.Repository[*domain.SeatsAvailability]
}

// NewAvailabilityWorker builds the worker over the availability
// repository.
func NewAvailabilityWorker(availability *eventstore.Repository[*domain.SeatsAvailability]) *AvailabilityWorker {
	return &AvailabilityWorker{availability: availability}
}

// Handle processes one command delivery.
func (w *AvailabilityWorker) Handle(ctx context.Context, d amqp.Delivery) error {
	cmd, err := decodeCommand(d.Body)
	if err != nil {
		log.Printf("availability-worker: %v", err)
		return nil
	}
	err = retryConflicts(func() error { return w.apply(ctx, cmd) })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eventstore.ErrPublishFailed):
		log.Printf("availability-worker: %s %s: %v", cmd.Kind(), cmd.CommandID(), err)
		return nil
	case rejected(err):
		log.Printf("availability-worker: %s %s rejected: %v", cmd.Kind(), cmd.CommandID(), err)
		return nil
	default:
		return err
	}
}

func (w *AvailabilityWorker) apply(ctx context.Context, cmd command.Command) error {
	switch c := cmd.(type) {
	case command.MakeSeatReservation:
		inv, err := w.availability.Get(ctx, c.ConferenceID)
		if err != nil {
			return err
		}
		if err := inv.MakeReservation(c.ReservationID, c.Seats); err != nil {
			return err
		}
		return w.availability.Save(ctx, inv, c.CommandID())

	case command.CancelSeatReservation:
		inv, ok, err := w.availability.Find(ctx, c.ConferenceID)
		if err != nil || !ok {
			return err
		}
		if err := inv.CancelReservation(c.ReservationID); err != nil {
			return err
		}
		return w.availability.Save(ctx, inv, c.CommandID())

	case command.CommitSeatReservation:
		inv, ok, err := w.availability.Find(ctx, c.ConferenceID)
		if err != nil || !ok {
			return err
		}
		if err := inv.CommitReservation(c.ReservationID); err != nil {
			return err
		}
		return w.availability.Save(ctx, inv, c.CommandID())

	case command.AddSeats:
		inv, ok, err := w.availability.Find(ctx, c.ConferenceID)
		if err != nil {
			return err
		}
		if !ok {
			inv = domain.NewSeatsAvailability(c.ConferenceID)
		}
		if err := inv.AddSeats(c.SeatType, c.Quantity); err != nil {
			return err
		}
		return w.availability.Save(ctx, inv, c.CommandID())

	case command.RemoveSeats:
		inv, err := w.availability.Get(ctx, c.ConferenceID)
		if err != nil {
			return err
		}
		if err := inv.RemoveSeats(c.SeatType, c.Quantity); err != nil {
			return err
		}
		return w.availability.Save(ctx, inv, c.CommandID())

	default:
		return fmt.Errorf("availability-worker: unexpected command kind %s", cmd.Kind())
	}
}
