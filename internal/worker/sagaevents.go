package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/conference-registration/internal/event"
	"github.com/iliyamo/conference-registration/internal/queue"
	"github.com/iliyamo/conference-registration/internal/saga"
)

// SagaWorker feeds subscribed aggregate events into the order process.
type SagaWorker struct {
	processor *saga.Processor
}

// NewSagaWorker builds the worker over the saga processor.
func NewSagaWorker(processor *saga.Processor) *SagaWorker {
	return &SagaWorker{processor: processor}
}

// Handle translates one event delivery into a saga message and applies
// it.  Duplicate and out-of-order deliveries surface as
// ErrUnexpectedMessage and are acknowledged after a warning.
func (w *SagaWorker) Handle(ctx context.Context, d amqp.Delivery) error {
	var msg queue.EventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("saga-worker: decode event envelope: %v", err)
		return nil
	}
	payload, err := event.Unmarshal(msg.Kind, msg.Payload)
	if err != nil {
		log.Printf("saga-worker: decode %s payload: %v", msg.Kind, err)
		return nil
	}

	var orderID string
	var m saga.Message
	switch e := payload.(type) {
	case event.OrderPlaced:
		orderID = msg.SourceID
		m = saga.OrderPlacedMessage{
			ConferenceID:              e.ConferenceID,
			Seats:                     e.Seats,
			ReservationAutoExpiration: e.ReservationAutoExpiration,
		}
	case event.OrderUpdated:
		orderID = msg.SourceID
		m = saga.OrderUpdatedMessage{Seats: e.Seats}
	case event.OrderConfirmed:
		orderID = msg.SourceID
		m = saga.OrderConfirmedMessage{}
	case event.SeatsReserved:
		// The reservation id is the order id of the process that asked.
		orderID = e.ReservationID
		m = saga.SeatsReservedMessage{Reserved: e.Reserved, Version: msg.Version}
	case event.PaymentCompleted:
		orderID = e.OrderID
		m = saga.PaymentCompletedMessage{}
	default:
		log.Printf("saga-worker: no transition subscribed for %s", msg.Kind)
		return nil
	}

	err = w.processor.Handle(ctx, orderID, m)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, saga.ErrUnexpectedMessage):
		log.Printf("saga-worker: order %s: %s ignored: %v", orderID, msg.Kind, err)
		return nil
	case errors.Is(err, saga.ErrPublishFailed):
		log.Printf("saga-worker: order %s: %v", orderID, err)
		return nil
	default:
		return err
	}
}
