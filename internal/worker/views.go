package worker

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/conference-registration/internal/event"
	"github.com/iliyamo/conference-registration/internal/queue"
	"github.com/iliyamo/conference-registration/internal/readmodel"
)

// ViewsWorker consumes the views queue and feeds every event into the
// projector responsible for its aggregate type.
type ViewsWorker struct {
	drafts *readmodel.DraftOrderProjector
	seats  *readmodel.ConferenceSeatsProjector
}

// NewViewsWorker builds the worker over both projectors.
func NewViewsWorker(drafts *readmodel.DraftOrderProjector, seats *readmodel.ConferenceSeatsProjector) *ViewsWorker {
	return &ViewsWorker{drafts: drafts, seats: seats}
}

// Handle projects one event delivery.  Projectors skip stale versions
// themselves; only infrastructure failures reject the delivery.
func (w *ViewsWorker) Handle(ctx context.Context, d amqp.Delivery) error {
	var msg queue.EventMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("views-worker: decode event envelope: %v", err)
		return nil
	}
	payload, err := event.Unmarshal(msg.Kind, msg.Payload)
	if err != nil {
		log.Printf("views-worker: decode %s payload: %v", msg.Kind, err)
		return nil
	}
	versioned := event.Versioned{SourceID: msg.SourceID, Version: msg.Version, Payload: payload}

	switch msg.AggregateType {
	case event.AggregateOrder:
		return w.drafts.Apply(ctx, versioned)
	case event.AggregateAvailability:
		return w.seats.Apply(ctx, versioned)
	default:
		return nil
	}
}
