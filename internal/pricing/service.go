// Package pricing computes order totals from the conference seat-type
// prices.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/conference-registration/internal/conference"
	"github.com/iliyamo/conference-registration/internal/domain"
	"github.com/iliyamo/conference-registration/internal/event"
)

// ErrUnknownSeatType is returned when an order line names a seat type the
// conference does not sell.
var ErrUnknownSeatType = errors.New("pricing: unknown seat type")

// SeatTypeSource supplies a conference's seat types.  The cached
// conference reader satisfies it.
type SeatTypeSource interface {
	SeatTypes(ctx context.Context, conferenceID string) ([]conference.SeatType, error)
}

// Service prices reserved seats.  It implements domain.PricingService.
type Service struct {
	source SeatTypeSource
}

// NewService builds a pricing service over the seat-type source.
func NewService(source SeatTypeSource) *Service {
	return &Service{source: source}
}

// ComputeTotals prices the given seat quantities against the conference's
// seat types.  Zero-quantity lines (a partial reservation that granted
// nothing for a type) are priced as zero-total lines so the order still
// shows them.
func (s *Service) ComputeTotals(ctx context.Context, conferenceID string, seats []event.SeatQuantity) (domain.OrderTotals, error) {
	types, err := s.source.SeatTypes(ctx, conferenceID)
	if err != nil {
		return domain.OrderTotals{}, fmt.Errorf("pricing: conference %s: %w", conferenceID, err)
	}
	prices := make(map[string]int64, len(types))
	for _, st := range types {
		prices[st.Name] = st.PriceCents
	}

	var totals domain.OrderTotals
	for _, sq := range seats {
		price, ok := prices[sq.SeatType]
		if !ok {
			return domain.OrderTotals{}, fmt.Errorf("%w: %s", ErrUnknownSeatType, sq.SeatType)
		}
		line := event.PricedLine{
			SeatType:       sq.SeatType,
			Quantity:       sq.Quantity,
			UnitPriceCents: price,
			LineTotalCents: price * int64(sq.Quantity),
		}
		totals.Lines = append(totals.Lines, line)
		totals.TotalCents += line.LineTotalCents
	}
	totals.IsFreeOfCharge = totals.TotalCents == 0
	return totals, nil
}
