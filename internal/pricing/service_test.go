package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/conference-registration/internal/conference"
	"github.com/iliyamo/conference-registration/internal/event"
)

type staticSource map[string][]conference.SeatType

func (s staticSource) SeatTypes(ctx context.Context, conferenceID string) ([]conference.SeatType, error) {
	return s[conferenceID], nil
}

func TestComputeTotals(t *testing.T) {
	svc := NewService(staticSource{
		"conf-1": {
			{ConferenceID: "conf-1", Name: "GA", PriceCents: 10000},
			{ConferenceID: "conf-1", Name: "VIP", PriceCents: 25000},
			{ConferenceID: "conf-1", Name: "Student", PriceCents: 0},
		},
	})

	tests := []struct {
		name      string
		seats     []event.SeatQuantity
		wantTotal int64
		wantFree  bool
		wantErr   error
		wantLines int
	}{
		{
			name:      "mixed lines",
			seats:     []event.SeatQuantity{{SeatType: "GA", Quantity: 2}, {SeatType: "VIP", Quantity: 1}},
			wantTotal: 45000,
			wantLines: 2,
		},
		{
			name:      "free seats only",
			seats:     []event.SeatQuantity{{SeatType: "Student", Quantity: 3}},
			wantTotal: 0,
			wantFree:  true,
			wantLines: 1,
		},
		{
			name:      "zero quantity line kept",
			seats:     []event.SeatQuantity{{SeatType: "GA", Quantity: 1}, {SeatType: "VIP", Quantity: 0}},
			wantTotal: 10000,
			wantLines: 2,
		},
		{
			name:    "unknown seat type",
			seats:   []event.SeatQuantity{{SeatType: "Backstage", Quantity: 1}},
			wantErr: ErrUnknownSeatType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			totals, err := svc.ComputeTotals(context.Background(), "conf-1", tc.seats)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeTotals: %v", err)
			}
			if totals.TotalCents != tc.wantTotal {
				t.Fatalf("total = %d, want %d", totals.TotalCents, tc.wantTotal)
			}
			if totals.IsFreeOfCharge != tc.wantFree {
				t.Fatalf("free = %v, want %v", totals.IsFreeOfCharge, tc.wantFree)
			}
			if len(totals.Lines) != tc.wantLines {
				t.Fatalf("lines = %d, want %d", len(totals.Lines), tc.wantLines)
			}
		})
	}
}
