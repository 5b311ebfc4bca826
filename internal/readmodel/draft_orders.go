// Package readmodel maintains the denormalized query-side tables.  Each
// projector folds the event stream it subscribes to into one table,
// guarding on the event version so duplicate or out-of-order deliveries
// are skipped with a warning instead of corrupting the view.
package readmodel

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/conference-registration/internal/event"
)

// ErrViewMissing is returned by readers when a view row does not exist.
var ErrViewMissing = errors.New("readmodel: view row not found")

// DraftOrder is one row of the draft_orders view, the registrant-facing
// picture of an order.
type DraftOrder struct {
	OrderID               string               `json:"order_id"`
	ConferenceID          string               `json:"conference_id"`
	State                 string               `json:"state"`
	Requested             []event.SeatQuantity `json:"requested"`
	Reserved              []event.SeatQuantity `json:"reserved"`
	RegistrantEmail       string               `json:"registrant_email,omitempty"`
	TotalCents            int64                `json:"total_cents"`
	IsFreeOfCharge        bool                 `json:"is_free_of_charge"`
	ReservationExpiration *time.Time           `json:"reservation_expiration,omitempty"`
	LastVersion           int                  `json:"-"`
}

// DraftOrderProjector folds order events into draft_orders.
type DraftOrderProjector struct {
	db *sql.DB
}

// NewDraftOrderProjector binds the projector to the database.
func NewDraftOrderProjector(db *sql.DB) *DraftOrderProjector {
	return &DraftOrderProjector{db: db}
}

// Get returns the draft view of an order, or ErrViewMissing.
func (p *DraftOrderProjector) Get(ctx context.Context, orderID string) (*DraftOrder, error) {
	const q = `SELECT order_id, conference_id, state, requested, reserved,
	                  registrant_email, total_cents, is_free_of_charge,
	                  reservation_expiration, last_version
	           FROM draft_orders WHERE order_id = ?`
	var (
		d                   DraftOrder
		requested, reserved []byte
		email               sql.NullString
		expiration          sql.NullTime
	)
	err := p.db.QueryRowContext(ctx, q, orderID).Scan(
		&d.OrderID, &d.ConferenceID, &d.State, &requested, &reserved,
		&email, &d.TotalCents, &d.IsFreeOfCharge, &expiration, &d.LastVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrViewMissing
	}
	if err != nil {
		return nil, fmt.Errorf("readmodel: get draft %s: %w", orderID, err)
	}
	if err := json.Unmarshal(requested, &d.Requested); err != nil {
		return nil, fmt.Errorf("readmodel: decode requested for %s: %w", orderID, err)
	}
	if len(reserved) > 0 {
		if err := json.Unmarshal(reserved, &d.Reserved); err != nil {
			return nil, fmt.Errorf("readmodel: decode reserved for %s: %w", orderID, err)
		}
	}
	if email.Valid {
		d.RegistrantEmail = email.String
	}
	if expiration.Valid {
		t := expiration.Time.UTC()
		d.ReservationExpiration = &t
	}
	return &d, nil
}

// Apply folds one order event into the view.  Events older than the
// row's last applied version are duplicates and skipped.
func (p *DraftOrderProjector) Apply(ctx context.Context, msg event.Versioned) error {
	switch e := msg.Payload.(type) {
	case event.OrderPlaced:
		requested, err := json.Marshal(e.Seats)
		if err != nil {
			return fmt.Errorf("readmodel: encode seats for %s: %w", msg.SourceID, err)
		}
		const q = `INSERT INTO draft_orders
		             (order_id, conference_id, state, requested, total_cents, is_free_of_charge, last_version)
		           VALUES (?, ?, 'created', ?, 0, 1, ?)
		           ON DUPLICATE KEY UPDATE order_id = order_id`
		_, err = p.db.ExecContext(ctx, q, msg.SourceID, e.ConferenceID, requested, msg.Version)
		if err != nil {
			return fmt.Errorf("readmodel: insert draft %s: %w", msg.SourceID, err)
		}
		return nil

	case event.OrderUpdated:
		requested, err := json.Marshal(e.Seats)
		if err != nil {
			return fmt.Errorf("readmodel: encode seats for %s: %w", msg.SourceID, err)
		}
		return p.update(ctx, msg,
			`requested = ?, reserved = NULL, reservation_expiration = NULL`, requested)

	case event.OrderPartiallyReserved:
		return p.applyReservation(ctx, msg, "partially_reserved", e.Seats, e.ReservationExpiration)

	case event.OrderReservationCompleted:
		return p.applyReservation(ctx, msg, "reservation_completed", e.Seats, e.ReservationExpiration)

	case event.OrderRegistrantAssigned:
		return p.update(ctx, msg, `registrant_email = ?`, e.Email)

	case event.OrderTotalsCalculated:
		return p.update(ctx, msg, `total_cents = ?, is_free_of_charge = ?`, e.TotalCents, e.IsFreeOfCharge)

	case event.OrderConfirmed:
		return p.update(ctx, msg, `state = 'confirmed', reservation_expiration = NULL`)

	case event.OrderExpired:
		return p.update(ctx, msg, `state = 'expired', reservation_expiration = NULL`)

	default:
		return nil
	}
}

func (p *DraftOrderProjector) applyReservation(ctx context.Context, msg event.Versioned, state string, seats []event.SeatQuantity, expiration time.Time) error {
	reserved, err := json.Marshal(seats)
	if err != nil {
		return fmt.Errorf("readmodel: encode reserved for %s: %w", msg.SourceID, err)
	}
	return p.update(ctx, msg,
		`state = ?, reserved = ?, reservation_expiration = ?`, state, reserved, expiration.UTC())
}

// update runs a version-guarded UPDATE.  An untouched row means the
// delivery was stale: already applied, or overtaken by a newer event.
func (p *DraftOrderProjector) update(ctx context.Context, msg event.Versioned, set string, args ...any) error {
	q := `UPDATE draft_orders SET ` + set + `, last_version = ?
	      WHERE order_id = ? AND last_version < ?`
	args = append(args, msg.Version, msg.SourceID, msg.Version)
	res, err := p.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("readmodel: project %s v%d for %s: %w", msg.Payload.Kind(), msg.Version, msg.SourceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Printf("readmodel: skipped stale %s v%d for %s", msg.Payload.Kind(), msg.Version, msg.SourceID)
	}
	return nil
}
