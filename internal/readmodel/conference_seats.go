package readmodel

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/iliyamo/conference-registration/internal/event"
)

// SeatCount is one row of the conference_seats_view: how many seats of a
// type are still unreserved for a conference.
type SeatCount struct {
	ConferenceID string `json:"conference_id"`
	SeatType     string `json:"seat_type"`
	Remaining    int    `json:"remaining"`
}

// ConferenceSeatsProjector folds availability events into
// conference_seats_view.  The availability aggregate emits net deltas, so
// the projection is a guarded running sum per (conference, seat type).
type ConferenceSeatsProjector struct {
	db *sql.DB
}

// NewConferenceSeatsProjector binds the projector to the database.
func NewConferenceSeatsProjector(db *sql.DB) *ConferenceSeatsProjector {
	return &ConferenceSeatsProjector{db: db}
}

// Remaining returns the per-type remaining counts for a conference.
func (p *ConferenceSeatsProjector) Remaining(ctx context.Context, conferenceID string) ([]SeatCount, error) {
	const q = `SELECT conference_id, seat_type, remaining
	           FROM conference_seats_view WHERE conference_id = ? ORDER BY seat_type`
	rows, err := p.db.QueryContext(ctx, q, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("readmodel: seats view %s: %w", conferenceID, err)
	}
	defer rows.Close()

	var out []SeatCount
	for rows.Next() {
		var sc SeatCount
		if err := rows.Scan(&sc.ConferenceID, &sc.SeatType, &sc.Remaining); err != nil {
			return nil, fmt.Errorf("readmodel: seats view scan: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Apply folds one availability event into the view.  The whole event is
// applied in a transaction guarded by the per-conference last_version row
// so a redelivered event cannot double-count its deltas.
func (p *ConferenceSeatsProjector) Apply(ctx context.Context, msg event.Versioned) error {
	var deltas []event.SeatQuantity
	switch e := msg.Payload.(type) {
	case event.SeatsAvailabilityChanged:
		deltas = []event.SeatQuantity{{SeatType: e.SeatType, Quantity: e.Delta}}
	case event.SeatsReserved:
		deltas = e.AvailabilityChanged
	case event.SeatsReservationCancelled:
		deltas = e.AvailabilityChanged
	case event.SeatsReservationCommitted:
		// Committing consumes the pending reservation; remaining counts
		// already reflect the taken seats.
		deltas = nil
	default:
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("readmodel: begin seats projection: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO conference_seats_progress (conference_id, last_version) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE
		   last_version = IF(last_version < VALUES(last_version), VALUES(last_version), last_version)`,
		msg.SourceID, msg.Version)
	if err != nil {
		return fmt.Errorf("readmodel: seats progress %s: %w", msg.SourceID, err)
	}
	// MySQL reports 1 for a fresh insert and 2 for an update that changed
	// the row; 0 means the guard rejected a stale version.
	if n, _ := res.RowsAffected(); n == 0 {
		log.Printf("readmodel: skipped stale %s v%d for %s", msg.Payload.Kind(), msg.Version, msg.SourceID)
		committed = true
		return tx.Commit()
	}

	for _, d := range deltas {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO conference_seats_view (conference_id, seat_type, remaining)
			 VALUES (?, ?, ?)
			 ON DUPLICATE KEY UPDATE remaining = remaining + VALUES(remaining)`,
			msg.SourceID, d.SeatType, d.Quantity)
		if err != nil {
			return fmt.Errorf("readmodel: project %s for %s/%s: %w", msg.Payload.Kind(), msg.SourceID, d.SeatType, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("readmodel: commit seats projection: %w", err)
	}
	committed = true
	return nil
}
