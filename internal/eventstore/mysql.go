package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/conference-registration/internal/event"
)

// mysqlDuplicateEntry is the server error for a violated unique key.
const mysqlDuplicateEntry = 1062

// MySQLStore stores events in the `events` table.  The primary key
// (aggregate_id, aggregate_type, version) is what enforces the optimistic
// check: a stale writer inserting an already-taken version hits a
// duplicate-key error, which is surfaced as ErrConcurrencyConflict.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a store bound to the provided database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// Load returns the aggregate's events ordered by version.
func (s *MySQLStore) Load(ctx context.Context, aggregateType, id string) ([]event.Versioned, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, kind, payload FROM events
		 WHERE aggregate_id = ? AND aggregate_type = ?
		 ORDER BY version`,
		id, aggregateType,
	)
	if err != nil {
		return nil, fmt.Errorf("eventstore: load %s/%s: %w", aggregateType, id, err)
	}
	defer rows.Close()

	var history []event.Versioned
	for rows.Next() {
		var (
			version int
			kind    string
			payload []byte
		)
		if err := rows.Scan(&version, &kind, &payload); err != nil {
			return nil, fmt.Errorf("eventstore: scan %s/%s: %w", aggregateType, id, err)
		}
		p, err := event.Unmarshal(event.Kind(kind), payload)
		if err != nil {
			return nil, fmt.Errorf("eventstore: decode %s/%s v%d: %w", aggregateType, id, version, err)
		}
		history = append(history, event.Versioned{SourceID: id, Version: version, Payload: p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eventstore: load %s/%s: %w", aggregateType, id, err)
	}
	return history, nil
}

// Append inserts the events inside one transaction so a multi-event save
// is all-or-nothing.
func (s *MySQLStore) Append(ctx context.Context, aggregateType string, events []event.Versioned, causationID string) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("eventstore: begin append: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for _, e := range events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("eventstore: marshal %s v%d: %w", e.Payload.Kind(), e.Version, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (aggregate_id, aggregate_type, version, kind, payload, causation_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.SourceID, aggregateType, e.Version, string(e.Payload.Kind()), payload, causationID, now,
		)
		if err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
				return ErrConcurrencyConflict
			}
			return fmt.Errorf("eventstore: append %s/%s v%d: %w", aggregateType, e.SourceID, e.Version, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("eventstore: commit append: %w", err)
	}
	committed = true
	return nil
}
