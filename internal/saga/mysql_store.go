package saga

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

// MySQLStore keeps saga instances in the order_process table.  The
// version column is the optimistic concurrency token: every update is a
// conditional UPDATE on the version the caller loaded.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore returns a store bound to the provided database.
func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

// Find loads the process for an order.
func (s *MySQLStore) Find(ctx context.Context, orderID string) (*Instance, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT order_id, conference_id, reservation_id, state, reservation_auto_expiration,
		        expires_at, completed, version
		 FROM order_process WHERE order_id = ?`,
		orderID,
	)
	var (
		inst      Instance
		state     string
		expiresAt sql.NullTime
	)
	err := row.Scan(&inst.OrderID, &inst.ConferenceID, &inst.ReservationID, &state,
		&inst.ReservationAutoExpiration, &expiresAt, &inst.Completed, &inst.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("saga: find %s: %w", orderID, err)
	}
	inst.State = State(state)
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		inst.ExpiresAt = &t
	}
	return &inst, nil
}

// Insert stores a new process at version 1.
func (s *MySQLStore) Insert(ctx context.Context, inst *Instance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_process
		   (order_id, conference_id, reservation_id, state, reservation_auto_expiration,
		    expires_at, completed, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		inst.OrderID, inst.ConferenceID, inst.ReservationID, string(inst.State),
		inst.ReservationAutoExpiration, nullableTime(inst.ExpiresAt), inst.Completed,
	)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrAlreadyExists
		}
		return fmt.Errorf("saga: insert %s: %w", inst.OrderID, err)
	}
	inst.Version = 1
	return nil
}

// Update stores the instance under the optimistic version check.
func (s *MySQLStore) Update(ctx context.Context, inst *Instance) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE order_process
		 SET conference_id = ?, reservation_id = ?, state = ?, reservation_auto_expiration = ?,
		     expires_at = ?, completed = ?, version = version + 1
		 WHERE order_id = ? AND version = ?`,
		inst.ConferenceID, inst.ReservationID, string(inst.State), inst.ReservationAutoExpiration,
		nullableTime(inst.ExpiresAt), inst.Completed, inst.OrderID, inst.Version,
	)
	if err != nil {
		return fmt.Errorf("saga: update %s: %w", inst.OrderID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saga: update %s: %w", inst.OrderID, err)
	}
	if affected == 0 {
		return ErrConcurrencyConflict
	}
	inst.Version++
	return nil
}

// DueForExpiration scans for incomplete processes whose timer has fired.
func (s *MySQLStore) DueForExpiration(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id FROM order_process
		 WHERE completed = 0 AND expires_at IS NOT NULL AND expires_at <= ?
		 ORDER BY expires_at LIMIT ?`,
		now.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("saga: due scan: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("saga: due scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
