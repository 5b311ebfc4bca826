package saga

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no process exists for an order.
var ErrNotFound = errors.New("saga: process not found")

// ErrAlreadyExists is returned when a process for the order was inserted
// concurrently.
var ErrAlreadyExists = errors.New("saga: process already exists")

// ErrConcurrencyConflict is returned when an update lost the optimistic
// version check.  The caller must reload the instance and recompute the
// transition.
var ErrConcurrencyConflict = errors.New("saga: concurrent modification")

// Store persists saga instances.  Updates are guarded by the instance
// version so two concurrently delivered messages for the same order can
// never both apply a transition against a stale snapshot.
type Store interface {
	// Find returns the process for an order, or ErrNotFound.
	Find(ctx context.Context, orderID string) (*Instance, error)

	// Insert persists a new process at version 1.  It fails with
	// ErrAlreadyExists if a process for the order is already stored.
	Insert(ctx context.Context, inst *Instance) error

	// Update persists the instance if its version still matches the
	// stored row, then bumps the version.  It fails with
	// ErrConcurrencyConflict otherwise.
	Update(ctx context.Context, inst *Instance) error

	// DueForExpiration returns the order ids of incomplete processes
	// whose timer deadline has passed.
	DueForExpiration(ctx context.Context, now time.Time, limit int) ([]string, error)
}
