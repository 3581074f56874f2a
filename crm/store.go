/*
store.go - The asynchronous CRUD contract every entity collection exposes

PURPOSE:
  Defines the uniform store interface backing all four pages (inbox,
  contacts, pipeline, timeline). Implementations imitate a network service:
  each operation blocks for a configurable simulated latency before touching
  any state, and every result is an independent copy of the stored record.

CONTRACT:
  GetAll:  snapshot of all records in insertion order. Never fails.
  GetByID: copy of one record, NotFound if absent.
  Create:  assigns the next id, stamps the creation time, appends.
  Update:  shallow-merges a patch into the record. NotFound if absent.
           A failed update leaves the collection unchanged.
  Delete:  removes the record, NotFound if absent. The id is never reused.
  Where:   pure linear-scan filter over a snapshot.
  Reset:   replaces the collection with seed records (test isolation and
           the /api/reset endpoint).

ORDERING:
  Within one store, operations are serviced in lock-acquisition order, but
  the latency model means two overlapping calls can resolve in either order.
  Callers that need strict ordering must await each call before issuing the
  next; the store does not serialize per record id.

IMPLEMENTATIONS:
  - crm/store/memory.go: in-memory slice (the default backend)
  - store/sqlite/sqlite.go: SQLite-backed, ":memory:" by default

SEE ALSO:
  - errors.go: NotFoundError
*/
package crm

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Uniform asynchronous CRUD contract
// =============================================================================

type Store[T Entity[T, P], P any] interface {
	// GetAll returns an independent snapshot of every record, in insertion
	// order. It never fails under normal operation.
	GetAll(ctx context.Context) ([]T, error)

	// GetByID returns a copy of the record with the given id.
	GetByID(ctx context.Context, id ID) (T, error)

	// Create assigns the next id, stamps the creation timestamp, appends the
	// record, and returns a copy of it.
	Create(ctx context.Context, rec T) (T, error)

	// Update merges the patch into the stored record and returns a copy of
	// the result. The id is immutable.
	Update(ctx context.Context, id ID, patch P) (T, error)

	// Delete removes the record. Its id is not reused for the remainder of
	// the process lifetime.
	Delete(ctx context.Context, id ID) error

	// Where returns copies of the records matching keep, preserving order.
	Where(ctx context.Context, keep func(T) bool) ([]T, error)

	// Reset replaces the collection contents with seed records.
	Reset(ctx context.Context, records []T) error
}

// Concrete store contracts for the four entity collections.
type (
	ContactStore  = Store[Contact, ContactPatch]
	DealStore     = Store[Deal, DealPatch]
	MessageStore  = Store[Message, MessagePatch]
	ActivityStore = Store[Activity, ActivityPatch]
)

// Stores bundles the four collections for dependency injection. Construct
// once in main (or per test) and pass down; there is no package-level
// singleton.
type Stores struct {
	Contacts   ContactStore
	Deals      DealStore
	Messages   MessageStore
	Activities ActivityStore
}

// =============================================================================
// LATENCY - Simulated network delay per operation
// =============================================================================

// Latency holds the artificial delay applied before each operation. The
// delay models a network round trip; it elapses fully before any state is
// read or written, so correctness never depends on it.
type Latency struct {
	GetAll  time.Duration
	GetByID time.Duration
	Create  time.Duration
	Update  time.Duration
	Delete  time.Duration
}

// DefaultLatency mirrors the per-operation delays of the mock services this
// engine replaces.
func DefaultLatency() Latency {
	return Latency{
		GetAll:  300 * time.Millisecond,
		GetByID: 200 * time.Millisecond,
		Create:  400 * time.Millisecond,
		Update:  300 * time.Millisecond,
		Delete:  250 * time.Millisecond,
	}
}

// NoLatency disables the simulated delay. Used by tests.
func NoLatency() Latency { return Latency{} }

// Pause blocks for d or until ctx is done, whichever comes first. A canceled
// context aborts the operation before any state has been touched, so the
// collection is left unchanged.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
