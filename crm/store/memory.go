// Package store provides the in-memory Store implementation.
package store

import (
	"context"
	"sync"

	"github.com/pulse/crm-engine/crm"
)

// =============================================================================
// MEMORY STORE - In-memory collection imitating an async network service
// =============================================================================

// Memory owns one entity collection for the process lifetime. Records are
// kept in insertion order; every operation waits out the simulated latency
// before touching state, and all results are deep copies so callers never
// alias store internals.
type Memory[T crm.Entity[T, P], P any] struct {
	mu      sync.Mutex
	entity  string
	latency crm.Latency
	records []T
	lastID  crm.ID
}

// NewMemory creates a collection seeded with the given records. entity names
// the collection in NotFound errors ("contact", "deal", ...).
func NewMemory[T crm.Entity[T, P], P any](entity string, latency crm.Latency, seed []T) *Memory[T, P] {
	m := &Memory[T, P]{entity: entity, latency: latency}
	m.load(seed)
	return m
}

func (m *Memory[T, P]) load(seed []T) {
	m.records = make([]T, 0, len(seed))
	m.lastID = 0
	for _, rec := range seed {
		if rec.RecordID() > m.lastID {
			m.lastID = rec.RecordID()
		}
		m.records = append(m.records, rec.Clone())
	}
}

// GetAll returns a snapshot of all records in insertion order.
func (m *Memory[T, P]) GetAll(ctx context.Context) ([]T, error) {
	if err := crm.Pause(ctx, m.latency.GetAll); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]T, len(m.records))
	for i, rec := range m.records {
		out[i] = rec.Clone()
	}
	return out, nil
}

// GetByID returns a copy of the record with the given id.
func (m *Memory[T, P]) GetByID(ctx context.Context, id crm.ID) (T, error) {
	var zero T
	if err := crm.Pause(ctx, m.latency.GetByID); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return zero, &crm.NotFoundError{Entity: m.entity, ID: id}
	}
	return m.records[i].Clone(), nil
}

// Create assigns the next id and stamps the creation time. Ids are strictly
// increasing for the process lifetime; deleting the highest record does not
// free its id.
func (m *Memory[T, P]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := crm.Pause(ctx, m.latency.Create); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	stored := rec.Clone().WithRecordID(m.lastID).Stamped(crm.NowISO())
	m.records = append(m.records, stored)
	return stored.Clone(), nil
}

// Update merges the patch into the stored record. The id is immutable and a
// NotFound failure leaves the collection unchanged.
func (m *Memory[T, P]) Update(ctx context.Context, id crm.ID, patch P) (T, error) {
	var zero T
	if err := crm.Pause(ctx, m.latency.Update); err != nil {
		return zero, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return zero, &crm.NotFoundError{Entity: m.entity, ID: id}
	}
	merged := m.records[i].Merge(patch).WithRecordID(id)
	m.records[i] = merged
	return merged.Clone(), nil
}

// Delete removes the record. The id is not reused.
func (m *Memory[T, P]) Delete(ctx context.Context, id crm.ID) error {
	if err := crm.Pause(ctx, m.latency.Delete); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return &crm.NotFoundError{Entity: m.entity, ID: id}
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	return nil
}

// Where returns copies of the records matching keep, preserving order. The
// scan is pure; keep must not mutate anything.
func (m *Memory[T, P]) Where(ctx context.Context, keep func(T) bool) ([]T, error) {
	if err := crm.Pause(ctx, m.latency.GetByID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []T
	for _, rec := range m.records {
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// Reset replaces the collection with seed records and restarts the id
// watermark from the highest seed id.
func (m *Memory[T, P]) Reset(ctx context.Context, records []T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.load(records)
	return nil
}

func (m *Memory[T, P]) indexLocked(id crm.ID) int {
	for i, rec := range m.records {
		if rec.RecordID() == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// WIRING
// =============================================================================

// NewStores builds the four in-memory collections from seed data.
func NewStores(latency crm.Latency, contacts []crm.Contact, deals []crm.Deal, messages []crm.Message, activities []crm.Activity) crm.Stores {
	return crm.Stores{
		Contacts:   NewMemory[crm.Contact, crm.ContactPatch]("contact", latency, contacts),
		Deals:      NewMemory[crm.Deal, crm.DealPatch]("deal", latency, deals),
		Messages:   NewMemory[crm.Message, crm.MessagePatch]("message", latency, messages),
		Activities: NewMemory[crm.Activity, crm.ActivityPatch]("activity", latency, activities),
	}
}
