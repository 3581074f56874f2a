/*
Package sqlite provides a SQLite-backed implementation of the store contract.

PURPOSE:
  An alternate backend for the four entity collections with identical
  semantics to the in-memory store: same latency model, same NotFound
  error, same copy-on-read behavior. The default DSN is ":memory:", so
  state still lives in process memory and resets on restart; pointing it
  at a file is an operator opt-in.

SCHEMA:
  One table per entity. The record body is stored as a JSON payload next
  to the id, which keeps the implementation generic across entity types:

    CREATE TABLE deals (
      id         INTEGER PRIMARY KEY AUTOINCREMENT,
      body       TEXT NOT NULL,
      created_at TEXT NOT NULL
    );

  AUTOINCREMENT gives the same id guarantee as the memory store's
  watermark: ids are strictly increasing and never reused after deletion.

CONCURRENCY:
  Updates are read-modify-write over the JSON body, guarded by a mutex
  shared across the connection plus a SQL transaction, mirroring how the
  memory store serializes mutations.

USAGE:
  st, err := sqlite.New(":memory:", crm.DefaultLatency())
  if err != nil { ... }
  defer st.Close()
  stores := st.Stores()

SEE ALSO:
  - crm/store.go: the contract this package implements
  - crm/store/memory.go: the in-memory twin
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pulse/crm-engine/crm"
)

// Store owns the database connection and hands out per-entity collections.
type Store struct {
	db *sql.DB
	mu sync.Mutex

	latency crm.Latency
}

// New opens (or creates) the database and migrates the schema. Use ":memory:"
// for a throwaway in-process database.
func New(dsn string, latency crm.Latency) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A ":memory:" database exists per connection; a second pooled
	// connection would see an empty schema.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, latency: latency}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	for _, table := range []string{"contacts", "deals", "messages", "activities"} {
		schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			body       TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`, table)
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// Contacts returns the contact collection.
func (s *Store) Contacts() crm.ContactStore {
	return &collection[crm.Contact, crm.ContactPatch]{store: s, table: "contacts", entity: "contact"}
}

// Deals returns the deal collection.
func (s *Store) Deals() crm.DealStore {
	return &collection[crm.Deal, crm.DealPatch]{store: s, table: "deals", entity: "deal"}
}

// Messages returns the message collection.
func (s *Store) Messages() crm.MessageStore {
	return &collection[crm.Message, crm.MessagePatch]{store: s, table: "messages", entity: "message"}
}

// Activities returns the activity collection.
func (s *Store) Activities() crm.ActivityStore {
	return &collection[crm.Activity, crm.ActivityPatch]{store: s, table: "activities", entity: "activity"}
}

// Stores bundles all four collections.
func (s *Store) Stores() crm.Stores {
	return crm.Stores{
		Contacts:   s.Contacts(),
		Deals:      s.Deals(),
		Messages:   s.Messages(),
		Activities: s.Activities(),
	}
}

// =============================================================================
// COLLECTION - Generic per-table CRUD
// =============================================================================

type collection[T crm.Entity[T, P], P any] struct {
	store  *Store
	table  string
	entity string
}

func (c *collection[T, P]) GetAll(ctx context.Context) ([]T, error) {
	if err := crm.Pause(ctx, c.store.latency.GetAll); err != nil {
		return nil, err
	}
	return c.getAllNoPause(ctx)
}

func (c *collection[T, P]) GetByID(ctx context.Context, id crm.ID) (T, error) {
	var zero T
	if err := crm.Pause(ctx, c.store.latency.GetByID); err != nil {
		return zero, err
	}
	return c.loadOne(ctx, id)
}

func (c *collection[T, P]) Create(ctx context.Context, rec T) (T, error) {
	var zero T
	if err := crm.Pause(ctx, c.store.latency.Create); err != nil {
		return zero, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	stamped := rec.Clone().Stamped(crm.NowISO())
	stored := stamped

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		body, err := json.Marshal(stamped)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (body, created_at) VALUES (?, ?)", c.table),
			string(body), crm.NowISO())
		if err != nil {
			return err
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		// The body must carry the assigned id so reads stay self-contained.
		stored = stamped.WithRecordID(crm.ID(newID))
		body, err = json.Marshal(stored)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET body = ? WHERE id = ?", c.table),
			string(body), newID)
		return err
	})
	if err != nil {
		return zero, fmt.Errorf("failed to create %s: %w", c.entity, err)
	}
	return stored, nil
}

func (c *collection[T, P]) Update(ctx context.Context, id crm.ID, patch P) (T, error) {
	var zero T
	if err := crm.Pause(ctx, c.store.latency.Update); err != nil {
		return zero, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var merged T
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var body string
		row := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT body FROM %s WHERE id = ?", c.table), int(id))
		if err := row.Scan(&body); err != nil {
			if err == sql.ErrNoRows {
				return &crm.NotFoundError{Entity: c.entity, ID: id}
			}
			return err
		}

		var rec T
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return fmt.Errorf("corrupt %s payload: %w", c.entity, err)
		}
		merged = rec.Merge(patch).WithRecordID(id)

		out, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET body = ? WHERE id = ?", c.table),
			string(out), int(id))
		return err
	})
	if err != nil {
		return zero, err
	}
	return merged, nil
}

func (c *collection[T, P]) Delete(ctx context.Context, id crm.ID) error {
	if err := crm.Pause(ctx, c.store.latency.Delete); err != nil {
		return err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	res, err := c.store.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.table), int(id))
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", c.entity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &crm.NotFoundError{Entity: c.entity, ID: id}
	}
	return nil
}

func (c *collection[T, P]) Where(ctx context.Context, keep func(T) bool) ([]T, error) {
	if err := crm.Pause(ctx, c.store.latency.GetByID); err != nil {
		return nil, err
	}

	all, err := c.getAllNoPause(ctx)
	if err != nil {
		return nil, err
	}
	var out []T
	for _, rec := range all {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Reset clears the table, resets the id sequence, and inserts the seed
// records with their fixture ids.
func (c *collection[T, P]) Reset(ctx context.Context, records []T) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	return c.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", c.table)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", c.table); err != nil {
			return err
		}
		for _, rec := range records {
			body, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("INSERT INTO %s (id, body, created_at) VALUES (?, ?, ?)", c.table),
				int(rec.RecordID()), string(body), crm.NowISO()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *collection[T, P]) loadOne(ctx context.Context, id crm.ID) (T, error) {
	var zero T
	var body string
	row := c.store.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT body FROM %s WHERE id = ?", c.table), int(id))
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return zero, &crm.NotFoundError{Entity: c.entity, ID: id}
		}
		return zero, err
	}
	var rec T
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return zero, fmt.Errorf("corrupt %s payload: %w", c.entity, err)
	}
	return rec, nil
}

func (c *collection[T, P]) getAllNoPause(ctx context.Context) ([]T, error) {
	rows, err := c.store.db.QueryContext(ctx, fmt.Sprintf("SELECT body FROM %s ORDER BY id", c.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var rec T
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("corrupt %s payload: %w", c.entity, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (c *collection[T, P]) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
