/*
Package crm provides the core CRM engine: record types, the asynchronous
store contract, the pipeline aggregator, and the drag-transition engine.

PURPOSE:
  This package contains the domain types shared by every entity collection
  (contacts, deals, messages, activities) and the patch types used for
  partial updates. The store implementations live in crm/store (in-memory)
  and store/sqlite (SQLite-backed).

KEY CONCEPTS IN THIS FILE (types.go):
  - ID: positive integer record identifier, assigned by the store
  - Contact/Deal/Message/Activity: the four record types
  - *Patch: explicit partial-update types, one optional field per column
  - Entity: the constraint tying a record type to its patch type

DESIGN PRINCIPLES:
  1. Records are plain data. Callers always hold copies, never store internals.
  2. Patches are explicit: every patchable field is a pointer, nil means
     "leave unchanged". IDs and creation stamps are not patchable.
  3. Precision: deal values use decimal.Decimal so pipeline totals never
     accumulate floating-point error.
  4. Timestamps are ISO-8601 strings stamped once at creation.

USAGE:
  deal := crm.Deal{Title: "Acme renewal", Value: crm.Money(5000), Stage: "Lead"}
  created, err := stores.Deals.Create(ctx, deal)

SEE ALSO:
  - store.go: the Store contract and latency model
  - pipeline.go: pure aggregation over deal collections
  - drag.go: the drag-transition state machine
*/
package crm

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND TIMESTAMPS
// =============================================================================

// ID identifies a record within its collection. IDs are positive, unique,
// strictly increasing for the lifetime of the process, and never reused
// after deletion.
type ID int

// NowISO returns the current time as an ISO-8601 (RFC 3339) string, the
// format used for all record timestamps.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Money builds a decimal deal value from an integer dollar amount.
func Money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// =============================================================================
// ENTITY CONSTRAINT
// =============================================================================

// Entity ties a record type T to its patch type P. Implementations use value
// receivers and return new values; the store relies on this to hand out
// independent copies and to keep mutations atomic.
type Entity[T any, P any] interface {
	// RecordID returns the record's identifier (zero before creation).
	RecordID() ID

	// WithRecordID returns a copy with the identifier set.
	WithRecordID(ID) T

	// Stamped returns a copy with the creation timestamp set if it is empty.
	// The stamp is immutable afterwards.
	Stamped(iso string) T

	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() T

	// Merge returns a copy with the patch's non-nil fields applied.
	// The identifier and creation stamp are untouched.
	Merge(P) T
}

// =============================================================================
// CONTACT
// =============================================================================

type Contact struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Company     string   `json:"company"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	LastContact string   `json:"lastContact,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

// ContactPatch is a partial update to a Contact. Nil fields are left unchanged.
type ContactPatch struct {
	Name        *string
	Email       *string
	Phone       *string
	Company     *string
	Status      *string
	Tags        *[]string
	LastContact *string
}

func (c Contact) RecordID() ID { return c.ID }

func (c Contact) WithRecordID(id ID) Contact {
	c.ID = id
	return c
}

func (c Contact) Stamped(iso string) Contact {
	if c.CreatedAt == "" {
		c.CreatedAt = iso
	}
	return c
}

func (c Contact) Clone() Contact {
	if c.Tags != nil {
		c.Tags = append([]string(nil), c.Tags...)
	}
	return c
}

func (c Contact) Merge(p ContactPatch) Contact {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), *p.Tags...)
	}
	if p.LastContact != nil {
		c.LastContact = *p.LastContact
	}
	return c
}

// =============================================================================
// DEAL
// =============================================================================

type Deal struct {
	ID            ID              `json:"id"`
	Title         string          `json:"title"`
	Value         decimal.Decimal `json:"value"`
	Stage         string          `json:"stage"`
	ContactID     ID              `json:"contactId"`
	Probability   int             `json:"probability"`
	ExpectedClose string          `json:"expectedClose,omitempty"`
	CreatedAt     string          `json:"createdAt,omitempty"`
}

// DealPatch is a partial update to a Deal. Nil fields are left unchanged.
type DealPatch struct {
	Title         *string
	Value         *decimal.Decimal
	Stage         *string
	ContactID     *ID
	Probability   *int
	ExpectedClose *string
}

func (d Deal) RecordID() ID { return d.ID }

func (d Deal) WithRecordID(id ID) Deal {
	d.ID = id
	return d
}

func (d Deal) Stamped(iso string) Deal {
	if d.CreatedAt == "" {
		d.CreatedAt = iso
	}
	return d
}

func (d Deal) Clone() Deal { return d }

func (d Deal) Merge(p DealPatch) Deal {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Stage != nil {
		d.Stage = *p.Stage
	}
	if p.ContactID != nil {
		d.ContactID = *p.ContactID
	}
	if p.Probability != nil {
		d.Probability = *p.Probability
	}
	if p.ExpectedClose != nil {
		d.ExpectedClose = *p.ExpectedClose
	}
	return d
}

// =============================================================================
// MESSAGE
// =============================================================================

// Message statuses used by the inbox.
const (
	MessageUnread = "unread"
	MessageRead   = "read"
)

type Message struct {
	ID             ID     `json:"id"`
	Sender         string `json:"sender"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	Status         string `json:"status"`
	Source         string `json:"source,omitempty"`
	HasAttachments bool   `json:"hasAttachments"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// MessagePatch is a partial update to a Message. Nil fields are left unchanged.
type MessagePatch struct {
	Sender         *string
	Subject        *string
	Content        *string
	Status         *string
	Source         *string
	HasAttachments *bool
}

func (m Message) RecordID() ID { return m.ID }

func (m Message) WithRecordID(id ID) Message {
	m.ID = id
	return m
}

func (m Message) Stamped(iso string) Message {
	if m.Timestamp == "" {
		m.Timestamp = iso
	}
	return m
}

func (m Message) Clone() Message { return m }

func (m Message) Merge(p MessagePatch) Message {
	if p.Sender != nil {
		m.Sender = *p.Sender
	}
	if p.Subject != nil {
		m.Subject = *p.Subject
	}
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
	if p.HasAttachments != nil {
		m.HasAttachments = *p.HasAttachments
	}
	return m
}

// =============================================================================
// ACTIVITY
// =============================================================================

type Activity struct {
	ID          ID                `json:"id"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	ContactID   ID                `json:"contactId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   string            `json:"timestamp,omitempty"`
}

// ActivityPatch is a partial update to an Activity. Nil fields are left unchanged.
type ActivityPatch struct {
	Type        *string
	Description *string
	ContactID   *ID
	Metadata    *map[string]string
}

func (a Activity) RecordID() ID { return a.ID }

func (a Activity) WithRecordID(id ID) Activity {
	a.ID = id
	return a
}

func (a Activity) Stamped(iso string) Activity {
	if a.Timestamp == "" {
		a.Timestamp = iso
	}
	return a
}

func (a Activity) Clone() Activity {
	if a.Metadata != nil {
		meta := make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			meta[k] = v
		}
		a.Metadata = meta
	}
	return a
}

func (a Activity) Merge(p ActivityPatch) Activity {
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.ContactID != nil {
		a.ContactID = *p.ContactID
	}
	if p.Metadata != nil {
		meta := make(map[string]string, len(*p.Metadata))
		for k, v := range *p.Metadata {
			meta[k] = v
		}
		a.Metadata = meta
	}
	return a
}
