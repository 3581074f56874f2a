/*
Package seed loads the embedded demo dataset.

PURPOSE:
  The engine starts from JSON fixtures, loaded once at process start, the
  same role the mock-data files play for the SPA. Fixtures are treated as
  an opaque external source of {"records": [...]} documents; this package
  parses them, validates the invariants the stores assume (unique positive
  ids, known stage names, non-negative deal values), and hands the records
  to whichever store backend is in use.

  The same dataset backs /api/reset and test fixtures.

SEE ALSO:
  - fixtures/: the embedded JSON documents
  - crm/store/memory.go, store/sqlite: consumers via Store.Reset
*/
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/pulse/crm-engine/crm"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Dataset is the full demo dataset, one slice per entity collection.
type Dataset struct {
	Contacts   []crm.Contact
	Deals      []crm.Deal
	Messages   []crm.Message
	Activities []crm.Activity
}

type file[T any] struct {
	Records []T `json:"records"`
}

// Load parses and validates the embedded fixtures against the given stage
// configuration.
func Load(stages crm.StageList) (Dataset, error) {
	var ds Dataset
	var err error

	if ds.Contacts, err = decode[crm.Contact]("contacts"); err != nil {
		return Dataset{}, err
	}
	if ds.Deals, err = decode[crm.Deal]("deals"); err != nil {
		return Dataset{}, err
	}
	if ds.Messages, err = decode[crm.Message]("messages"); err != nil {
		return Dataset{}, err
	}
	if ds.Activities, err = decode[crm.Activity]("activities"); err != nil {
		return Dataset{}, err
	}

	if err := ds.validate(stages); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func decode[T any](name string) ([]T, error) {
	raw, err := fixtures.ReadFile("fixtures/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("missing fixture %s: %w", name, err)
	}
	var f file[T]
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("malformed fixture %s: %w", name, err)
	}
	return f.Records, nil
}

func (ds Dataset) validate(stages crm.StageList) error {
	if err := uniqueIDs("contact", ids(ds.Contacts)); err != nil {
		return err
	}
	if err := uniqueIDs("deal", ids(ds.Deals)); err != nil {
		return err
	}
	if err := uniqueIDs("message", ids(ds.Messages)); err != nil {
		return err
	}
	if err := uniqueIDs("activity", ids(ds.Activities)); err != nil {
		return err
	}

	for _, d := range ds.Deals {
		if !stages.Contains(d.Stage) {
			return fmt.Errorf("deal %d: %w", d.ID, &crm.InvalidStageError{Stage: d.Stage})
		}
		if d.Value.IsNegative() {
			return fmt.Errorf("deal %d: negative value %s", d.ID, d.Value)
		}
	}
	return nil
}

func ids[T interface{ RecordID() crm.ID }](records []T) []crm.ID {
	out := make([]crm.ID, len(records))
	for i, r := range records {
		out[i] = r.RecordID()
	}
	return out
}

func uniqueIDs(entity string, ids []crm.ID) error {
	seen := make(map[crm.ID]bool, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%s fixture: non-positive id %d", entity, id)
		}
		if seen[id] {
			return fmt.Errorf("%s fixture: duplicate id %d", entity, id)
		}
		seen[id] = true
	}
	return nil
}

// Apply resets every collection to the dataset contents.
func (ds Dataset) Apply(ctx context.Context, stores crm.Stores) error {
	if err := stores.Contacts.Reset(ctx, ds.Contacts); err != nil {
		return err
	}
	if err := stores.Deals.Reset(ctx, ds.Deals); err != nil {
		return err
	}
	if err := stores.Messages.Reset(ctx, ds.Messages); err != nil {
		return err
	}
	return stores.Activities.Reset(ctx, ds.Activities)
}
