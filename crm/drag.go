/*
drag.go - Drag-transition engine for the pipeline board

PURPOSE:
  Turns a drag gesture into a validated stage-change request and reconciles
  the outcome with the deal store. This is the explicit state machine that
  replaces drag-library callback soup; it is testable without any rendering
  surface.

STATE MACHINE (per gesture):
  Idle       no active drag
  Dragging   a source deal id is held; hover does not commit anything
  Committing the drop resolved to a different stage and the store update
             is in flight

  Begin:  Idle -> Dragging (fails with ErrDragInProgress otherwise)
  Cancel: Dragging -> Idle
  Drop:   Dragging -> Committing -> Idle

TRANSITION RULES (at drop):
  - no resolvable target (over id missing from the snapshot): no-op
  - source id == target id: no-op
  - destination stage == source's current stage: no-op (intra-column order
    is view-only; the store defines no sort key beyond insertion order)
  - otherwise: exactly one store Update(sourceID, {stage: destination})

  On success the authoritative record is returned for the caller to merge
  into its snapshot (see crm.MergeDeal). On failure the error propagates
  unchanged and the snapshot the caller handed in is never mutated, so a
  failed commit leaves the local stage as it was.

CONCURRENCY:
  Only one gesture is interpretable at a time. Begin fails while a commit
  is unresolved rather than queueing.

SEE ALSO:
  - pipeline.go: the aggregates that react to a committed transition
*/
package crm

import (
	"context"
	"sync"
)

// =============================================================================
// STATES AND EVENTS
// =============================================================================

type DragState string

const (
	DragIdle       DragState = "idle"
	DragDragging   DragState = "dragging"
	DragCommitting DragState = "committing"
)

// DropEvent is the gesture payload delivered at drag end: the dragged deal
// and the deal (or card slot) it was released over. A zero OverID means the
// gesture was released outside any valid zone.
type DropEvent struct {
	ActiveID ID
	OverID   ID
}

// DropResult reports what a drop resolved to. Moved is false for every no-op
// case; when true, Deal holds the store's authoritative record and From/To
// name the stages involved.
type DropResult struct {
	Moved bool
	Deal  Deal
	From  string
	To    string
}

// =============================================================================
// ENGINE
// =============================================================================

// DragEngine interprets drag gestures against a deal store. One instance
// serves the whole board; construct it with the same store the view reads
// its snapshots from.
type DragEngine struct {
	mu     sync.Mutex
	state  DragState
	active ID
	deals  DealStore
}

func NewDragEngine(deals DealStore) *DragEngine {
	return &DragEngine{state: DragIdle, deals: deals}
}

// State returns the current gesture state.
func (e *DragEngine) State() DragState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Begin starts a gesture for the given deal id. It fails with
// ErrDragInProgress while a previous gesture is dragging or committing.
func (e *DragEngine) Begin(id ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != DragIdle {
		return ErrDragInProgress
	}
	e.state = DragDragging
	e.active = id
	return nil
}

// Cancel abandons the active gesture without touching the store.
func (e *DragEngine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != DragDragging {
		return ErrNoActiveDrag
	}
	e.state = DragIdle
	e.active = 0
	return nil
}

// Drop resolves the gesture against the caller's deal snapshot. snapshot is
// read only; the caller merges the returned record itself (MergeDeal) so a
// failed commit cannot leave a half-applied stage behind.
func (e *DragEngine) Drop(ctx context.Context, snapshot []Deal, ev DropEvent) (DropResult, error) {
	e.mu.Lock()
	if e.state != DragDragging || e.active != ev.ActiveID {
		e.mu.Unlock()
		return DropResult{}, ErrNoActiveDrag
	}
	e.state = DragCommitting
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.state = DragIdle
		e.active = 0
		e.mu.Unlock()
	}()

	source, ok := findDeal(snapshot, ev.ActiveID)
	if !ok {
		return DropResult{}, nil
	}
	target, ok := findDeal(snapshot, ev.OverID)
	if !ok || ev.ActiveID == ev.OverID || target.Stage == source.Stage {
		return DropResult{}, nil
	}

	dest := target.Stage
	updated, err := e.deals.Update(ctx, source.ID, DealPatch{Stage: &dest})
	if err != nil {
		return DropResult{}, err
	}
	return DropResult{Moved: true, Deal: updated, From: source.Stage, To: dest}, nil
}

func findDeal(deals []Deal, id ID) (Deal, bool) {
	if id == 0 {
		return Deal{}, false
	}
	for _, d := range deals {
		if d.ID == id {
			return d, true
		}
	}
	return Deal{}, false
}
