package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pulse/crm-engine/crm"
	"github.com/pulse/crm-engine/crm/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newBoard builds a deal store (no simulated latency) and a drag engine over
// it, seeded with one deal per default stage plus a second Lead deal.
func newBoard(t *testing.T) (*crm.DragEngine, crm.DealStore, []crm.Deal) {
	t.Helper()
	seed := []crm.Deal{
		deal(1, "Lead", 1000),
		deal(2, "Qualified", 2000),
		deal(3, "Proposal", 3000),
		deal(4, "Won", 4000),
		deal(5, "Lead", 5000),
	}
	deals := store.NewMemory[crm.Deal, crm.DealPatch]("deal", crm.NoLatency(), seed)
	return crm.NewDragEngine(deals), deals, seed
}

func mustState(t *testing.T, e *crm.DragEngine, want crm.DragState) {
	t.Helper()
	if got := e.State(); got != want {
		t.Fatalf("Expected state %q, got %q", want, got)
	}
}

// =============================================================================
// GESTURE LIFECYCLE TESTS
// =============================================================================

func TestDrag_BeginCancel(t *testing.T) {
	// GIVEN: An idle engine
	// WHEN: Beginning then cancelling a gesture
	// THEN: The state round-trips Idle -> Dragging -> Idle, store untouched

	engine, deals, _ := newBoard(t)
	ctx := context.Background()

	mustState(t, engine, crm.DragIdle)

	if err := engine.Begin(1); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	mustState(t, engine, crm.DragDragging)

	if err := engine.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	mustState(t, engine, crm.DragIdle)

	d, err := deals.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if d.Stage != "Lead" {
		t.Errorf("Cancelled gesture changed stage to %q", d.Stage)
	}
}

func TestDrag_BeginWhileActive_Rejected(t *testing.T) {
	engine, _, _ := newBoard(t)

	if err := engine.Begin(1); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	err := engine.Begin(2)
	if !errors.Is(err, crm.ErrDragInProgress) {
		t.Fatalf("Expected ErrDragInProgress, got %v", err)
	}
}

func TestDrag_CancelWithoutGesture_Rejected(t *testing.T) {
	engine, _, _ := newBoard(t)

	if err := engine.Cancel(); !errors.Is(err, crm.ErrNoActiveDrag) {
		t.Fatalf("Expected ErrNoActiveDrag, got %v", err)
	}
}

func TestDrag_DropWithoutGesture_Rejected(t *testing.T) {
	engine, _, snapshot := newBoard(t)

	_, err := engine.Drop(context.Background(), snapshot, crm.DropEvent{ActiveID: 1, OverID: 2})
	if !errors.Is(err, crm.ErrNoActiveDrag) {
		t.Fatalf("Expected ErrNoActiveDrag, got %v", err)
	}
}

// =============================================================================
// DROP TRANSITION TESTS
// =============================================================================

func TestDrag_Drop_CrossStageCommitsExactlyOneUpdate(t *testing.T) {
	// GIVEN: Deal 1 (Lead) dragged over deal 2 (Qualified)
	// WHEN: Dropping
	// THEN: Deal 1 moves to Qualified via a single store update and the
	//       engine returns to Idle

	engine, deals, snapshot := newBoard(t)
	ctx := context.Background()

	if err := engine.Begin(1); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	result, err := engine.Drop(ctx, snapshot, crm.DropEvent{ActiveID: 1, OverID: 2})
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}

	if !result.Moved {
		t.Fatal("Expected a committed move")
	}
	if result.From != "Lead" || result.To != "Qualified" {
		t.Errorf("Expected Lead -> Qualified, got %q -> %q", result.From, result.To)
	}
	if result.Deal.ID != 1 || result.Deal.Stage != "Qualified" {
		t.Errorf("Expected returned deal 1 in Qualified, got %d in %q", result.Deal.ID, result.Deal.Stage)
	}
	mustState(t, engine, crm.DragIdle)

	stored, err := deals.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Stage != "Qualified" {
		t.Errorf("Store holds stage %q, want Qualified", stored.Stage)
	}
}

func TestDrag_Drop_NoOpCases(t *testing.T) {
	// Every no-op case resolves as Moved=false with no store update and no
	// error: missing target, released on itself, same-stage reorder.
	cases := []struct {
		name string
		ev   crm.DropEvent
	}{
		{"released outside any zone", crm.DropEvent{ActiveID: 1, OverID: 0}},
		{"unknown target id", crm.DropEvent{ActiveID: 1, OverID: 99}},
		{"released on itself", crm.DropEvent{ActiveID: 1, OverID: 1}},
		{"same-stage target", crm.DropEvent{ActiveID: 1, OverID: 5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, deals, snapshot := newBoard(t)
			ctx := context.Background()

			if err := engine.Begin(tc.ev.ActiveID); err != nil {
				t.Fatalf("Begin failed: %v", err)
			}
			result, err := engine.Drop(ctx, snapshot, tc.ev)
			if err != nil {
				t.Fatalf("Drop failed: %v", err)
			}
			if result.Moved {
				t.Error("Expected a no-op drop")
			}
			mustState(t, engine, crm.DragIdle)

			stored, err := deals.GetByID(ctx, 1)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if stored.Stage != "Lead" {
				t.Errorf("No-op drop changed stage to %q", stored.Stage)
			}
		})
	}
}

func TestDrag_Drop_UnknownSourceIsNoOp(t *testing.T) {
	// GIVEN: The dragged deal was deleted between drag start and drop, so it
	//        is absent from the snapshot handed to Drop
	// WHEN: Dropping
	// THEN: No-op, no error

	engine, _, snapshot := newBoard(t)

	if err := engine.Begin(99); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	result, err := engine.Drop(context.Background(), snapshot, crm.DropEvent{ActiveID: 99, OverID: 2})
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if result.Moved {
		t.Error("Expected a no-op drop for an unknown source")
	}
}

func TestDrag_Drop_StoreFailurePropagatesAndSnapshotSurvives(t *testing.T) {
	// GIVEN: The source deal exists in the snapshot but was deleted from the
	//        store, so the commit fails with NotFound
	// WHEN: Dropping across stages
	// THEN: The error propagates, the snapshot is untouched, and the engine
	//       recovers to Idle so the next gesture can start

	engine, deals, snapshot := newBoard(t)
	ctx := context.Background()

	if err := deals.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if err := engine.Begin(1); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	_, err := engine.Drop(ctx, snapshot, crm.DropEvent{ActiveID: 1, OverID: 2})
	if !crm.IsNotFound(err) {
		t.Fatalf("Expected NotFound, got %v", err)
	}

	if snapshot[0].Stage != "Lead" {
		t.Errorf("Snapshot was mutated: got %q", snapshot[0].Stage)
	}
	mustState(t, engine, crm.DragIdle)
	if err := engine.Begin(2); err != nil {
		t.Errorf("Engine did not recover after failed commit: %v", err)
	}
}

func TestDrag_Drop_ActiveIDMismatch_Rejected(t *testing.T) {
	engine, _, snapshot := newBoard(t)

	if err := engine.Begin(1); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	_, err := engine.Drop(context.Background(), snapshot, crm.DropEvent{ActiveID: 2, OverID: 3})
	if !errors.Is(err, crm.ErrNoActiveDrag) {
		t.Fatalf("Expected ErrNoActiveDrag for mismatched active id, got %v", err)
	}
}
