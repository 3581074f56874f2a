package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulse/crm-engine/crm"
	"github.com/pulse/crm-engine/crm/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func seedContacts() []crm.Contact {
	return []crm.Contact{
		{ID: 1, Name: "Ada", Email: "ada@acme.io", Status: "active", Tags: []string{"vip"}},
		{ID: 2, Name: "Grace", Email: "grace@initech.com", Status: "active"},
		{ID: 3, Name: "Linus", Email: "linus@umbrella.org", Status: "inactive"},
	}
}

func newContactStore() crm.ContactStore {
	return store.NewMemory[crm.Contact, crm.ContactPatch]("contact", crm.NoLatency(), seedContacts())
}

func strptr(s string) *string { return &s }

// =============================================================================
// READ PATH TESTS
// =============================================================================

func TestMemory_GetAll_ReturnsIndependentSnapshot(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	first, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// Mutating the snapshot (including a nested slice) must not leak into
	// the store.
	first[0].Name = "Mallory"
	first[0].Tags[0] = "blocked"

	second, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", second[0].Name)
	assert.Equal(t, []string{"vip"}, second[0].Tags)
}

func TestMemory_GetByID(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	c, err := s.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Grace", c.Name)

	_, err = s.GetByID(ctx, 42)
	assert.True(t, crm.IsNotFound(err))
	var nf *crm.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "contact", nf.Entity)
	assert.Equal(t, crm.ID(42), nf.ID)
}

func TestMemory_Where_PreservesOrder(t *testing.T) {
	s := newContactStore()

	active, err := s.Where(context.Background(), func(c crm.Contact) bool {
		return c.Status == "active"
	})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, crm.ID(1), active[0].ID)
	assert.Equal(t, crm.ID(2), active[1].ID)
}

// =============================================================================
// WRITE PATH TESTS
// =============================================================================

func TestMemory_Create_AssignsIDAndStamp(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	created, err := s.Create(ctx, crm.Contact{Name: "Marie", Email: "marie@acme.io"})
	require.NoError(t, err)

	assert.Equal(t, crm.ID(4), created.ID, "id continues from the highest seed id")
	require.NotEmpty(t, created.CreatedAt)
	_, err = time.Parse(time.RFC3339, created.CreatedAt)
	assert.NoError(t, err, "creation stamp is ISO-8601")

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "Marie", all[3].Name, "new record appends at the end")
}

func TestMemory_Create_NeverReusesIDs(t *testing.T) {
	// Deleting the highest record must not free its id for the next create.
	s := newContactStore()
	ctx := context.Background()

	created, err := s.Create(ctx, crm.Contact{Name: "Marie"})
	require.NoError(t, err)
	require.Equal(t, crm.ID(4), created.ID)

	require.NoError(t, s.Delete(ctx, 4))

	next, err := s.Create(ctx, crm.Contact{Name: "Niels"})
	require.NoError(t, err)
	assert.Equal(t, crm.ID(5), next.ID)
}

func TestMemory_Update_MergesPatchFields(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	updated, err := s.Update(ctx, 1, crm.ContactPatch{
		Email:  strptr("ada@lovelace.dev"),
		Status: strptr("inactive"),
	})
	require.NoError(t, err)

	assert.Equal(t, crm.ID(1), updated.ID)
	assert.Equal(t, "ada@lovelace.dev", updated.Email)
	assert.Equal(t, "inactive", updated.Status)
	assert.Equal(t, "Ada", updated.Name, "nil patch fields stay unchanged")
	assert.Equal(t, []string{"vip"}, updated.Tags)
}

func TestMemory_Update_MissingIDLeavesCollectionUnchanged(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	_, err := s.Update(ctx, 42, crm.ContactPatch{Name: strptr("Nobody")})
	assert.True(t, crm.IsNotFound(err))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, c := range all {
		assert.NotEqual(t, "Nobody", c.Name)
	}
}

func TestMemory_Delete(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, 2))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, crm.ID(1), all[0].ID)
	assert.Equal(t, crm.ID(3), all[1].ID)

	err = s.Delete(ctx, 2)
	assert.True(t, crm.IsNotFound(err), "second delete of the same id fails")
}

func TestMemory_Reset_RestoresSeedAndWatermark(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	_, err := s.Create(ctx, crm.Contact{Name: "Marie"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, 1))

	require.NoError(t, s.Reset(ctx, seedContacts()))

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	created, err := s.Create(ctx, crm.Contact{Name: "Niels"})
	require.NoError(t, err)
	assert.Equal(t, crm.ID(4), created.ID, "watermark restarts from the seed")
}

// =============================================================================
// LATENCY AND CANCELLATION TESTS
// =============================================================================

func TestMemory_Latency_ElapsesBeforeStateIsRead(t *testing.T) {
	latency := crm.Latency{GetAll: 50 * time.Millisecond}
	s := store.NewMemory[crm.Contact, crm.ContactPatch]("contact", latency, seedContacts())

	start := time.Now()
	_, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestMemory_CancelledContext_AbortsBeforeMutation(t *testing.T) {
	latency := crm.Latency{Create: 100 * time.Millisecond}
	s := store.NewMemory[crm.Contact, crm.ContactPatch]("contact", latency, seedContacts())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Create(ctx, crm.Contact{Name: "Marie"})
	assert.ErrorIs(t, err, context.Canceled)

	all, err := s.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3, "aborted create left the collection unchanged")
}

// =============================================================================
// CONCURRENCY TESTS
// =============================================================================

func TestMemory_ConcurrentCreates_UniqueIDs(t *testing.T) {
	s := newContactStore()
	ctx := context.Background()

	const n = 20
	results := make(chan crm.ID, n)
	for i := 0; i < n; i++ {
		go func() {
			c, err := s.Create(ctx, crm.Contact{Name: "Concurrent"})
			assert.NoError(t, err)
			results <- c.ID
		}()
	}

	seen := make(map[crm.ID]bool, n)
	for i := 0; i < n; i++ {
		id := <-results
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
}
