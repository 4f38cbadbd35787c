package cloudsync_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaithanh/rentledger/billing"
	"github.com/thaithanh/rentledger/cloudsync"
	"github.com/thaithanh/rentledger/ledger"
	"github.com/thaithanh/rentledger/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestReconciler(t *testing.T) (*ledger.Store, *memory.Store, *cloudsync.Reconciler) {
	t.Helper()
	store := ledger.New(billing.SeedState())
	local := memory.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := cloudsync.New(store, local, log)
	rec.Start()
	t.Cleanup(rec.Clear)
	return store, local, rec
}

func waitPushes(t *testing.T, doc *cloudsync.MemoryDocument, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return doc.PushCount() == want },
		2*time.Second, 10*time.Millisecond, "expected %d pushes", want)
}

// =============================================================================
// LOCAL PERSISTENCE
// =============================================================================

func TestReconciler_PersistsEveryChangeLocally(t *testing.T) {
	// Local persistence is unconditional, even while unconfigured.
	store, local, _ := newTestReconciler(t)

	require.NoError(t, store.Unlock())
	require.NoError(t, store.Rollover())

	assert.Equal(t, 2, local.SaveCount())
	saved, err := local.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.Locked, "latest state persisted")
}

func TestReconciler_UnconfiguredNeverPushes(t *testing.T) {
	store, _, rec := newTestReconciler(t)

	require.NoError(t, store.Rollover())
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, cloudsync.StatusUnconfigured, rec.Status())
}

// =============================================================================
// PUSH PATH
// =============================================================================

func TestReconciler_LocalEditPushes(t *testing.T) {
	store, _, rec := newTestReconciler(t)
	doc := cloudsync.NewMemoryDocument()
	require.NoError(t, rec.Configure(context.Background(), doc))

	// The empty remote document is created from local state first.
	waitPushes(t, doc, 1)

	require.NoError(t, store.Rollover())
	waitPushes(t, doc, 2)
	assert.Equal(t, cloudsync.StatusOnline, rec.Status())

	pushed := doc.Current()
	require.NotNil(t, pushed)
	assert.True(t, pushed.Locked, "remote holds the post-rollover document")
}

func TestReconciler_PushFailureDegrades(t *testing.T) {
	// GIVEN: a remote that rejects pushes
	// WHEN:  a local edit happens
	// THEN:  status is ERROR, local work continues, and the next edit after
	//        recovery pushes again (no other retry loop)

	store, local, rec := newTestReconciler(t)
	doc := cloudsync.NewMemoryDocument()
	require.NoError(t, rec.Configure(context.Background(), doc))
	waitPushes(t, doc, 1)

	doc.FailPushes(true)
	require.NoError(t, store.Unlock())
	require.Eventually(t, func() bool { return rec.Status() == cloudsync.StatusError },
		2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, local.SaveCount(), 2, "local persistence unaffected by remote failure")

	doc.FailPushes(false)
	require.NoError(t, store.Rollover())
	waitPushes(t, doc, 2)
	assert.Equal(t, cloudsync.StatusOnline, rec.Status())
}

// =============================================================================
// FEEDBACK SUPPRESSION - the no-echo guarantee
// =============================================================================

func TestReconciler_RemoteApplyDoesNotEcho(t *testing.T) {
	// GIVEN: a configured reconciler with the remote document present
	// WHEN:  a remote-origin update is applied
	// THEN:  the local state is overwritten but NO outbound push happens

	store, local, rec := newTestReconciler(t)

	doc := cloudsync.NewMemoryDocument()
	seeded := billing.SeedState()
	seeded.FontSize = 20
	doc.Emit(seeded) // document exists before we subscribe

	require.NoError(t, rec.Configure(context.Background(), doc))

	// The subscription's initial snapshot was applied locally...
	assert.Equal(t, 20, store.Snapshot().FontSize)
	assert.GreaterOrEqual(t, local.SaveCount(), 1)

	// ...and a change from another device lands the same way.
	updated := billing.SeedState()
	updated.FontSize = 24
	doc.Emit(updated)
	assert.Equal(t, 24, store.Snapshot().FontSize)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, doc.PushCount(), "remote-origin updates must never be pushed back")
	assert.Equal(t, cloudsync.StatusOnline, rec.Status())
}

func TestReconciler_LocalEditAfterRemoteApplyStillPushes(t *testing.T) {
	// Provenance is per-change, not a mode: the first local edit after a
	// remote apply goes out normally.
	store, _, rec := newTestReconciler(t)
	doc := cloudsync.NewMemoryDocument()
	doc.Emit(billing.SeedState())
	require.NoError(t, rec.Configure(context.Background(), doc))

	require.NoError(t, store.Unlock())
	waitPushes(t, doc, 1)
}

// =============================================================================
// TARGET LIFECYCLE
// =============================================================================

func TestReconciler_ClearReturnsToLocalOnly(t *testing.T) {
	store, _, rec := newTestReconciler(t)
	doc := cloudsync.NewMemoryDocument()
	require.NoError(t, rec.Configure(context.Background(), doc))
	waitPushes(t, doc, 1)

	rec.Clear()
	assert.Equal(t, cloudsync.StatusUnconfigured, rec.Status())

	require.NoError(t, store.Unlock())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, doc.PushCount(), "no pushes after the target is cleared")
}

func TestReconciler_EmitAfterClearIsNotApplied(t *testing.T) {
	// Cancelling the subscription must actually detach it: a document change
	// arriving after Clear never reaches the store.
	store, _, rec := newTestReconciler(t)
	doc := cloudsync.NewMemoryDocument()
	require.NoError(t, rec.Configure(context.Background(), doc))
	waitPushes(t, doc, 1)

	rec.Clear()

	late := billing.SeedState()
	late.FontSize = 99
	doc.Emit(late)
	assert.NotEqual(t, 99, store.Snapshot().FontSize,
		"a cleared subscription must not apply remote changes")
}

func TestReconciler_ReconfigureReplacesTarget(t *testing.T) {
	store, _, rec := newTestReconciler(t)

	first := cloudsync.NewMemoryDocument()
	require.NoError(t, rec.Configure(context.Background(), first))
	waitPushes(t, first, 1)

	second := cloudsync.NewMemoryDocument()
	require.NoError(t, rec.Configure(context.Background(), second))
	waitPushes(t, second, 1)

	require.NoError(t, store.Unlock())
	waitPushes(t, second, 2)
	assert.Equal(t, 1, first.PushCount(), "old target no longer receives pushes")
}
