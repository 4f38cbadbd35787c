/*
Package cloudsync keeps local persisted state and a shared remote document
convergent while a human edits locally.

PURPOSE:
  The Reconciler observes every ledger change. It always persists the state
  locally, and - when a remote target is configured and the change originated
  from a LOCAL edit - pushes the full document to the remote store. Applied
  remote documents are tagged OriginRemote by the ledger, so the reconciler
  can suppress echo pushes by provenance rather than by a timing window. That
  is the feedback-suppression guarantee: applying a remote update never
  triggers a push of that same state back to remote.

CONFLICT POLICY (accepted, documented, preserved):
  Last-writer-wins at whole-document granularity. No field-level merge, no
  vector clocks. Two devices racing to push will silently clobber each other;
  the later write observed by the remote store wins.

FIRE AND FORGET:
  Local persistence is synchronous and fast. Remote pushes run on a single
  worker fed by a one-slot mailbox: the ledger never waits on the network,
  and a newer state supersedes an unpushed older one (most-recent-write-
  intent wins). Push or subscribe failure degrades to STATUS ERROR; local
  edits continue and the next local change attempts another push. There is no
  other retry loop.

SEE ALSO:
  - remote_http.go: HTTP remote document implementation
  - memory.go:      In-memory remote stub for tests
*/
package cloudsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thaithanh/rentledger/billing"
	"github.com/thaithanh/rentledger/ledger"
	"github.com/thaithanh/rentledger/metrics"
)

// pushError and subscribeError wrap transport failures so callers can test
// errors.Is(err, ledger.ErrRemoteUnavailable).
func pushError(cause error) error {
	return fmt.Errorf("%w: push: %v", ledger.ErrRemoteUnavailable, cause)
}

func subscribeError(cause error) error {
	return fmt.Errorf("%w: subscribe: %v", ledger.ErrRemoteUnavailable, cause)
}

// =============================================================================
// INTERFACES - Local persistence and the opaque remote document
// =============================================================================

// LocalStore persists the single AppState document on this device. Load
// returns (nil, nil) when no document has been written yet.
type LocalStore interface {
	Save(ctx context.Context, state billing.AppState) error
	Load(ctx context.Context) (*billing.AppState, error)
}

// SubscriptionHooks receives remote document events. OnSnapshot delivers the
// initial value and every subsequent change; OnMissing fires when the remote
// document does not exist yet; OnError reports stream failures.
type SubscriptionHooks struct {
	OnSnapshot func(billing.AppState)
	OnMissing  func()
	OnError    func(error)
}

// RemoteDocument is one shared document at a fixed path, read via a live
// subscription and written via full-document replace.
type RemoteDocument interface {
	// Replace overwrites the remote document with the given state.
	Replace(ctx context.Context, state billing.AppState) error

	// Subscribe starts delivering document events until cancel is called or
	// the context ends.
	Subscribe(ctx context.Context, hooks SubscriptionHooks) (cancel func(), err error)
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the reconciler's connectivity state.
type Status string

const (
	StatusUnconfigured Status = "unconfigured" // no remote target; local-only
	StatusSyncing      Status = "syncing"      // push or subscribe in flight
	StatusOnline       Status = "online"       // subscribed, last operation succeeded
	StatusError        Status = "error"        // last push/subscribe failed; local work continues
)

var statusGaugeValue = map[Status]float64{
	StatusUnconfigured: 0,
	StatusSyncing:      1,
	StatusOnline:       2,
	StatusError:        3,
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler mediates between the ledger store, local persistence and the
// remote document. Construct with New, wire with Start, then optionally
// Configure a remote target.
type Reconciler struct {
	store *ledger.Store
	local LocalStore
	log   *slog.Logger

	mu         sync.Mutex
	status     Status
	remote     RemoteDocument
	cancelSub  func()
	stopPusher func()
	pending    chan billing.AppState
	pusherDone chan struct{}
}

// New creates a reconciler in the UNCONFIGURED state.
func New(store *ledger.Store, local LocalStore, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	r := &Reconciler{
		store:  store,
		local:  local,
		log:    log,
		status: StatusUnconfigured,
	}
	metrics.SyncStatus.Set(statusGaugeValue[StatusUnconfigured])
	return r
}

// Start subscribes the reconciler to the ledger store. Call once during
// startup, before any mutation.
func (r *Reconciler) Start() {
	r.store.Subscribe(r.onChange)
}

// Status returns the current connectivity state.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Reconciler) setStatus(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
	metrics.SyncStatus.Set(statusGaugeValue[s])
}

// =============================================================================
// CHANGE HANDLING
// =============================================================================

// onChange runs synchronously after every committed ledger mutation.
func (r *Reconciler) onChange(ch ledger.Change) {
	// Local persistence is unconditional, whatever the origin.
	if err := r.local.Save(context.Background(), ch.State); err != nil {
		r.log.Error("local persist failed", "err", err)
	}

	if ch.Origin == ledger.OriginRemote {
		// This state was just applied FROM remote; pushing it back would
		// start an echo loop.
		return
	}

	r.mu.Lock()
	pending := r.pending
	r.mu.Unlock()
	if pending == nil {
		return // unconfigured: local-only
	}

	// Latest-wins mailbox: drop a stale unpushed state in favor of this one.
	for {
		select {
		case pending <- ch.State:
			return
		default:
			select {
			case <-pending:
			default:
			}
		}
	}
}

// pushLoop is the single push worker. One push at a time; the mailbox
// collapses bursts to the newest state.
func (r *Reconciler) pushLoop(ctx context.Context, remote RemoteDocument, pending chan billing.AppState) {
	defer close(r.pusherDone)
	for {
		select {
		case <-ctx.Done():
			return
		case state := <-pending:
			r.setStatus(StatusSyncing)
			if err := remote.Replace(ctx, state); err != nil {
				metrics.RemotePushErrors.Inc()
				r.setStatus(StatusError)
				r.log.Error("remote push failed", "err", pushError(err))
				continue
			}
			metrics.RemotePushes.Inc()
			r.setStatus(StatusOnline)
		}
	}
}

// =============================================================================
// REMOTE TARGET LIFECYCLE
// =============================================================================

// Configure sets (or replaces) the remote target: any previous subscription
// is torn down, then the reconciler subscribes to the new document and starts
// the push worker. If the remote document does not exist yet, the current
// local state is pushed to create it (first writer creates the shared
// document).
func (r *Reconciler) Configure(ctx context.Context, remote RemoteDocument) error {
	r.Clear()

	r.setStatus(StatusSyncing)

	pushCtx, stopPusher := context.WithCancel(context.Background())
	pending := make(chan billing.AppState, 1)

	r.mu.Lock()
	r.remote = remote
	r.pending = pending
	r.stopPusher = stopPusher
	r.pusherDone = make(chan struct{})
	r.mu.Unlock()

	go r.pushLoop(pushCtx, remote, pending)

	cancel, err := remote.Subscribe(ctx, SubscriptionHooks{
		OnSnapshot: func(state billing.AppState) {
			metrics.RemoteApplies.Inc()
			// Whole-document overwrite, tagged remote so it is not echoed.
			r.store.Replace(state, ledger.OriginRemote)
			r.setStatus(StatusOnline)
		},
		OnMissing: func() {
			// First writer creates the shared document.
			r.enqueueCurrent()
		},
		OnError: func(err error) {
			r.setStatus(StatusError)
			r.log.Error("remote subscription failed", "err", subscribeError(err))
		},
	})
	if err != nil {
		r.setStatus(StatusError)
		return subscribeError(err)
	}

	r.mu.Lock()
	r.cancelSub = cancel
	r.mu.Unlock()
	return nil
}

// Clear tears down the remote subscription and push worker and returns to
// local-only operation.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	cancelSub := r.cancelSub
	stopPusher := r.stopPusher
	done := r.pusherDone
	r.cancelSub = nil
	r.stopPusher = nil
	r.remote = nil
	r.pending = nil
	r.pusherDone = nil
	r.mu.Unlock()

	if cancelSub != nil {
		cancelSub()
	}
	if stopPusher != nil {
		stopPusher()
		<-done
	}
	r.setStatus(StatusUnconfigured)
}

// enqueueCurrent queues the current ledger state for push.
func (r *Reconciler) enqueueCurrent() {
	r.onChange(ledger.Change{Origin: ledger.OriginLocal, State: r.store.Snapshot()})
}
