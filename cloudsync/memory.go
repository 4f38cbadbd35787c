/*
memory.go - In-memory remote document (tests and local development)

PURPOSE:
  A RemoteDocument backed by a map entry. Counts pushes so tests can verify
  the no-echo guarantee, can be told to fail pushes to exercise the ERROR
  path, and exposes Emit to simulate a change arriving from another device.
*/
package cloudsync

import (
	"context"
	"errors"
	"sync"

	"github.com/thaithanh/rentledger/billing"
)

// MemoryDocument is an in-process RemoteDocument. Safe for concurrent use.
type MemoryDocument struct {
	mu       sync.Mutex
	state    *billing.AppState
	pushes   int
	failPush bool
	nextSub  int
	hooks    map[int]SubscriptionHooks
}

func NewMemoryDocument() *MemoryDocument {
	return &MemoryDocument{hooks: map[int]SubscriptionHooks{}}
}

// Replace records the pushed state. Fails when FailPushes(true) was set.
func (d *MemoryDocument) Replace(_ context.Context, state billing.AppState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failPush {
		return errors.New("memory document: push disabled")
	}
	cp := state.Clone()
	d.state = &cp
	d.pushes++
	return nil
}

// Subscribe delivers the current value (or OnMissing) immediately, then every
// Emit until cancel is called. Cancel drops the hook: a cleared or replaced
// subscription receives nothing.
func (d *MemoryDocument) Subscribe(_ context.Context, hooks SubscriptionHooks) (func(), error) {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.hooks[id] = hooks
	current := d.state
	d.mu.Unlock()

	if current != nil {
		if hooks.OnSnapshot != nil {
			hooks.OnSnapshot(current.Clone())
		}
	} else if hooks.OnMissing != nil {
		hooks.OnMissing()
	}
	return func() {
		d.mu.Lock()
		delete(d.hooks, id)
		d.mu.Unlock()
	}, nil
}

// Emit simulates another device writing the document: active subscribers
// receive the state as a remote change.
func (d *MemoryDocument) Emit(state billing.AppState) {
	d.mu.Lock()
	cp := state.Clone()
	d.state = &cp
	hooks := make([]SubscriptionHooks, 0, len(d.hooks))
	for _, h := range d.hooks {
		hooks = append(hooks, h)
	}
	d.mu.Unlock()

	for _, h := range hooks {
		if h.OnSnapshot != nil {
			h.OnSnapshot(state.Clone())
		}
	}
}

// FailPushes toggles push failure injection.
func (d *MemoryDocument) FailPushes(fail bool) {
	d.mu.Lock()
	d.failPush = fail
	d.mu.Unlock()
}

// PushCount returns how many Replace calls succeeded.
func (d *MemoryDocument) PushCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pushes
}

// Current returns the last written document, nil when none exists.
func (d *MemoryDocument) Current() *billing.AppState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == nil {
		return nil
	}
	cp := d.state.Clone()
	return &cp
}
