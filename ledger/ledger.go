/*
Package ledger owns the canonical AppState and its mutation surface.

PURPOSE:
  The Store is the single writer for one device: every edit, rollover, undo,
  import and remote apply goes through it. Observers (the sync reconciler, the
  API's change hooks) subscribe once and receive every change together with
  its PROVENANCE - whether the mutation originated from a local edit or from
  an applied remote document. That tag is what lets the reconciler suppress
  echo pushes without any timing tricks.

CONCURRENCY:
  Single-writer-per-device: a mutex serializes mutations; remote snapshots
  arrive asynchronously and enter through Replace() like any other write.
  Observers are invoked synchronously with a deep copy, and the commit plus
  its fan-out are serialized as a unit, so observers always receive changes
  in commit order; the state mutex itself stays narrow so readers never wait
  on observers.

LOCK FLAG:
  The period lock is advisory. It is stored, reported and toggled here, but no
  write is rejected because of it; enforcement belongs to presentation.

SEE ALSO:
  - period.go: Rollover / Undo / Unlock transitions
  - errors.go: Error taxonomy
*/
package ledger

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/thaithanh/rentledger/billing"
)

// =============================================================================
// CHANGE EVENTS - Every mutation carries its provenance
// =============================================================================

// Origin tags where a state change came from.
type Origin string

const (
	// OriginLocal marks edits made on this device.
	OriginLocal Origin = "local"

	// OriginRemote marks wholesale overwrites applied from the remote
	// document. The reconciler never pushes these back.
	OriginRemote Origin = "remote"
)

// Change is delivered to every observer after a mutation commits. State is a
// deep copy of the post-mutation AppState.
type Change struct {
	Origin Origin
	State  billing.AppState
}

// Observer receives committed changes in order.
type Observer func(Change)

// =============================================================================
// STORE - The aggregate-root holder
// =============================================================================

// Store holds the one AppState per deployment. Construct with New and pass
// the handle to collaborators; there are no package-level globals.
type Store struct {
	// notifyMu serializes commit plus observer fan-out so changes are
	// delivered in commit order. mu alone guards the state for readers.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	state     billing.AppState
	observers []Observer
}

// New creates a Store seeded with the given state.
func New(initial billing.AppState) *Store {
	return &Store{state: initial.Clone()}
}

// Subscribe registers an observer for all subsequent changes. Not safe to
// call concurrently with mutations; wire observers during startup.
func (s *Store) Subscribe(fn Observer) {
	s.observers = append(s.observers, fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() billing.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// mutate applies fn under the lock and, if fn reports success, notifies
// observers with a copy of the new state. notifyMu spans both the commit and
// the fan-out: a writer that commits second cannot deliver first, so the last
// Change observers see is always the newest committed state. Readers only
// contend on mu and never wait for observers.
func (s *Store) mutate(origin Origin, fn func(*billing.AppState) error) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.state.Clone()
	s.mu.Unlock()

	for _, fn := range s.observers {
		fn(Change{Origin: origin, State: snapshot})
	}
	return nil
}

// =============================================================================
// EDIT OPERATIONS - Wholesale replacement, no numeric validation
// =============================================================================

// UpsertUnit adds or replaces one unit. Adding a unit atomically creates its
// empty reading record so units and readings stay one-to-one. A unit supplied
// without an id is assigned a generated one.
func (s *Store) UpsertUnit(unit billing.UnitConfig) (billing.UnitConfig, error) {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	err := s.mutate(OriginLocal, func(st *billing.AppState) error {
		for i, u := range st.Units {
			if u.ID == unit.ID {
				st.Units[i] = unit
				return nil
			}
		}
		st.Units = append(st.Units, unit)
		st.Readings = append(st.Readings, billing.ReadingRecord{
			UnitID: unit.ID,
			Debt:   decimal.Zero,
		})
		return nil
	})
	return unit, err
}

// RemoveUnit deletes a unit and its reading record atomically. Removing an
// unknown id fails with ErrUnknownUnit.
func (s *Store) RemoveUnit(id string) error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		idx := -1
		for i, u := range st.Units {
			if u.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &UnknownUnitError{UnitID: id}
		}
		st.Units = append(st.Units[:idx], st.Units[idx+1:]...)
		for i, r := range st.Readings {
			if r.UnitID == id {
				st.Readings = append(st.Readings[:i], st.Readings[i+1:]...)
				break
			}
		}
		return nil
	})
}

// UpdateReading replaces one reading record wholesale. The record must
// reference an existing unit; otherwise ErrUnknownUnit.
func (s *Store) UpdateReading(rec billing.ReadingRecord) error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		if _, ok := st.UnitByID(rec.UnitID); !ok {
			return &UnknownUnitError{UnitID: rec.UnitID}
		}
		for i, r := range st.Readings {
			if r.UnitID == rec.UnitID {
				st.Readings[i] = rec
				return nil
			}
		}
		// Unreachable while the cardinality invariant holds, but repairs the
		// record set rather than dropping the edit.
		st.Readings = append(st.Readings, rec)
		return nil
	})
}

// UpdateTariff replaces the tariff schedule wholesale.
func (s *Store) UpdateTariff(t billing.TariffSchedule) error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		st.Tariff = t
		return nil
	})
}

// SetPeriod replaces the current billing period. From < To is not enforced.
func (s *Store) SetPeriod(p billing.BillingPeriod) error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		st.Period = p
		return nil
	})
}

// SetFontSize stores the UI font preference. It rides in AppState so it
// follows the document across devices.
func (s *Store) SetFontSize(size int) error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		st.FontSize = size
		return nil
	})
}

// =============================================================================
// WHOLE-DOCUMENT OPERATIONS
// =============================================================================

// Import replaces the entire state with an externally supplied document.
// The document is shape-validated first; a malformed document is rejected
// before any mutation (all-or-nothing).
func (s *Store) Import(state billing.AppState) error {
	if err := state.ValidateShape(); err != nil {
		return &MalformedImportError{Reason: err}
	}
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		*st = state.Clone()
		return nil
	})
}

// Export returns the full state for external backup. No transformation.
func (s *Store) Export() billing.AppState {
	return s.Snapshot()
}

// Replace overwrites the entire state on behalf of the sync layer. Remote
// documents are applied as-is (last-writer-wins, whole-document); the origin
// tag tells observers not to propagate them back.
func (s *Store) Replace(state billing.AppState, origin Origin) {
	_ = s.mutate(origin, func(st *billing.AppState) error {
		*st = state.Clone()
		return nil
	})
}
