/*
period.go - Billing-period lifecycle: rollover, undo, unlock

PURPOSE:
  The period state machine. A period is OPEN (readings editable) or LOCKED
  (prior-reading fields read-only in the UI; the flag is advisory and the
  store never rejects writes because of it).

TRANSITIONS:
  Rollover: OPEN|LOCKED -> LOCKED
    Archive the current period (snapshot of period, readings, tariff, units,
    copied by value), carry new meter values into old, zero the new values and
    debts, advance the period by one calendar month, set the lock. Atomic: all
    units and the snapshot, or nothing.

  Undo: any -> OPEN (requires non-empty history)
    Pop the newest snapshot and restore period, readings, tariff and units
    verbatim. A full overwrite, not a merge: edits made since the rollover are
    discarded.

  Unlock: LOCKED -> OPEN
    Clears the flag, nothing else. Always succeeds.

SEE ALSO:
  - ledger.go: Store and edit operations
*/
package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/thaithanh/rentledger/billing"
)

// Rollover closes the current billing period and opens the next one. The
// pre-rollover state is pushed onto the front of history; every reading's old
// values take the new values, new values and debt reset to zero; the new
// period starts at the prior period's end and runs one calendar month (Go
// date normalization at month ends, not specially adjusted). The lock flag is
// set.
func (s *Store) Rollover() error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		archived := billing.HistorySnapshot{
			Period:   st.Period,
			Readings: append([]billing.ReadingRecord(nil), st.Readings...),
			Tariff:   st.Tariff,
			Units:    append([]billing.UnitConfig(nil), st.Units...),
		}

		rolled := make([]billing.ReadingRecord, len(st.Readings))
		for i, r := range st.Readings {
			rolled[i] = billing.ReadingRecord{
				UnitID:         r.UnitID,
				OldElectricity: r.NewElectricity,
				OldWater:       r.NewWater,
				Debt:           decimal.Zero,
			}
		}

		st.History = append([]billing.HistorySnapshot{archived}, st.History...)
		st.Readings = rolled
		st.Period = st.Period.Next()
		st.Locked = true
		return nil
	})
}

// Undo restores the most recently archived period, discarding the current
// one. Fails with ErrEmptyHistory when no snapshot exists, leaving state
// unchanged.
func (s *Store) Undo() error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		if len(st.History) == 0 {
			return ErrEmptyHistory
		}
		last := st.History[0].Clone()
		st.Period = last.Period
		st.Readings = last.Readings
		st.Tariff = last.Tariff
		st.Units = last.Units
		st.History = st.History[1:]
		st.Locked = false
		return nil
	})
}

// Unlock clears the advisory lock flag with no other side effect.
func (s *Store) Unlock() error {
	return s.mutate(OriginLocal, func(st *billing.AppState) error {
		st.Locked = false
		return nil
	})
}
