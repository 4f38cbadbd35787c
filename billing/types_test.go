package billing_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaithanh/rentledger/billing"
)

// =============================================================================
// DATE AND PERIOD ARITHMETIC
// =============================================================================

func TestBillingPeriod_Next(t *testing.T) {
	// GIVEN: period 2026-02-10 .. 2026-03-10
	// WHEN:  advancing to the next period
	// THEN:  new from = prior to, new to = one calendar month later

	p := billing.BillingPeriod{
		From: billing.NewDate(2026, time.February, 10),
		To:   billing.NewDate(2026, time.March, 10),
	}
	next := p.Next()

	assert.Equal(t, "2026-03-10", next.From.String())
	assert.Equal(t, "2026-04-10", next.To.String())
}

func TestBillingPeriod_Next_MonthEndOverflow(t *testing.T) {
	// Standard Go date normalization: Jan 31 + 1 month lands in March.
	// Deliberately not special-cased.
	p := billing.BillingPeriod{
		From: billing.NewDate(2026, time.January, 1),
		To:   billing.NewDate(2026, time.January, 31),
	}
	next := p.Next()
	assert.Equal(t, "2026-03-03", next.To.String())
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := billing.NewDate(2026, time.February, 10)
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-02-10"`, string(raw))

	var back billing.Date
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.Equal(d))
}

func TestParseDate_MalformedYieldsZero(t *testing.T) {
	assert.True(t, billing.ParseDate("not a date").IsZero())
	assert.True(t, billing.ParseDate("").IsZero())
}

// =============================================================================
// APP STATE HELPERS
// =============================================================================

func TestAppState_SortedUnits(t *testing.T) {
	state := billing.AppState{
		Units: []billing.UnitConfig{
			{ID: "c", Name: "Kiosk"},
			{ID: "a", Name: "1A"},
			{ID: "b", Name: "2A"},
		},
	}
	sorted := state.SortedUnits()

	assert.Equal(t, []string{"1A", "2A", "Kiosk"}, []string{sorted[0].Name, sorted[1].Name, sorted[2].Name})
	assert.Equal(t, "c", state.Units[0].ID, "underlying collection untouched")
}

func TestAppState_Clone_IsDeep(t *testing.T) {
	state := billing.SeedState()
	state.History = []billing.HistorySnapshot{{
		Period:   state.Period,
		Readings: append([]billing.ReadingRecord(nil), state.Readings...),
		Tariff:   state.Tariff,
		Units:    append([]billing.UnitConfig(nil), state.Units...),
	}}

	clone := state.Clone()
	clone.Units[0].Name = "mutated"
	clone.Readings[0].NewElectricity = 999
	clone.History[0].Units[0].Name = "mutated"

	assert.NotEqual(t, "mutated", state.Units[0].Name)
	assert.NotEqual(t, int64(999), state.Readings[0].NewElectricity)
	assert.NotEqual(t, "mutated", state.History[0].Units[0].Name)
}

func TestAppState_ValidateShape(t *testing.T) {
	valid := billing.SeedState()
	assert.NoError(t, valid.ValidateShape())

	missingReading := valid.Clone()
	missingReading.Readings = missingReading.Readings[1:]
	assert.Error(t, missingReading.ValidateShape(), "every unit needs a reading")

	orphanReading := valid.Clone()
	orphanReading.Readings = append(orphanReading.Readings, billing.ReadingRecord{UnitID: "ghost"})
	assert.Error(t, orphanReading.ValidateShape(), "readings must reference known units")

	dupUnit := valid.Clone()
	dupUnit.Units = append(dupUnit.Units, dupUnit.Units[0])
	assert.Error(t, dupUnit.ValidateShape(), "unit ids must be unique")
}

// =============================================================================
// SEED DEFAULTS
// =============================================================================

func TestSeedState_Shape(t *testing.T) {
	state := billing.SeedState()

	require.NoError(t, state.ValidateShape())
	assert.Len(t, state.Units, 14)
	assert.Len(t, state.Readings, 14)
	assert.False(t, state.Locked)
	assert.Equal(t, 16, state.FontSize)
	assert.Empty(t, state.History)
	assert.Equal(t, "2026-02-10", state.Period.From.String())

	kiosk, ok := state.UnitByID("KIOT")
	require.True(t, ok)
	assert.True(t, kiosk.BaseRent.Equal(decimal.NewFromInt(2200000)))

	room, ok := state.UnitByID("3A")
	require.True(t, ok)
	assert.True(t, room.BaseRent.Equal(decimal.NewFromInt(1100000)))
}
