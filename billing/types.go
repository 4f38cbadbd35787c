/*
Package billing provides the core domain model for recurring rental billing.

PURPOSE:
  This package contains the plain data types shared by every other component:
  the tariff schedule, the unit roster, per-period meter readings, the billing
  period, archived period snapshots, and the aggregate AppState that is the
  unit of persistence and synchronization.

KEY CONCEPTS IN THIS FILE (types.go):
  - TariffSchedule: Per-cycle unit prices shared by all units
  - UnitConfig:     One rentable unit (room or kiosk) and its tenant
  - ReadingRecord:  Old/new meter values plus carried debt for one unit
  - BillingPeriod:  The [from, to) date interval of the current cycle
  - HistorySnapshot: Immutable archive of one closed period
  - AppState:       The aggregate root; exactly one per deployment
  - Date:           Calendar-day time point, JSON "2006-01-02"

DESIGN PRINCIPLES:
  1. Precision: Money uses decimal.Decimal, never float64
  2. Plain data: No behavior beyond copying, lookup and shape validation
  3. Value semantics: Snapshots copy tariff/units/readings by value

SEE ALSO:
  - invoice.go: Pure charge calculation over these types
  - coerce.go:  Lenient numeric coercion at the input boundary
  - seed.go:    First-run defaults
*/
package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar-day time point
// =============================================================================

// Date is a calendar day in UTC. It marshals as "2006-01-02", matching the
// persisted document schema.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "2006-01-02". Malformed input yields the zero Date; date
// strings are user input and follow the same lenient-coercion policy as
// numeric fields.
func ParseDate(s string) Date {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}
	}
	return Date{Time: t}
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

// AddMonths uses standard Go calendar arithmetic: month-end overflow
// normalizes forward (Jan 31 + 1 month = Mar 2/3) and is intentionally not
// special-cased.
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.Time.AddDate(0, n, 0)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	*d = ParseDate(s)
	return nil
}

// =============================================================================
// TARIFF SCHEDULE - Global per-cycle unit prices
// =============================================================================

// TariffSchedule holds the prices applied to every unit in the current
// period. One instance is shared by all units; rollover copies it by value
// into the period's snapshot.
type TariffSchedule struct {
	ElectricityPrice   decimal.Decimal `json:"electricityPrice"`   // per kWh
	WaterPrice         decimal.Decimal `json:"waterPrice"`         // per m3
	WifiPhonePrice     decimal.Decimal `json:"wifiPhonePrice"`     // flat, optional
	WifiTvPrice        decimal.Decimal `json:"wifiTvPrice"`        // flat, optional
	SecurityTrashPrice decimal.Decimal `json:"securityTrashPrice"` // flat, always charged
}

// =============================================================================
// UNIT CONFIG - One rentable unit
// =============================================================================

type UnitConfig struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TenantName   string          `json:"tenantName"`
	Phone        string          `json:"phone"`
	BaseRent     decimal.Decimal `json:"baseRent"`
	Deposit      decimal.Decimal `json:"deposit"`
	HasWifiPhone bool            `json:"hasWifiPhone"`
	HasWifiTv    bool            `json:"hasWifiTv"`
}

// =============================================================================
// READING RECORD - Per unit, per current period
// =============================================================================

// ReadingRecord carries the old/new meter pair for electricity and water plus
// the outstanding-debt carry-in from prior periods. Exactly one record exists
// per unit in the current period.
type ReadingRecord struct {
	UnitID         string          `json:"unitId"`
	OldElectricity int64           `json:"oldElectricity"`
	NewElectricity int64           `json:"newElectricity"`
	OldWater       int64           `json:"oldWater"`
	NewWater       int64           `json:"newWater"`
	Debt           decimal.Decimal `json:"debt"`
}

// =============================================================================
// BILLING PERIOD
// =============================================================================

// BillingPeriod is the current cycle's date interval. From < To is expected
// but deliberately not enforced; rollover advances From to the prior To.
type BillingPeriod struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// Next returns the period that follows this one: the new From is this
// period's To and the new To is one calendar month later.
func (p BillingPeriod) Next() BillingPeriod {
	return BillingPeriod{From: p.To, To: p.To.AddMonths(1)}
}

func (p BillingPeriod) String() string {
	return "[" + p.From.String() + ", " + p.To.String() + ")"
}

// =============================================================================
// HISTORY SNAPSHOT - Frozen state of one closed period
// =============================================================================

// HistorySnapshot is the immutable record of one closed period: the period,
// readings, tariff and unit roster exactly as they were at close time.
// History is ordered most-recent-first and is append-only except for the
// explicit undo operation, which removes the newest entry.
type HistorySnapshot struct {
	Period   BillingPeriod   `json:"period"`
	Readings []ReadingRecord `json:"readings"`
	Tariff   TariffSchedule  `json:"tariff"`
	Units    []UnitConfig    `json:"units"`
}

func (s HistorySnapshot) Clone() HistorySnapshot {
	out := s
	out.Readings = append([]ReadingRecord(nil), s.Readings...)
	out.Units = append([]UnitConfig(nil), s.Units...)
	return out
}

// =============================================================================
// APP STATE - The aggregate root
// =============================================================================

// AppState is the whole-deployment state: the unit of local persistence and of
// remote synchronization. It is created once from seed defaults, mutated by
// every ledger operation, and only ever overwritten wholesale (import, remote
// apply) - never deleted.
type AppState struct {
	Tariff   TariffSchedule    `json:"tariff"`
	Units    []UnitConfig      `json:"units"`
	Readings []ReadingRecord   `json:"readings"`
	Period   BillingPeriod     `json:"period"`
	Locked   bool              `json:"isLocked"`
	FontSize int               `json:"uiFontSize"`
	History  []HistorySnapshot `json:"history"`
}

// Clone returns a deep copy. Slices are copied element-wise; decimal values
// are immutable so element copies are sufficient.
func (s AppState) Clone() AppState {
	out := s
	out.Units = append([]UnitConfig(nil), s.Units...)
	out.Readings = append([]ReadingRecord(nil), s.Readings...)
	if s.History != nil {
		out.History = make([]HistorySnapshot, len(s.History))
		for i, h := range s.History {
			out.History[i] = h.Clone()
		}
	}
	return out
}

// UnitByID looks up a unit by its stable id.
func (s AppState) UnitByID(id string) (UnitConfig, bool) {
	for _, u := range s.Units {
		if u.ID == id {
			return u, true
		}
	}
	return UnitConfig{}, false
}

// ReadingByUnit looks up the current-period reading for a unit.
func (s AppState) ReadingByUnit(id string) (ReadingRecord, bool) {
	for _, r := range s.Readings {
		if r.UnitID == id {
			return r, true
		}
	}
	return ReadingRecord{}, false
}

// SortedUnits returns the roster ordered by display name for rendering and
// export. The underlying collection stays unordered for lookups.
func (s AppState) SortedUnits() []UnitConfig {
	out := append([]UnitConfig(nil), s.Units...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ValidateShape checks the structural invariants required of any document
// accepted as a full AppState: non-empty unique unit ids and a one-to-one
// correspondence between units and reading records. Numeric values are never
// validated here.
func (s AppState) ValidateShape() error {
	unitIDs := make(map[string]bool, len(s.Units))
	for _, u := range s.Units {
		if u.ID == "" {
			return fmt.Errorf("unit with empty id")
		}
		if unitIDs[u.ID] {
			return fmt.Errorf("duplicate unit id %q", u.ID)
		}
		unitIDs[u.ID] = true
	}
	readingIDs := make(map[string]bool, len(s.Readings))
	for _, r := range s.Readings {
		if readingIDs[r.UnitID] {
			return fmt.Errorf("duplicate reading for unit %q", r.UnitID)
		}
		if !unitIDs[r.UnitID] {
			return fmt.Errorf("reading for unknown unit %q", r.UnitID)
		}
		readingIDs[r.UnitID] = true
	}
	if len(readingIDs) != len(unitIDs) {
		return fmt.Errorf("readings do not cover all units: %d readings, %d units",
			len(readingIDs), len(unitIDs))
	}
	return nil
}
