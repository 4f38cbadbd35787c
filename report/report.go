/*
Package report derives fleet-wide figures from the current ledger state.

PURPOSE:
  A read-only projection for dashboards: total consumption, carried debt,
  projected revenue with a per-category split, and consumption leaderboards.
  Every figure is computed by running the invoice calculator per unit, so the
  reporter can never disagree with the invoices it summarizes.

NO CACHING:
  Build recomputes from the given state on every call. O(units) per query;
  the fleet is tens of units, so always-fresh beats cache invalidation.
*/
package report

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/thaithanh/rentledger/billing"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// CategoryRevenue splits projected revenue by charge category. Other covers
// the flat services (wifi and security+trash).
type CategoryRevenue struct {
	Rent        decimal.Decimal `json:"rent"`
	Electricity decimal.Decimal `json:"electricity"`
	Water       decimal.Decimal `json:"water"`
	Other       decimal.Decimal `json:"other"`
}

// UnitUsage is one leaderboard row.
type UnitUsage struct {
	UnitID   string `json:"unitId"`
	UnitName string `json:"unitName"`
	Used     int64  `json:"used"`
}

// Report is the full dashboard projection for one state.
type Report struct {
	TotalElectricity int64           `json:"totalElectricity"`
	TotalWater       int64           `json:"totalWater"`
	TotalDebt        decimal.Decimal `json:"totalDebt"`

	// TotalRevenue is the sum of per-unit grand totals, carried debt
	// included.
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	ByCategory   CategoryRevenue `json:"byCategory"`

	// Leaderboards sorted by descending usage; ties keep display-name order.
	TopElectricity []UnitUsage `json:"topElectricity"`
	TopWater       []UnitUsage `json:"topWater"`
}

// =============================================================================
// PROJECTION
// =============================================================================

// Build computes the report for the given state. Units without a reading
// record contribute nothing; the ledger keeps that case from existing.
func Build(state billing.AppState) Report {
	rep := Report{
		TotalDebt:    decimal.Zero,
		TotalRevenue: decimal.Zero,
		ByCategory: CategoryRevenue{
			Rent:        decimal.Zero,
			Electricity: decimal.Zero,
			Water:       decimal.Zero,
			Other:       decimal.Zero,
		},
	}

	for _, unit := range state.SortedUnits() {
		reading, ok := state.ReadingByUnit(unit.ID)
		if !ok {
			continue
		}
		inv := billing.ComputeInvoice(unit, reading, state.Tariff)

		rep.TotalElectricity += inv.ElectricityUsed
		rep.TotalWater += inv.WaterUsed
		rep.TotalDebt = rep.TotalDebt.Add(inv.Debt)
		rep.TotalRevenue = rep.TotalRevenue.Add(inv.GrandTotal)

		rep.ByCategory.Rent = rep.ByCategory.Rent.Add(inv.Item(billing.LineRent).Total)
		rep.ByCategory.Electricity = rep.ByCategory.Electricity.Add(inv.Item(billing.LineElectricity).Total)
		rep.ByCategory.Water = rep.ByCategory.Water.Add(inv.Item(billing.LineWater).Total)
		rep.ByCategory.Other = rep.ByCategory.Other.
			Add(inv.Item(billing.LineWifiPhone).Total).
			Add(inv.Item(billing.LineWifiTv).Total).
			Add(inv.Item(billing.LineFixedService).Total)

		rep.TopElectricity = append(rep.TopElectricity, UnitUsage{
			UnitID: unit.ID, UnitName: unit.Name, Used: inv.ElectricityUsed,
		})
		rep.TopWater = append(rep.TopWater, UnitUsage{
			UnitID: unit.ID, UnitName: unit.Name, Used: inv.WaterUsed,
		})
	}

	sortDescending(rep.TopElectricity)
	sortDescending(rep.TopWater)
	return rep
}

// sortDescending orders a leaderboard by usage, highest first. SliceStable
// preserves the display-name order produced by SortedUnits for ties.
func sortDescending(rows []UnitUsage) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Used > rows[j].Used
	})
}
