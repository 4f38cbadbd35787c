/*
invoice.go - Pure charge calculation for one unit

PURPOSE:
  ComputeInvoice maps (unit, reading, tariff) to a priced, itemized invoice
  breakdown. This is the single calculation authority: presentation and the
  aggregation reporter both consume InvoiceBreakdown and never recompute
  charges themselves.

CALCULATION RULES:
  - Consumption is clamped: used = max(0, new - old). A meter rollback or
    misentry yields zero usage, never an error.
  - Optional services (phone wifi, TV wifi) charge the flat tariff price when
    the unit's flag is set, otherwise zero with quantity 0.
  - The security+trash service is always charged.
  - GrandTotal = Subtotal + Debt. Debt is an additive carry-in, never
    subtracted.

ITEM ORDER:
  Line items appear in a stable order (rent, electricity, water, phone wifi,
  TV wifi, fixed service) so invoice rendering and category rollups are
  deterministic.

PURITY:
  No side effects, no I/O, no error conditions. Inputs are treated as
  already-validated; coercion of raw input happens upstream (see coerce.go).

SEE ALSO:
  - types.go:  Input types
  - coerce.go: Boundary coercion policy
*/
package billing

import "github.com/shopspring/decimal"

// =============================================================================
// LINE ITEMS
// =============================================================================

type LineKind string

const (
	LineRent         LineKind = "rent"
	LineElectricity  LineKind = "electricity"
	LineWater        LineKind = "water"
	LineWifiPhone    LineKind = "wifi_phone"
	LineWifiTv       LineKind = "wifi_tv"
	LineFixedService LineKind = "fixed_service"
)

// LineItem is one priced row of an invoice: quantity, unit price and the
// extended total.
type LineItem struct {
	Kind      LineKind        `json:"kind"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// =============================================================================
// INVOICE BREAKDOWN
// =============================================================================

// InvoiceBreakdown is the calculator's complete output and the sole interface
// between the billing core and any presentation or export layer.
type InvoiceBreakdown struct {
	UnitID          string          `json:"unitId"`
	UnitName        string          `json:"unitName"`
	Period          BillingPeriod   `json:"period"`
	ElectricityUsed int64           `json:"electricityUsed"`
	WaterUsed       int64           `json:"waterUsed"`
	Items           []LineItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Debt            decimal.Decimal `json:"debt"`
	GrandTotal      decimal.Decimal `json:"grandTotal"`
}

// Item returns the line item of the given kind. The zero LineItem is returned
// for kinds not present (never the case for ComputeInvoice output).
func (b InvoiceBreakdown) Item(kind LineKind) LineItem {
	for _, it := range b.Items {
		if it.Kind == kind {
			return it
		}
	}
	return LineItem{}
}

// =============================================================================
// CALCULATOR
// =============================================================================

// clampedUsage returns max(0, new-old). Negative deltas are a deliberate
// leniency for meter rollback or misentry, not an error.
func clampedUsage(oldValue, newValue int64) int64 {
	if newValue < oldValue {
		return 0
	}
	return newValue - oldValue
}

// ComputeInvoice prices one unit's current-period charges. Deterministic for
// given inputs; the breakdown's item order is always rent, electricity, water,
// phone wifi, TV wifi, fixed service.
func ComputeInvoice(unit UnitConfig, reading ReadingRecord, tariff TariffSchedule) InvoiceBreakdown {
	elecUsed := clampedUsage(reading.OldElectricity, reading.NewElectricity)
	waterUsed := clampedUsage(reading.OldWater, reading.NewWater)

	items := []LineItem{
		{
			Kind:      LineRent,
			Quantity:  1,
			UnitPrice: unit.BaseRent,
			Total:     unit.BaseRent,
		},
		{
			Kind:      LineElectricity,
			Quantity:  elecUsed,
			UnitPrice: tariff.ElectricityPrice,
			Total:     tariff.ElectricityPrice.Mul(decimal.NewFromInt(elecUsed)),
		},
		{
			Kind:      LineWater,
			Quantity:  waterUsed,
			UnitPrice: tariff.WaterPrice,
			Total:     tariff.WaterPrice.Mul(decimal.NewFromInt(waterUsed)),
		},
		flatLine(LineWifiPhone, unit.HasWifiPhone, tariff.WifiPhonePrice),
		flatLine(LineWifiTv, unit.HasWifiTv, tariff.WifiTvPrice),
		{
			Kind:      LineFixedService,
			Quantity:  1,
			UnitPrice: tariff.SecurityTrashPrice,
			Total:     tariff.SecurityTrashPrice,
		},
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}

	return InvoiceBreakdown{
		UnitID:          unit.ID,
		UnitName:        unit.Name,
		ElectricityUsed: elecUsed,
		WaterUsed:       waterUsed,
		Items:           items,
		Subtotal:        subtotal,
		Debt:            reading.Debt,
		GrandTotal:      subtotal.Add(reading.Debt),
	}
}

// flatLine builds an optional flat-price line: quantity 1 and the full price
// when enabled, quantity 0 and total zero when not. The unit price is shown
// either way for invoice rendering.
func flatLine(kind LineKind, enabled bool, price decimal.Decimal) LineItem {
	item := LineItem{Kind: kind, UnitPrice: price, Total: decimal.Zero}
	if enabled {
		item.Quantity = 1
		item.Total = price
	}
	return item
}
