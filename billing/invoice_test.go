package billing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaithanh/rentledger/billing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func vnd(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func testTariff() billing.TariffSchedule {
	return billing.TariffSchedule{
		ElectricityPrice:   vnd(3500),
		WaterPrice:         vnd(14000),
		WifiPhonePrice:     vnd(30000),
		WifiTvPrice:        vnd(70000),
		SecurityTrashPrice: vnd(40000),
	}
}

func testUnit() billing.UnitConfig {
	return billing.UnitConfig{
		ID:       "1A",
		Name:     "1A",
		BaseRent: vnd(1100000),
		Deposit:  vnd(500000),
	}
}

// =============================================================================
// CLAMPING LAW
// =============================================================================

func TestComputeInvoice_UsageClamping(t *testing.T) {
	tests := []struct {
		name     string
		old, new int64
		want     int64
	}{
		{"normal consumption", 100, 130, 30},
		{"no consumption", 100, 100, 0},
		{"meter rollback clamps to zero", 130, 100, 0},
		{"fresh meter", 0, 45, 45},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reading := billing.ReadingRecord{
				UnitID:         "1A",
				OldElectricity: tc.old,
				NewElectricity: tc.new,
				OldWater:       tc.old,
				NewWater:       tc.new,
				Debt:           decimal.Zero,
			}
			inv := billing.ComputeInvoice(testUnit(), reading, testTariff())
			assert.Equal(t, tc.want, inv.ElectricityUsed)
			assert.Equal(t, tc.want, inv.WaterUsed)
		})
	}
}

// =============================================================================
// LINE ITEMS AND TOTALS
// =============================================================================

func TestComputeInvoice_WorkedScenario(t *testing.T) {
	// GIVEN: old=100, new=130, electricity 3500/kWh, rent 1,100,000, no
	//        optional services, security+trash 40,000, 5 m3 water, no debt
	// THEN:  electricity line = 30 * 3500 = 105,000 and
	//        grandTotal = 1,100,000 + 105,000 + 70,000 + 40,000

	reading := billing.ReadingRecord{
		UnitID:         "1A",
		OldElectricity: 100,
		NewElectricity: 130,
		OldWater:       10,
		NewWater:       15,
		Debt:           decimal.Zero,
	}
	inv := billing.ComputeInvoice(testUnit(), reading, testTariff())

	elec := inv.Item(billing.LineElectricity)
	assert.True(t, elec.Total.Equal(vnd(105000)), "electricity = 30 * 3500, got %s", elec.Total)
	assert.Equal(t, int64(30), elec.Quantity)

	water := inv.Item(billing.LineWater)
	assert.True(t, water.Total.Equal(vnd(70000)), "water = 5 * 14000, got %s", water.Total)

	want := vnd(1100000 + 105000 + 70000 + 40000)
	assert.True(t, inv.Subtotal.Equal(want), "subtotal: want %s got %s", want, inv.Subtotal)
	assert.True(t, inv.GrandTotal.Equal(want), "no debt: grand total equals subtotal")
}

func TestComputeInvoice_DebtIsAdditiveCarryIn(t *testing.T) {
	// GIVEN: an outstanding debt of 646,000
	// THEN:  grandTotal = subtotal + debt, debt never subtracted

	reading := billing.ReadingRecord{UnitID: "1A", Debt: vnd(646000)}
	inv := billing.ComputeInvoice(testUnit(), reading, testTariff())

	assert.True(t, inv.GrandTotal.Equal(inv.Subtotal.Add(vnd(646000))))
	assert.True(t, inv.Debt.Equal(vnd(646000)))
}

func TestComputeInvoice_OptionalServices(t *testing.T) {
	unit := testUnit()
	unit.HasWifiPhone = true
	unit.HasWifiTv = false

	inv := billing.ComputeInvoice(unit, billing.ReadingRecord{UnitID: unit.ID}, testTariff())

	phone := inv.Item(billing.LineWifiPhone)
	assert.Equal(t, int64(1), phone.Quantity)
	assert.True(t, phone.Total.Equal(vnd(30000)))

	tv := inv.Item(billing.LineWifiTv)
	assert.Equal(t, int64(0), tv.Quantity, "disabled service has quantity 0")
	assert.True(t, tv.Total.IsZero(), "disabled service charges nothing")
	assert.True(t, tv.UnitPrice.Equal(vnd(70000)), "unit price still shown for rendering")

	fixed := inv.Item(billing.LineFixedService)
	assert.True(t, fixed.Total.Equal(vnd(40000)), "security+trash always charged")
}

func TestComputeInvoice_StableItemOrder(t *testing.T) {
	inv := billing.ComputeInvoice(testUnit(), billing.ReadingRecord{UnitID: "1A"}, testTariff())

	want := []billing.LineKind{
		billing.LineRent,
		billing.LineElectricity,
		billing.LineWater,
		billing.LineWifiPhone,
		billing.LineWifiTv,
		billing.LineFixedService,
	}
	require.Len(t, inv.Items, len(want))
	for i, kind := range want {
		assert.Equal(t, kind, inv.Items[i].Kind, "item %d", i)
	}
}

func TestComputeInvoice_Deterministic(t *testing.T) {
	reading := billing.ReadingRecord{
		UnitID:         "1A",
		OldElectricity: 12257,
		NewElectricity: 12413,
		OldWater:       1167,
		NewWater:       1170,
		Debt:           vnd(646000),
	}
	first := billing.ComputeInvoice(testUnit(), reading, testTariff())
	second := billing.ComputeInvoice(testUnit(), reading, testTariff())
	assert.Equal(t, first, second)
}

// =============================================================================
// BOUNDARY COERCION
// =============================================================================

func TestParseAmount_LenientCoercion(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1100000", 1100000},
		{"1.100.000", 1100000}, // formatted currency
		{"1,100,000 đ", 1100000},
		{"  40000  ", 40000},
		{"", 0},
		{"abc", 0},
		{"-", 0},
	}
	for _, tc := range tests {
		got := billing.ParseAmount(tc.in)
		assert.True(t, got.Equal(vnd(tc.want)), "ParseAmount(%q) = %s, want %d", tc.in, got, tc.want)
	}
}

func TestParseMeter_LenientCoercion(t *testing.T) {
	assert.Equal(t, int64(12413), billing.ParseMeter("12413"))
	assert.Equal(t, int64(12413), billing.ParseMeter(" 12.413 "))
	assert.Equal(t, int64(0), billing.ParseMeter(""))
	assert.Equal(t, int64(0), billing.ParseMeter("n/a"))
}
