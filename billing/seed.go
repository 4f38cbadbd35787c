/*
seed.go - First-run defaults

PURPOSE:
  SeedState builds the AppState used on first run, before any persisted or
  remote document exists: the standard roster of rooms and kiosks, the current
  tariff schedule, zeroed readings, and the initial billing period.

SEE ALSO:
  - cmd/server/main.go: Load-or-seed on startup
*/
package billing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// seedUnitIDs is the property's roster: the "A" row plus the ground row, each
// with one kiosk. Display names equal ids.
var seedUnitIDs = []string{
	"KIOT-A", "1A", "2A", "3A", "4A", "5A", "6A",
	"KIOT", "1", "2", "3", "4", "5", "6",
}

// Units with a phone-wifi subscription by default.
var seedWifiPhone = map[string]bool{
	"1A": true, "5A": true, "1": true, "5": true, "6": true,
}

// SeedTariff returns the default tariff schedule (VND).
func SeedTariff() TariffSchedule {
	return TariffSchedule{
		ElectricityPrice:   decimal.NewFromInt(3500),
		WaterPrice:         decimal.NewFromInt(14000),
		WifiPhonePrice:     decimal.NewFromInt(30000),
		WifiTvPrice:        decimal.NewFromInt(70000),
		SecurityTrashPrice: decimal.NewFromInt(40000),
	}
}

// SeedState returns the complete first-run state: 14 units with standard
// rents and deposits, one zeroed reading per unit, the default tariff, an
// unlocked initial period and empty history.
func SeedState() AppState {
	units := make([]UnitConfig, 0, len(seedUnitIDs))
	readings := make([]ReadingRecord, 0, len(seedUnitIDs))

	for _, id := range seedUnitIDs {
		kiosk := strings.Contains(id, "KIOT")
		rent := decimal.NewFromInt(1100000)
		deposit := decimal.NewFromInt(500000)
		if kiosk {
			rent = decimal.NewFromInt(2200000)
			deposit = decimal.NewFromInt(1000000)
		}
		units = append(units, UnitConfig{
			ID:           id,
			Name:         id,
			BaseRent:     rent,
			Deposit:      deposit,
			HasWifiPhone: seedWifiPhone[id],
			HasWifiTv:    id == "1",
		})
		readings = append(readings, ReadingRecord{UnitID: id, Debt: decimal.Zero})
	}

	return AppState{
		Tariff:   SeedTariff(),
		Units:    units,
		Readings: readings,
		Period: BillingPeriod{
			From: NewDate(2026, time.February, 10),
			To:   NewDate(2026, time.March, 10),
		},
		FontSize: 16,
		History:  []HistorySnapshot{},
	}
}
