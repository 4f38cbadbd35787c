/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the wire contract from
  the domain model. Response shapes reuse the domain types directly (they ARE
  the document schema); request types exist to apply the boundary coercion
  policy.

LENIENT COERCION:
  Numeric reading/tariff input may arrive as a JSON number, a formatted
  string ("1.100.000"), or garbage. FlexMeter and FlexAmount coerce anything
  malformed to ZERO rather than rejecting - a documented policy of this
  system, applied here so the core never sees unvalidated input.

SEE ALSO:
  - handlers.go:       Uses these types
  - billing/coerce.go: The coercion helpers
*/
package api

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/thaithanh/rentledger/billing"
	"github.com/thaithanh/rentledger/config"
)

// =============================================================================
// FLEXIBLE NUMERIC FIELDS - Coerce-to-zero boundary policy
// =============================================================================

// FlexMeter accepts a meter reading as number or string; malformed input
// becomes zero.
type FlexMeter int64

func (f *FlexMeter) UnmarshalJSON(data []byte) error {
	*f = FlexMeter(billing.ParseMeter(unquote(data)))
	return nil
}

// FlexAmount accepts a currency amount as number or string; malformed input
// becomes zero.
type FlexAmount struct {
	decimal.Decimal
}

func (f *FlexAmount) UnmarshalJSON(data []byte) error {
	f.Decimal = billing.ParseAmount(unquote(data))
	return nil
}

func unquote(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		return ""
	}
	return s
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// TariffRequest replaces the tariff schedule wholesale.
type TariffRequest struct {
	ElectricityPrice   FlexAmount `json:"electricityPrice"`
	WaterPrice         FlexAmount `json:"waterPrice"`
	WifiPhonePrice     FlexAmount `json:"wifiPhonePrice"`
	WifiTvPrice        FlexAmount `json:"wifiTvPrice"`
	SecurityTrashPrice FlexAmount `json:"securityTrashPrice"`
}

func (r TariffRequest) toDomain() billing.TariffSchedule {
	return billing.TariffSchedule{
		ElectricityPrice:   r.ElectricityPrice.Decimal,
		WaterPrice:         r.WaterPrice.Decimal,
		WifiPhonePrice:     r.WifiPhonePrice.Decimal,
		WifiTvPrice:        r.WifiTvPrice.Decimal,
		SecurityTrashPrice: r.SecurityTrashPrice.Decimal,
	}
}

// UnitRequest creates or replaces one unit. An empty id on create means
// "generate one".
type UnitRequest struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	TenantName   string     `json:"tenantName"`
	Phone        string     `json:"phone"`
	BaseRent     FlexAmount `json:"baseRent"`
	Deposit      FlexAmount `json:"deposit"`
	HasWifiPhone bool       `json:"hasWifiPhone"`
	HasWifiTv    bool       `json:"hasWifiTv"`
}

func (r UnitRequest) toDomain() billing.UnitConfig {
	return billing.UnitConfig{
		ID:           r.ID,
		Name:         r.Name,
		TenantName:   r.TenantName,
		Phone:        r.Phone,
		BaseRent:     r.BaseRent.Decimal,
		Deposit:      r.Deposit.Decimal,
		HasWifiPhone: r.HasWifiPhone,
		HasWifiTv:    r.HasWifiTv,
	}
}

// ReadingRequest replaces one unit's reading record wholesale.
type ReadingRequest struct {
	OldElectricity FlexMeter  `json:"oldElectricity"`
	NewElectricity FlexMeter  `json:"newElectricity"`
	OldWater       FlexMeter  `json:"oldWater"`
	NewWater       FlexMeter  `json:"newWater"`
	Debt           FlexAmount `json:"debt"`
}

func (r ReadingRequest) toDomain(unitID string) billing.ReadingRecord {
	return billing.ReadingRecord{
		UnitID:         unitID,
		OldElectricity: int64(r.OldElectricity),
		NewElectricity: int64(r.NewElectricity),
		OldWater:       int64(r.OldWater),
		NewWater:       int64(r.NewWater),
		Debt:           r.Debt.Decimal,
	}
}

// PeriodRequest replaces the billing period. Dates are "2006-01-02";
// malformed dates coerce to the zero date (from < to is not enforced).
type PeriodRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (r PeriodRequest) toDomain() billing.BillingPeriod {
	return billing.BillingPeriod{
		From: billing.ParseDate(r.From),
		To:   billing.ParseDate(r.To),
	}
}

// PreferencesRequest updates UI preferences carried in the document.
type PreferencesRequest struct {
	FontSize int `json:"uiFontSize"`
}

// SyncConfigRequest sets or clears the remote sync target at runtime. An
// unusable credential set (missing fields, placeholder api key) clears the
// target rather than erroring.
type SyncConfigRequest struct {
	BaseURL    string `json:"baseUrl"`
	Collection string `json:"collection"`
	DocKey     string `json:"docKey"`
	APIKey     string `json:"apiKey"`
	ProjectID  string `json:"projectId"`
}

func (r SyncConfigRequest) toCloud() config.Cloud {
	c := config.Cloud{
		BaseURL:    r.BaseURL,
		Collection: r.Collection,
		DocKey:     r.DocKey,
		APIKey:     r.APIKey,
		ProjectID:  r.ProjectID,
	}
	if c.Collection == "" {
		c.Collection = "rentledger"
	}
	if c.DocKey == "" {
		c.DocKey = "main_data"
	}
	return c
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SyncStatusDTO reports the reconciler's connectivity state.
type SyncStatusDTO struct {
	Status string `json:"status"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
