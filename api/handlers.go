/*
handlers.go - HTTP handlers for the billing core

PURPOSE:
  Exposes the ledger, calculator, reporter and sync status over REST. Handles
  HTTP request/response and JSON serialization, then delegates to the core;
  presentation never recomputes charges itself - invoices come from
  billing.ComputeInvoice and nowhere else.

ENDPOINTS:
  State:
    GET    /api/state                Full AppState export
    POST   /api/state/import         Wholesale import (all-or-nothing)

  Tariff / units / readings:
    GET    /api/tariff               Current tariff schedule
    PUT    /api/tariff               Replace tariff
    GET    /api/units                Roster ordered by display name
    POST   /api/units                Create unit (+empty reading, atomic)
    PUT    /api/units/{id}           Replace unit
    DELETE /api/units/{id}           Remove unit (+reading, atomic)
    GET    /api/readings             Current-period readings
    PUT    /api/readings/{unitId}    Replace one reading

  Period lifecycle:
    GET    /api/period               Current period + lock flag
    PUT    /api/period               Replace period dates
    POST   /api/period/rollover      Close period, archive, open next
    POST   /api/period/undo          Restore last archived period
    POST   /api/period/unlock        Clear advisory lock

  Projections:
    GET    /api/report               Fleet totals, category split, rankings
    GET    /api/invoices             All invoice breakdowns
    GET    /api/invoices/{unitId}    One invoice breakdown
    GET    /api/history              Archived periods

  Sync / preferences:
    GET    /api/sync/status          Reconciler connectivity state
    PUT    /api/sync/config          Set or clear the remote sync target
    PUT    /api/preferences          UI font size

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body or malformed import
  - 404: Unknown unit
  - 409: Undo with empty history
  - 500: Internal errors
  Numeric values never produce validation errors; they coerce to zero in the
  DTO layer.

SEE ALSO:
  - dto.go:    Request/response shapes and coercion
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thaithanh/rentledger/billing"
	"github.com/thaithanh/rentledger/cloudsync"
	"github.com/thaithanh/rentledger/ledger"
	"github.com/thaithanh/rentledger/metrics"
	"github.com/thaithanh/rentledger/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *ledger.Store
	Reconciler *cloudsync.Reconciler // nil when sync is not wired (tests)
}

// NewHandler creates a handler over the given ledger store.
func NewHandler(store *ledger.Store, rec *cloudsync.Reconciler) *Handler {
	return &Handler{Store: store, Reconciler: rec}
}

// =============================================================================
// STATE EXPORT / IMPORT
// =============================================================================

func (h *Handler) ExportState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Export())
}

func (h *Handler) ImportState(w http.ResponseWriter, r *http.Request) {
	var state billing.AppState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, &ledger.MalformedImportError{Reason: err})
		return
	}
	if err := h.Store.Import(state); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Export())
}

// =============================================================================
// TARIFF
// =============================================================================

func (h *Handler) GetTariff(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Snapshot().Tariff)
}

func (h *Handler) UpdateTariff(w http.ResponseWriter, r *http.Request) {
	var req TariffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Store.UpdateTariff(req.toDomain()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Snapshot().Tariff)
}

// =============================================================================
// UNITS
// =============================================================================

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Snapshot().SortedUnits())
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req UnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	unit, err := h.Store.UpsertUnit(req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	var req UnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	unit, err := h.Store.UpsertUnit(req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

func (h *Handler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.RemoveUnit(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// READINGS
// =============================================================================

func (h *Handler) ListReadings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Store.Snapshot().Readings)
}

func (h *Handler) UpdateReading(w http.ResponseWriter, r *http.Request) {
	var req ReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec := req.toDomain(chi.URLParam(r, "unitId"))
	if err := h.Store.UpdateReading(rec); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// =============================================================================
// PERIOD LIFECYCLE
// =============================================================================

type periodDTO struct {
	Period billing.BillingPeriod `json:"period"`
	Locked bool                  `json:"isLocked"`
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	st := h.Store.Snapshot()
	writeJSON(w, http.StatusOK, periodDTO{Period: st.Period, Locked: st.Locked})
}

func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	var req PeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Store.SetPeriod(req.toDomain()); err != nil {
		writeDomainError(w, err)
		return
	}
	h.GetPeriod(w, r)
}

func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Rollover(); err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.Rollovers.Inc()
	h.GetPeriod(w, r)
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Undo(); err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.Undos.Inc()
	h.GetPeriod(w, r)
}

func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Unlock(); err != nil {
		writeDomainError(w, err)
		return
	}
	h.GetPeriod(w, r)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	st := h.Store.Snapshot()
	if st.History == nil {
		st.History = []billing.HistorySnapshot{}
	}
	writeJSON(w, http.StatusOK, st.History)
}

// =============================================================================
// PROJECTIONS - Report and invoices
// =============================================================================

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.Build(h.Store.Snapshot()))
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	st := h.Store.Snapshot()
	invoices := make([]billing.InvoiceBreakdown, 0, len(st.Units))
	for _, unit := range st.SortedUnits() {
		reading, ok := st.ReadingByUnit(unit.ID)
		if !ok {
			continue
		}
		inv := billing.ComputeInvoice(unit, reading, st.Tariff)
		inv.Period = st.Period
		invoices = append(invoices, inv)
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	st := h.Store.Snapshot()
	id := chi.URLParam(r, "unitId")
	unit, ok := st.UnitByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, &ledger.UnknownUnitError{UnitID: id})
		return
	}
	reading, _ := st.ReadingByUnit(unit.ID)
	inv := billing.ComputeInvoice(unit, reading, st.Tariff)
	inv.Period = st.Period
	writeJSON(w, http.StatusOK, inv)
}

// =============================================================================
// SYNC / PREFERENCES
// =============================================================================

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	status := cloudsync.StatusUnconfigured
	if h.Reconciler != nil {
		status = h.Reconciler.Status()
	}
	writeJSON(w, http.StatusOK, SyncStatusDTO{Status: string(status)})
}

// UpdateSyncConfig sets or clears the remote sync target at runtime. An
// unusable credential set clears the target and returns to local-only; a
// usable one replaces any existing subscription.
func (h *Handler) UpdateSyncConfig(w http.ResponseWriter, r *http.Request) {
	if h.Reconciler == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("sync is not wired"))
		return
	}
	var req SyncConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cloud := req.toCloud()
	if !cloud.Configured() {
		h.Reconciler.Clear()
		h.SyncStatus(w, r)
		return
	}

	remote := cloudsync.NewHTTPDocument(
		cloud.BaseURL, cloud.Collection, cloud.DocKey,
		cloud.APIKey, cloud.ProjectID, nil)
	// The subscription outlives this request.
	if err := h.Reconciler.Configure(context.Background(), remote); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	h.SyncStatus(w, r)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.Store.SetFontSize(req.FontSize); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// writeDomainError maps ledger errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrEmptyHistory):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrUnknownUnit):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrMalformedImport):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
