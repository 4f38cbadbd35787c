/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and route definitions. This is
  the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/*      Billing core (see handlers.go)
  /metrics    Prometheus scrape endpoint
  /healthz    Liveness probe

SECURITY NOTE:
  No authentication middleware; auth is explicitly out of scope for this
  service and must be provided by the deployment (reverse proxy).

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/thaithanh/rentledger/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Whole-document export / import
		r.Get("/state", h.ExportState)
		r.Post("/state/import", h.ImportState)

		// Tariff
		r.Get("/tariff", h.GetTariff)
		r.Put("/tariff", h.UpdateTariff)

		// Units
		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Post("/", h.CreateUnit)
			r.Put("/{id}", h.UpdateUnit)
			r.Delete("/{id}", h.DeleteUnit)
		})

		// Readings
		r.Route("/readings", func(r chi.Router) {
			r.Get("/", h.ListReadings)
			r.Put("/{unitId}", h.UpdateReading)
		})

		// Period lifecycle
		r.Route("/period", func(r chi.Router) {
			r.Get("/", h.GetPeriod)
			r.Put("/", h.UpdatePeriod)
			r.Post("/rollover", h.Rollover)
			r.Post("/undo", h.Undo)
			r.Post("/unlock", h.Unlock)
		})
		r.Get("/history", h.GetHistory)

		// Projections
		r.Get("/report", h.GetReport)
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Get("/{unitId}", h.GetInvoice)
		})

		// Sync and preferences
		r.Get("/sync/status", h.SyncStatus)
		r.Put("/sync/config", h.UpdateSyncConfig)
		r.Put("/preferences", h.UpdatePreferences)
	})

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
