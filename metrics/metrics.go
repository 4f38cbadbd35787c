/*
Package metrics exposes Prometheus instrumentation for the billing service.

PURPOSE:
  Counters for the period lifecycle and the sync path, plus a gauge for the
  reconciler's connectivity state. Collectors are registered at package init
  via promauto and scraped from /metrics.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Rollovers counts closed billing periods.
	Rollovers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentledger_rollovers_total",
		Help: "Number of billing-period rollovers.",
	})

	// Undos counts restored periods.
	Undos = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentledger_undos_total",
		Help: "Number of period rollover undos.",
	})

	// RemotePushes counts full-document pushes to the remote store.
	RemotePushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentledger_remote_pushes_total",
		Help: "Number of state documents pushed to the remote store.",
	})

	// RemotePushErrors counts failed pushes.
	RemotePushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentledger_remote_push_errors_total",
		Help: "Number of failed remote pushes.",
	})

	// RemoteApplies counts remote documents applied to local state.
	RemoteApplies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentledger_remote_applies_total",
		Help: "Number of remote documents applied locally.",
	})

	// SyncStatus reports the reconciler state: 0 unconfigured, 1 syncing,
	// 2 online, 3 error.
	SyncStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentledger_sync_status",
		Help: "Reconciler connectivity state (0=unconfigured, 1=syncing, 2=online, 3=error).",
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
