/*
main.go - Application entry point

PURPOSE:
  Starts the rental billing service: local snapshot store, period ledger,
  sync reconciler and HTTP API.

STARTUP SEQUENCE:
  1. Parse flags, load configuration (file + environment)
  2. Open the SQLite snapshot store
  3. Load the persisted AppState, or seed first-run defaults
  4. Wire ledger store -> reconciler -> HTTP handlers
  5. Configure the remote document when cloud credentials are present
  6. Serve with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Optional YAML config path (environment overrides always apply)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait up to 30s for active
  requests, tear down the remote subscription, close the database.

SEE ALSO:
  - config/config.go: Configuration shape
  - api/server.go:    Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thaithanh/rentledger/api"
	"github.com/thaithanh/rentledger/billing"
	"github.com/thaithanh/rentledger/cloudsync"
	"github.com/thaithanh/rentledger/config"
	"github.com/thaithanh/rentledger/ledger"
	"github.com/thaithanh/rentledger/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config path")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	local, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Error("failed to open snapshot store", "err", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer local.Close()

	// Load the persisted document, or seed first-run defaults.
	initial, err := local.Load(context.Background())
	if err != nil {
		log.Error("failed to load persisted state", "err", err)
		os.Exit(1)
	}
	if initial == nil {
		seeded := billing.SeedState()
		initial = &seeded
		log.Info("no persisted state found, seeding defaults",
			"units", len(seeded.Units), "period", seeded.Period.String())
	}

	store := ledger.New(*initial)
	reconciler := cloudsync.New(store, local, log)
	reconciler.Start()

	if cfg.Cloud.Configured() {
		remote := cloudsync.NewHTTPDocument(
			cfg.Cloud.BaseURL, cfg.Cloud.Collection, cfg.Cloud.DocKey,
			cfg.Cloud.APIKey, cfg.Cloud.ProjectID, nil)
		if err := reconciler.Configure(context.Background(), remote); err != nil {
			// Degraded mode: local edits keep working, sync shows ERROR.
			log.Error("remote configuration failed", "err", err)
		} else {
			log.Info("remote sync configured", "collection", cfg.Cloud.Collection, "doc", cfg.Cloud.DocKey)
		}
	} else {
		log.Info("remote sync unconfigured, running local-only")
	}
	defer reconciler.Clear()

	handler := api.NewHandler(store, reconciler)
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	done := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown error", "err", err)
		}
		close(done)
	}()

	log.Info("listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "err", err)
		os.Exit(1)
	}
	<-done
}
