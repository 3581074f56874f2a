/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the CRM engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (and the optional YAML config file)
  2. Set up the global zap logger
  3. Load the embedded seed dataset
  4. Build the stores (in-memory, or SQLite with -store=sqlite)
  5. Configure the router and start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -config   optional YAML config file
  -store    store backend: memory | sqlite (default: memory)
  -db       SQLite DSN when -store=sqlite (default: ":memory:")
  -fast     disable the simulated store latency

EXAMPLES:
  # In-memory stores with realistic latency
  ./server

  # SQLite backend, still in process memory
  ./server -store=sqlite -db=":memory:"

  # Instant stores for local frontend work
  ./server -fast

SEE ALSO:
  - api/server.go: router configuration
  - config/config.go: YAML file format
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pulse/crm-engine/api"
	"github.com/pulse/crm-engine/config"
	"github.com/pulse/crm-engine/crm"
	"github.com/pulse/crm-engine/crm/store"
	"github.com/pulse/crm-engine/seed"
	"github.com/pulse/crm-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	configPath := flag.String("config", "", "optional YAML config file")
	backend := flag.String("store", "", "store backend: memory | sqlite (overrides config)")
	dsn := flag.String("db", "", "SQLite DSN when the sqlite backend is selected")
	fast := flag.Bool("fast", false, "disable the simulated store latency")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *backend != "" {
		cfg.Store = *backend
	}
	if *dsn != "" {
		cfg.SQLiteDSN = *dsn
	}
	if *fast {
		cfg.Latency = "none"
	}

	// Logger
	var logger *zap.Logger
	if cfg.LogLevel == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Seed data
	stages := crm.DefaultStages()
	dataset, err := seed.Load(stages)
	if err != nil {
		zap.S().Fatalf("Failed to load seed data: %v", err)
	}

	// Stores
	latency := cfg.LatencyProfile()
	var stores crm.Stores
	switch cfg.Store {
	case "sqlite":
		st, err := sqlite.New(cfg.SQLiteDSN, latency)
		if err != nil {
			zap.S().Fatalf("Failed to open SQLite store: %v", err)
		}
		defer st.Close()
		stores = st.Stores()
		if err := dataset.Apply(context.Background(), stores); err != nil {
			zap.S().Fatalf("Failed to seed SQLite store: %v", err)
		}
	default:
		stores = store.NewStores(latency, dataset.Contacts, dataset.Deals, dataset.Messages, dataset.Activities)
	}

	// Router
	handler := api.NewHandler(stores, stages, dataset)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zap.S().Infof("Server starting on http://localhost:%d (store=%s latency=%s)", cfg.Port, cfg.Store, cfg.Latency)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.S().Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.S().Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zap.S().Fatalf("Server forced to shutdown: %v", err)
	}

	zap.S().Info("Server stopped")
}
