/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the day-roster scheduling server.
  Handles configuration, dependency wiring, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the SQLite key-value backend and run the legacy-key migration
  3. Load master data and the three activity stores
  4. Configure the HTTP router
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: roster.db)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the database
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - storage/sqlitekv/sqlitekv.go: Database backend
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

	"github.com/careops/roster-engine/api"
	"github.com/careops/roster-engine/attendance"
	"github.com/careops/roster-engine/overnight"
	"github.com/careops/roster-engine/roster"
	"github.com/careops/roster-engine/storage"
	"github.com/careops/roster-engine/storage/sqlitekv"
	"github.com/careops/roster-engine/visit"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "roster.db", "SQLite database path")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	kv, err := sqlitekv.Open(*dbPath)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer kv.Close()

	store := storage.New(kv, log)
	if migrated, err := store.MigrateLegacy(); err != nil {
		log.Warn("legacy migration incomplete", zap.Int("migrated", migrated), zap.Error(err))
	}

	registry := roster.NewRegistry(store)
	attendanceStore := attendance.NewStore(store, registry)
	overnightStore := overnight.NewStore(store)
	visitStore := visit.NewStore(store)

	handler := api.NewHandler(registry, attendanceStore, overnightStore, visitStore, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath),
			zap.Int("users", len(registry.Users())),
			zap.Int("rooms", len(registry.Rooms())))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
