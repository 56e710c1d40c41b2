/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the remittance engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (config file, .env, REMIT_* env, flags)
  2. Build the zap logger
  3. Load the reference directory (embedded or -directory file)
  4. Open the configured store (sqlite | jsonfile | memory)
  5. Bootstrap the default administrator on an empty user store
  6. Create API handler and router, optionally start the reminder scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Config file path (optional)
  -port    HTTP server port (overrides server.port)
  -db      Storage path (overrides storage.path)
           Use ":memory:" with the sqlite driver for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the reminder scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the store

EXAMPLES:
  ./server -db="./data/remittance.db"
  REMIT_STORAGE_DRIVER=jsonfile REMIT_STORAGE_PATH=./data ./server
  ./server -config=./remittance.yaml -port=3000

SEE ALSO:
  - config/config.go: configuration keys
  - api/server.go: Router configuration
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

	"github.com/warp/remittance-engine/api"
	"github.com/warp/remittance-engine/config"
	"github.com/warp/remittance-engine/factory"
	"github.com/warp/remittance-engine/generic"
	"github.com/warp/remittance-engine/logger"
	"github.com/warp/remittance-engine/remittance"
	"github.com/warp/remittance-engine/store/jsonfile"
	"github.com/warp/remittance-engine/store/memory"
	"github.com/warp/remittance-engine/store/sqlite"
	"github.com/warp/remittance-engine/users"
)

func main() {
	// Flags
	configFile := flag.String("config", "", "Config file path")
	port := flag.String("port", "", "HTTP server port")
	dbPath := flag.String("db", "", "Storage path (database file or data directory)")
	directoryPath := flag.String("directory", "", "Directory YAML file (default: embedded)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *directoryPath != "" {
		cfg.Directory.Path = *directoryPath
	}

	log := logger.Must(cfg.Log.Level, cfg.Log.Development)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	ref, err := factory.LoadFile(cfg.Directory.Path)
	if err != nil {
		return fmt.Errorf("load directory: %w", err)
	}
	for _, w := range ref.Warnings {
		log.Warn("directory", zap.String("warning", w))
	}
	log.Info("directory loaded",
		zap.Int("ministries", len(ref.Directory.Ministries())),
		zap.Int("departments", ref.Directory.Len()),
	)

	stores, err := openStores(cfg.Storage, log)
	if err != nil {
		return err
	}
	defer stores.close()

	clock := generic.SystemClock{}
	userService := users.NewService(stores.users)
	created, err := userService.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap users: %w", err)
	}
	if created {
		log.Warn("created default administrator; change its password",
			zap.String("username", users.DefaultAdminUsername))
	}
	if cfg.Auth.Secret == config.DefaultSecret {
		log.Warn("auth.secret is the default value; set REMIT_AUTH_SECRET")
	}

	engine := remittance.NewEngine(ref.Directory, ref.Classifier, cfg.Reports.Baseline)
	handler := api.NewHandler(api.Deps{
		Repo:              remittance.NewRepository(stores.records, ref.Directory, ref.Classifier, clock),
		Engine:            engine,
		Monitor:           remittance.NewMonitor(ref.Directory, clock, cfg.Reports.GraceDay),
		Users:             userService,
		Tokens:            users.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTL, clock),
		Log:               log,
		Resetter:          stores.resetter,
		DirectoryWarnings: ref.Warnings,
	})

	scheduler := api.NewReminderScheduler(handler, api.LogNotifier{Log: log})
	scheduler.Enabled = cfg.Reminders.Enabled
	scheduler.CheckInterval = cfg.Reminders.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(handler, api.RouterOptions{CORSOrigins: cfg.Server.CORSOrigins}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage.Driver),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

type storeSet struct {
	records  remittance.Store
	users    users.Store
	resetter api.RecordResetter
	close    func() error
}

func openStores(cfg config.StorageConfig, log *zap.Logger) (*storeSet, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		return &storeSet{records: s, users: s, resetter: s, close: s.Close}, nil
	case config.DriverJSONFile:
		kv, err := jsonfile.NewKV(cfg.Path)
		if err != nil {
			return nil, err
		}
		records := jsonfile.NewRecords(kv, log)
		return &storeSet{
			records:  records,
			users:    jsonfile.NewUsers(kv, log),
			resetter: records,
			close:    func() error { return nil },
		}, nil
	case config.DriverMemory:
		m := memory.NewMemory()
		return &storeSet{records: m, users: m, resetter: m, close: func() error { return nil }}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
