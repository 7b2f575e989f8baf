package main

import (
	"context"
	"errors"
	"fmt"
	"manifest-service/internal/adapters/lock"
	"manifest-service/internal/adapters/pod"
	"manifest-service/internal/adapters/repositories"
	"manifest-service/internal/api"
	"manifest-service/internal/config"
	"manifest-service/internal/platform/clock"
	"manifest-service/internal/platform/db"
	"manifest-service/internal/platform/logger"
	"manifest-service/internal/platform/metrics"
	"manifest-service/internal/ports"
	"manifest-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// main loads configuration, picks the store and locker implementations and
// serves the manifest API until SIGINT or SIGTERM.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config) error {
	l := logger.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tariff, err := config.LoadTariff(cfg.TariffPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clk := clock.Real()
	podStore := pod.NewFSStorage(cfg.PODDir, cfg.PODBaseURL)
	trips := services.NewTripService(store, locker, clk, podStore, m)
	invoices := services.NewInvoiceService(store, locker, clk, tariff, m)

	router := api.NewRouter(trips, invoices, api.Options{
		RateLimitRPS: cfg.RateLimitRPS,
		CORSOrigins:  cfg.CORSOrigins,
		Gatherer:     reg,
		PODDir:       cfg.PODDir,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	l.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore returns the in-memory store for DATABASE_URL=memory, else a SQL
// store with the schema applied and the job seed loaded.
func openStore(cfg *config.Config) (ports.Store, func(), error) {
	l := logger.WithComponent("store")

	if cfg.DatabaseURL == "memory" {
		store := repositories.NewMemoryStore()
		if jobs, err := repositories.LoadJobSeeds(cfg.SeedPath); err == nil {
			store.Seed(jobs...)
			l.Info().Int("jobs", len(jobs)).Msg("seeded in-memory store")
		} else {
			l.Warn().Err(err).Msg("no job seed loaded")
		}
		return store, func() {}, nil
	}

	conn, dialect, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.InitSchema(conn, dialect); err != nil {
		conn.Close()
		return nil, nil, err
	}
	if _, err := os.Stat(cfg.SeedPath); err == nil {
		n, err := repositories.SeedFromJSON(conn, dialect, cfg.SeedPath)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		l.Info().Int("jobs", n).Str("dialect", string(dialect)).Msg("seeded database")
	}
	return repositories.NewSQLStore(conn, dialect), func() { conn.Close() }, nil
}

func newLocker(ctx context.Context, cfg *config.Config) (ports.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return lock.NewMemoryLocker(cfg.LockWait), func() {}, nil
	}
	rdb, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return lock.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait), func() { rdb.Close() }, nil
}
