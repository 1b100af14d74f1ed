package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/math-quiz/internal/catalog"
	"github.com/math-quiz/internal/config"
	"github.com/math-quiz/internal/handler"
	"github.com/math-quiz/internal/kv"
	"github.com/math-quiz/internal/metrics"
	"github.com/math-quiz/internal/postgres"
	"github.com/math-quiz/internal/progress"
	"github.com/math-quiz/internal/redis"
	"github.com/math-quiz/internal/rewards"
	"github.com/math-quiz/internal/service"
	"github.com/math-quiz/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	// Load configuration
	cfg, cfgErr := config.Load(*configPath)
	if cfgErr != nil {
		var err error
		cfg, err = config.DefaultConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid environment: %v\n", err)
			os.Exit(1)
		}
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfgErr != nil {
		logger.Warn("failed to load config file, using defaults", "path", *configPath, "error", cfgErr)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	cat := catalog.Default()
	if cfg.Game.CatalogSize != cat.Size() {
		logger.Warn("configured catalog size differs from the embedded catalog",
			"configured", cfg.Game.CatalogSize,
			"catalog", cat.Size(),
		)
	}

	// Primary storage
	primary, err := openPrimary(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer primary.Close()

	store := progress.New(primary, cat, m, logger)

	// Backup storage
	var backupWorker *worker.BackupWorker
	if cfg.Backup.Enabled {
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		pg, err := postgres.NewStore(ctx, &cfg.Postgres, logger)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pg.Close()

		if err := pg.RunMigrations(ctx); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		if last, err := pg.LastBackup(ctx); err == nil && !last.IsZero() {
			logger.Info("found existing backup", "updated_at", last)
		}

		backupWorker = worker.NewBackupWorker(store, pg, &cfg.Backup, m, logger)
		if cfg.Backup.RestoreOnStart {
			if _, err := backupWorker.RestoreIfEmpty(ctx); err != nil {
				logger.Warn("failed to restore from backup on startup", "error", err)
			}
		}
	}

	seed := uint64(time.Now().UnixNano())
	gameService := service.NewGameService(
		store,
		rewards.NewEngine(rand.New(rand.NewPCG(seed, seed>>1)), cfg.Game.BonusChance),
		cat,
		rand.New(rand.NewPCG(seed^0x9e3779b97f4a7c15, seed)),
		&cfg.Game,
		m,
		logger,
	)

	limiter := handler.NewRateLimiter(&cfg.RateLimit)
	httpHandler := handler.NewHandler(gameService, primary, m, registry, limiter, &cfg.Server, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return limiter.CleanupVisitors(gctx, 3*time.Minute)
	})

	if backupWorker != nil {
		if err := backupWorker.Start(context.WithoutCancel(gctx)); err != nil {
			return fmt.Errorf("starting backup worker: %w", err)
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server", "error", err)
		}
		if backupWorker != nil {
			if err := backupWorker.Stop(); err != nil {
				logger.Error("failed to stop backup worker", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// openPrimary connects the key-value store the progress collections live in.
// An unreachable Redis is not fatal: the game keeps running and reads
// degrade to empty until it comes back.
func openPrimary(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kv.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, progress is lost on restart")
		return kv.NewMemoryStore(), nil
	case config.StorageRedis:
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		store := redis.NewStore(&cfg.Redis, cfg.Storage.KeyPrefix, logger)

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable, progress will not be retained until it recovers", "error", err)
		} else if keys, err := store.Keys(pingCtx); err == nil {
			logger.Info("connected to Redis", "collections", keys)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
