package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gallery/internal/cache"
	"gallery/internal/config"
	"gallery/internal/database"
	"gallery/internal/handlers"
	"gallery/internal/jobs"
	"gallery/internal/log"
	"gallery/internal/repository"
	"gallery/internal/server"
	"gallery/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.LogLevel)

	ctx := context.Background()

	var (
		dbPool   *pgxpool.Pool
		accounts repository.AccountRepository
		pinger   handlers.Pinger
	)
	switch cfg.Repository.Driver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory account repository, data is lost on restart")
		accounts = repository.NewMemoryAccountRepository()
	default:
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		if cfg.Postgres.Migrate {
			if err := database.Migrate(ctx, dbPool); err != nil {
				logger.Fatal().Err(err).Msg("failed to migrate database")
			}
		}
		accounts = repository.NewPostgresAccountRepository(dbPool)
		pinger = dbPool
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, sign-in throttling and sweep locking disabled")
	}

	var objectStore *storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		objectStore, err = storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBuckets(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure buckets failed")
		}
	} else {
		logger.Warn().Msg("object storage not configured, upload urls disabled")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, accounts, pinger, redisClient, objectStore)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var locker *cache.Locker
	if redisClient != nil {
		locker = cache.NewLocker(redisClient)
	}
	scheduler := jobs.NewScheduler(repository.NewSessionStore(accounts), locker, cfg.Jobs.SweepSchedule, cfg.Jobs.LockTTL, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("scheduler jobs still running at shutdown")
	}

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
