// Package main runs the background team formation worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/internhub/backend/config"
	"github.com/internhub/backend/internal/completion"
	"github.com/internhub/backend/internal/formation"
	"github.com/internhub/backend/internal/store"
	"github.com/internhub/backend/internal/worker"
	"github.com/internhub/backend/pkg/database"
	"github.com/internhub/backend/pkg/queue"
	"github.com/internhub/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if !cfg.Redis.Enabled {
		logger.Fatal("worker requires REDIS_ENABLED=true")
	}

	ctx := context.Background()
	var backend store.Backend
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		backend = store.NewPostgresBackend(pool, logger)
	default:
		// Only safe when the worker shares the server's data directory on one host.
		fb, err := store.NewFileBackend(cfg.Store.DataDir, logger)
		if err != nil {
			logger.Fatal("file store", zap.Error(err))
		}
		backend = fb
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	completer := completion.NewClient(completion.Options{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		JSONMode:    cfg.Completion.JSONMode,
		Timeout:     cfg.Completion.Timeout(),
	}, nil, logger)
	svc := formation.NewService(
		backend,
		formation.NewLLMOracle(completer, cfg.Formation.TeamSize),
		formation.NewRedisLocker(rdb.Client, cfg.Formation.LockTTL()),
		logger,
	)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewFormationProcessor(svc, jobQueue, cfg.Formation.RunTimeout(), logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	logger.Info("worker started", zap.String("queue", queue.QueueFormation), zap.String("store", cfg.Store.Backend))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
