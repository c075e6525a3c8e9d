// Package main runs the task API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hibiken "github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/api"
	"github.com/Ygohel18/lighthouse-test/internal/clock/system"
	"github.com/Ygohel18/lighthouse-test/internal/config"
	"github.com/Ygohel18/lighthouse-test/internal/id/uuid"
	"github.com/Ygohel18/lighthouse-test/internal/logging"
	"github.com/Ygohel18/lighthouse-test/internal/metrics"
	asynqQueue "github.com/Ygohel18/lighthouse-test/internal/queue/asynq"
	"github.com/Ygohel18/lighthouse-test/internal/service"
	"github.com/Ygohel18/lighthouse-test/internal/storage/gcs"
	storePostgres "github.com/Ygohel18/lighthouse-test/internal/store/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()

	pool, err := pgxpool.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("connect postgres failed", zap.Error(err))
	}
	defer pool.Close()
	taskStore := storePostgres.NewTaskStore(pool, clock)

	artifacts, err := gcs.NewArtifactStore(ctx, cfg.Storage.Bucket, cfg.SignedURLExpiry(), logger.Named("gcs"))
	if err != nil {
		logger.Fatal("connect gcs failed", zap.Error(err))
	}
	defer func() {
		if err := artifacts.Close(); err != nil {
			logger.Warn("close gcs client failed", zap.Error(err))
		}
	}()

	queue := asynqQueue.NewQueue(hibiken.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynqQueue.Options{
		Queue:       cfg.Queue.Name,
		MaxAttempts: cfg.Queue.MaxAttempts,
	})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("close queue client failed", zap.Error(err))
		}
	}()

	defaults := cfg.Audit.DefaultConfigs
	if len(defaults) == 0 {
		defaults = config.DefaultTestConfigs()
	}
	tasks := service.New(taskStore, artifacts, queue, uuid.NewGenerator(), clock, service.Options{
		DefaultConfigs: defaults,
		ListLimit:      cfg.Audit.ListLimit,
	}, logger.Named("service"))

	apiServer := api.NewServer(tasks, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
