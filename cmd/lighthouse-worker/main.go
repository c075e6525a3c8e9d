// Package main runs the audit worker.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
	"github.com/Ygohel18/lighthouse-test/internal/browser/chromedp"
	"github.com/Ygohel18/lighthouse-test/internal/clock/system"
	"github.com/Ygohel18/lighthouse-test/internal/config"
	"github.com/Ygohel18/lighthouse-test/internal/engine/httpengine"
	"github.com/Ygohel18/lighthouse-test/internal/logging"
	"github.com/Ygohel18/lighthouse-test/internal/metrics"
	"github.com/Ygohel18/lighthouse-test/internal/publisher/pubsub"
	asynqQueue "github.com/Ygohel18/lighthouse-test/internal/queue/asynq"
	"github.com/Ygohel18/lighthouse-test/internal/report"
	"github.com/Ygohel18/lighthouse-test/internal/runner"
	"github.com/Ygohel18/lighthouse-test/internal/storage/gcs"
	storePostgres "github.com/Ygohel18/lighthouse-test/internal/store/postgres"
	"github.com/Ygohel18/lighthouse-test/internal/worker"
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

	var publisher audit.Publisher
	if cfg.PubSub.Enabled {
		pub, err := pubsub.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("connect pubsub failed", zap.Error(err))
		}
		defer func() {
			if err := pub.Close(); err != nil {
				logger.Warn("close pubsub client failed", zap.Error(err))
			}
		}()
		publisher = pub
	}

	chrome, err := chromedp.New(chromedp.Config{
		DebugPort: cfg.Browser.DebugPort,
		UserAgent: cfg.Browser.UserAgent,
	})
	if err != nil {
		logger.Fatal("browser init failed", zap.Error(err))
	}

	engine := httpengine.New(cfg.Engine.URL, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second)
	processor := report.NewProcessor(artifacts, clock, logger.Named("processor"))
	auditRunner := runner.New(engine, processor, runner.Options{
		NavigationTimeout: cfg.NavigationTimeout(),
		ThrottlingMethod:  cfg.Audit.ThrottlingMethod,
	}, logger.Named("runner"))

	orchestrator := worker.NewOrchestrator(
		taskStore,
		chrome,
		auditRunner,
		publisher,
		clock,
		cfg.PubSub.TopicName,
		logger.Named("worker"),
	)

	server := asynqQueue.NewServer(hibiken.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, orchestrator, asynqQueue.ServerOptions{
		Queue:       cfg.Queue.Name,
		Concurrency: cfg.Queue.Concurrency,
		BaseDelay:   cfg.QueueBaseDelay(),
	}, logger.Named("queue"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	if err := server.Start(); err != nil {
		logger.Fatal("queue server start failed", zap.Error(err))
	}
	logger.Info("worker started", zap.String("queue", cfg.Queue.Name))

	<-ctx.Done()
	logger.Info("shutdown initiated")
	server.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
