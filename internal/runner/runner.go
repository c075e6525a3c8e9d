// Package runner executes a single audit for one config against a shared
// browser session.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
	"github.com/Ygohel18/lighthouse-test/internal/metrics"
	"github.com/Ygohel18/lighthouse-test/internal/report"
)

// Options tunes every audit invocation.
type Options struct {
	NavigationTimeout time.Duration
	ThrottlingMethod  string
}

// Runner implements audit.Runner. Audit-level failures are returned as
// ResultData with ErrorMessage set so one config cannot sink the others.
type Runner struct {
	engine    audit.Engine
	processor *report.Processor
	opts      Options
	logger    *zap.Logger
}

// New constructs a Runner.
func New(engine audit.Engine, processor *report.Processor, opts Options, logger *zap.Logger) *Runner {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 60 * time.Second
	}
	if opts.ThrottlingMethod == "" {
		opts.ThrottlingMethod = "simulate"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{engine: engine, processor: processor, opts: opts, logger: logger}
}

// RunAudit opens a page with the config's emulation, drives the engine
// through the session endpoint and sanitizes the resulting report.
func (r *Runner) RunAudit(ctx context.Context, sess audit.Session, taskID, url string, cfg audit.Config) audit.ResultData {
	start := time.Now()

	page, err := sess.NewPage(ctx, cfg)
	if err != nil {
		return r.failed(taskID, cfg, start, fmt.Errorf("open page: %w", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			r.logger.Warn("close page failed", zap.String("task_id", taskID), zap.Error(err))
		}
	}()

	raw, err := r.engine.Audit(ctx, url, audit.EngineOptions{
		Endpoint:          sess.Endpoint(),
		NavigationTimeout: r.opts.NavigationTimeout,
		ThrottlingMethod:  r.opts.ThrottlingMethod,
	})
	if err != nil {
		return r.failed(taskID, cfg, start, fmt.Errorf("run audit: %w", err))
	}

	processed, err := r.processor.Process(ctx, raw, taskID, string(cfg.Device), cfg.Location)
	if err != nil {
		return r.failed(taskID, cfg, start, fmt.Errorf("process report: %w", err))
	}

	metrics.IncAudit("ok")
	metrics.ObserveAuditDuration(string(cfg.Device), time.Since(start))
	r.logger.Info("audit completed",
		zap.String("task_id", taskID),
		zap.String("config", cfg.String()),
		zap.Duration("took", time.Since(start)),
	)
	return audit.ResultData{
		Score:   processed.Score,
		Metrics: processed.Metrics,
		Report:  processed.Report,
	}
}

func (r *Runner) failed(taskID string, cfg audit.Config, start time.Time, err error) audit.ResultData {
	metrics.IncAudit("error")
	metrics.ObserveAuditDuration(string(cfg.Device), time.Since(start))
	r.logger.Error("audit failed",
		zap.String("task_id", taskID),
		zap.String("config", cfg.String()),
		zap.Error(err),
	)
	return audit.ResultData{ErrorMessage: err.Error()}
}
