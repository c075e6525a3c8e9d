// Package worker orchestrates a full audit run for one queued task.
package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
	"github.com/Ygohel18/lighthouse-test/internal/metrics"
)

// Orchestrator consumes audit jobs, drives each planned config sequentially
// through a shared browser session and persists results as it goes.
//
// Handlers tolerate duplicate delivery: a task already in a terminal state is
// acknowledged without any writes.
type Orchestrator struct {
	store     audit.TaskStore
	browser   audit.BrowserLauncher
	runner    audit.Runner
	publisher audit.Publisher
	clock     audit.Clock
	topic     string
	logger    *zap.Logger
}

// NewOrchestrator constructs an Orchestrator. publisher may be nil, in which
// case completion events are skipped.
func NewOrchestrator(
	store audit.TaskStore,
	browser audit.BrowserLauncher,
	runner audit.Runner,
	publisher audit.Publisher,
	clock audit.Clock,
	topic string,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		store:     store,
		browser:   browser,
		runner:    runner,
		publisher: publisher,
		clock:     clock,
		topic:     topic,
		logger:    logger,
	}
}

// HandleTask runs the audits for one queued task. A returned error signals
// the queue to retry; before returning one, every non-terminal result and
// the task itself are marked error so readers never see a run stuck in
// running after the retry budget is spent.
func (o *Orchestrator) HandleTask(ctx context.Context, taskID string) error {
	logger := o.logger.With(zap.String("task_id", taskID))

	task, err := o.store.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}

	if task.Status.Terminal() {
		logger.Info("task already finished, dropping duplicate delivery",
			zap.String("status", string(task.Status)))
		return nil
	}

	// A retried job passes through here again and starts the whole config
	// list over from pending.
	if err := o.store.InitializePartialResults(ctx, taskID, task.PlannedConfigs); err != nil {
		return o.failRun(ctx, taskID, logger, fmt.Errorf("initialize results: %w", err))
	}
	if err := o.store.UpdateTaskStatus(ctx, taskID, audit.TaskStatusRunning); err != nil {
		return o.failRun(ctx, taskID, logger, fmt.Errorf("mark task running: %w", err))
	}

	sess, err := o.browser.Launch(ctx)
	if err != nil {
		return o.failRun(ctx, taskID, logger, fmt.Errorf("launch browser: %w", err))
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("close browser session failed", zap.Error(err))
		}
	}()

	// Configs run strictly one after another; the session is shared, pages
	// are not.
	for _, cfg := range task.PlannedConfigs {
		if err := o.store.UpdatePartialResult(ctx, taskID, cfg, audit.ResultStatusRunning, nil); err != nil {
			return o.failRun(ctx, taskID, logger, fmt.Errorf("mark result running for %s: %w", cfg, err))
		}

		data := o.runner.RunAudit(ctx, sess, taskID, task.URL, cfg)

		status := audit.ResultStatusCompleted
		if data.ErrorMessage != "" {
			status = audit.ResultStatusError
		}
		if err := o.store.UpdatePartialResult(ctx, taskID, cfg, status, &data); err != nil {
			return o.failRun(ctx, taskID, logger, fmt.Errorf("store result for %s: %w", cfg, err))
		}
	}

	final, err := o.aggregateStatus(ctx, taskID)
	if err != nil {
		return o.failRun(ctx, taskID, logger, fmt.Errorf("read back results: %w", err))
	}
	if err := o.store.UpdateTaskStatus(ctx, taskID, final); err != nil {
		return o.failRun(ctx, taskID, logger, fmt.Errorf("mark task %s: %w", final, err))
	}
	metrics.IncTaskFinished(string(final))
	logger.Info("task finished",
		zap.String("status", string(final)),
		zap.Int("configs", len(task.PlannedConfigs)))

	o.publishEvent(ctx, task, final, logger)
	return nil
}

// aggregateStatus reads the persisted results back and returns completed when
// every one reached a terminal status. A config's individual error does not
// degrade the task; only a stuck non-terminal result does.
func (o *Orchestrator) aggregateStatus(ctx context.Context, taskID string) (audit.TaskStatus, error) {
	task, err := o.store.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	for _, result := range task.Results {
		if !result.Status.Terminal() {
			return audit.TaskStatusError, nil
		}
	}
	return audit.TaskStatusCompleted, nil
}

// failRun marks every non-terminal result and the task as error, then hands
// the original cause back to the queue. Marking is best effort on a context
// detached from the handler's cancellation.
func (o *Orchestrator) failRun(ctx context.Context, taskID string, logger *zap.Logger, cause error) error {
	logger.Error("task run failed", zap.Error(cause))
	markCtx := context.WithoutCancel(ctx)

	task, err := o.store.GetTask(markCtx, taskID)
	if err != nil {
		logger.Error("load task for failure marking failed", zap.Error(err))
		return cause
	}
	for _, result := range task.Results {
		if result.Status.Terminal() {
			continue
		}
		data := &audit.ResultData{ErrorMessage: cause.Error()}
		if err := o.store.UpdatePartialResult(markCtx, taskID, result.Config, audit.ResultStatusError, data); err != nil {
			logger.Error("mark result error failed",
				zap.String("config", result.Config.String()),
				zap.Error(err))
		}
	}
	if err := o.store.UpdateTaskStatus(markCtx, taskID, audit.TaskStatusError); err != nil {
		logger.Error("mark task error failed", zap.Error(err))
	}
	metrics.IncTaskFinished(string(audit.TaskStatusError))
	o.publishEvent(markCtx, task, audit.TaskStatusError, logger)
	return cause
}

func (o *Orchestrator) publishEvent(ctx context.Context, task audit.Task, status audit.TaskStatus, logger *zap.Logger) {
	if o.publisher == nil {
		return
	}
	event := audit.TaskEvent{
		TaskID:     task.TaskID,
		URL:        task.URL,
		Status:     status,
		Configs:    len(task.PlannedConfigs),
		FinishedAt: o.clock.Now(),
	}
	if _, err := o.publisher.Publish(ctx, o.topic, event); err != nil {
		// Events are advisory; a publish failure never fails the run.
		logger.Warn("publish task event failed", zap.Error(err))
	}
}
