// Package service implements the task lifecycle operations exposed by the
// HTTP API: create, read, list and delete with artifact bookkeeping.
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
	"github.com/Ygohel18/lighthouse-test/internal/metrics"
	"github.com/Ygohel18/lighthouse-test/internal/report"
)

// maxDeleteBatch is the artifact store's objects-per-call ceiling.
const maxDeleteBatch = 1000

// Options configures a Service.
type Options struct {
	// DefaultConfigs is used when a create request carries no configs.
	DefaultConfigs []audit.Config
	// ListLimit caps list responses when the caller does not pass a limit.
	ListLimit int
}

// Service owns the task lifecycle outside of audit runs.
type Service struct {
	store     audit.TaskStore
	artifacts audit.ArtifactStore
	queue     audit.Queue
	ids       audit.IDGenerator
	clock     audit.Clock
	opts      Options
	logger    *zap.Logger
}

// New constructs a Service.
func New(
	store audit.TaskStore,
	artifacts audit.ArtifactStore,
	queue audit.Queue,
	ids audit.IDGenerator,
	clock audit.Clock,
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.ListLimit <= 0 {
		opts.ListLimit = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		artifacts: artifacts,
		queue:     queue,
		ids:       ids,
		clock:     clock,
		opts:      opts,
		logger:    logger,
	}
}

// CreateTask validates the request, persists a queued task and enqueues its
// audit job. Empty configs fall back to the default set.
func (s *Service) CreateTask(ctx context.Context, url string, configs []audit.Config) (audit.Task, error) {
	if err := validateURL(url); err != nil {
		return audit.Task{}, err
	}
	if len(configs) == 0 {
		configs = append([]audit.Config(nil), s.opts.DefaultConfigs...)
	}
	if len(configs) == 0 {
		return audit.Task{}, validationErrorf("no configs given and no defaults configured")
	}
	if err := validateConfigs(configs); err != nil {
		return audit.Task{}, err
	}

	taskID, err := s.ids.NewID()
	if err != nil {
		return audit.Task{}, fmt.Errorf("generate task id: %w", err)
	}
	task := audit.Task{
		TaskID:         taskID,
		URL:            url,
		CreatedAt:      s.clock.Now(),
		Status:         audit.TaskStatusQueued,
		PlannedConfigs: configs,
		Results:        []audit.PartialResult{},
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return audit.Task{}, fmt.Errorf("persist task: %w", err)
	}
	if err := s.queue.Enqueue(ctx, taskID); err != nil {
		return audit.Task{}, fmt.Errorf("enqueue task %s: %w", taskID, err)
	}

	metrics.IncTaskCreated()
	s.logger.Info("task created",
		zap.String("task_id", taskID),
		zap.String("url", url),
		zap.Int("configs", len(configs)),
	)
	return task, nil
}

// GetTask returns the task with every stored artifact reference replaced by
// a fresh signed URL. The stored document is never mutated; only the returned
// copy carries URLs.
func (s *Service) GetTask(ctx context.Context, taskID string) (audit.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return audit.Task{}, err
	}
	hydrated := task.Clone()
	for i := range hydrated.Results {
		report.Rehydrate(ctx, hydrated.Results[i].Report, s.artifacts, s.logger)
	}
	return hydrated, nil
}

// ListRecentTasks returns up to limit tasks, newest first. Listings skip
// signed-URL generation; callers follow up with GetTask for artifacts.
func (s *Service) ListRecentTasks(ctx context.Context, limit int) ([]audit.Task, error) {
	if limit <= 0 || limit > s.opts.ListLimit {
		limit = s.opts.ListLimit
	}
	return s.store.ListRecentTasks(ctx, limit)
}

// DeleteTask removes the task's artifacts in batches, then the document. A
// failed batch is logged and skipped so one bad chunk cannot strand the
// document behind it.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	var keys []string
	for _, result := range task.Results {
		keys = append(keys, report.CollectKeys(result.Report)...)
	}
	for _, batch := range chunkKeys(keys, maxDeleteBatch) {
		if err := s.artifacts.Delete(ctx, batch); err != nil {
			s.logger.Error("delete artifact batch failed",
				zap.String("task_id", taskID),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}
		metrics.AddArtifactDeletes(len(batch))
	}

	existed, err := s.store.DeleteTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("delete task document: %w", err)
	}
	if !existed {
		return audit.ErrTaskNotFound
	}
	s.logger.Info("task deleted", zap.String("task_id", taskID), zap.Int("artifacts", len(keys)))
	return nil
}

func chunkKeys(keys []string, size int) [][]string {
	if len(keys) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}
