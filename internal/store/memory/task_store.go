// Package memory provides an in-memory task store for development/testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
)

// TaskStore implements audit.TaskStore with a mutex-guarded map.
type TaskStore struct {
	mu    sync.RWMutex
	clock audit.Clock
	tasks map[string]audit.Task
}

// NewTaskStore constructs a TaskStore.
func NewTaskStore(clock audit.Clock) *TaskStore {
	return &TaskStore{
		clock: clock,
		tasks: make(map[string]audit.Task),
	}
}

// CreateTask stores a new task document.
func (s *TaskStore) CreateTask(_ context.Context, task audit.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.TaskID] = task.Clone()
	return nil
}

// GetTask fetches a task by id.
func (s *TaskStore) GetTask(_ context.Context, taskID string) (audit.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return audit.Task{}, audit.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// ListRecentTasks returns up to limit tasks, newest createdAt first.
func (s *TaskStore) ListRecentTasks(_ context.Context, limit int) ([]audit.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InitializePartialResults overwrites results with one pending entry per
// config and sets plannedConfigs to the same list.
func (s *TaskStore) InitializePartialResults(_ context.Context, taskID string, configs []audit.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return audit.ErrTaskNotFound
	}
	now := s.clock.Now()
	results := make([]audit.PartialResult, len(configs))
	for i, cfg := range configs {
		results[i] = audit.PartialResult{
			Config:    cfg,
			Status:    audit.ResultStatusPending,
			Timestamp: now,
		}
	}
	task.Results = results
	task.PlannedConfigs = append([]audit.Config(nil), configs...)
	s.tasks[taskID] = task
	return nil
}

// UpdateTaskStatus overwrites the task status.
func (s *TaskStore) UpdateTaskStatus(_ context.Context, taskID string, status audit.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return audit.ErrTaskNotFound
	}
	task.Status = status
	s.tasks[taskID] = task
	return nil
}

// UpdatePartialResult updates the result matching the config tuple. A
// missing match is a silent no-op.
func (s *TaskStore) UpdatePartialResult(_ context.Context, taskID string, cfg audit.Config, status audit.ResultStatus, data *audit.ResultData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return audit.ErrTaskNotFound
	}
	for i := range task.Results {
		if !task.Results[i].Config.Equal(cfg) {
			continue
		}
		task.Results[i].Status = status
		task.Results[i].Timestamp = s.clock.Now()
		if data != nil {
			if data.Score != nil {
				task.Results[i].Score = data.Score
			}
			if data.Metrics != nil {
				task.Results[i].Metrics = data.Metrics
			}
			if data.Report != nil {
				task.Results[i].Report = data.Report
			}
			if data.ErrorMessage != "" {
				task.Results[i].ErrorMessage = data.ErrorMessage
			}
		}
		break
	}
	s.tasks[taskID] = task
	return nil
}

// DeleteTask removes a task and reports whether one existed.
func (s *TaskStore) DeleteTask(_ context.Context, taskID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[taskID]; !ok {
		return false, nil
	}
	delete(s.tasks, taskID)
	return true, nil
}
