// Package postgres persists task documents in PostgreSQL, with the result
// list and planned configs held as JSONB.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TaskStore implements audit.TaskStore on PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE tasks (
//	    task_id         TEXT PRIMARY KEY,
//	    url             TEXT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    status          TEXT NOT NULL,
//	    planned_configs JSONB NOT NULL DEFAULT '[]',
//	    results         JSONB NOT NULL DEFAULT '[]'
//	);
//	CREATE INDEX tasks_created_at_idx ON tasks (created_at DESC);
type TaskStore struct {
	db    DB
	clock audit.Clock
}

// NewTaskStore constructs a TaskStore.
func NewTaskStore(db DB, clock audit.Clock) *TaskStore {
	return &TaskStore{db: db, clock: clock}
}

// CreateTask inserts a new task document.
func (s *TaskStore) CreateTask(ctx context.Context, task audit.Task) error {
	configs, err := json.Marshal(task.PlannedConfigs)
	if err != nil {
		return fmt.Errorf("marshal planned configs: %w", err)
	}
	results, err := json.Marshal(task.Results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	query := `
		INSERT INTO tasks (task_id, url, created_at, status, planned_configs, results)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.Exec(ctx, query, task.TaskID, task.URL, task.CreatedAt, task.Status, configs, results); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// GetTask fetches a task by id.
func (s *TaskStore) GetTask(ctx context.Context, taskID string) (audit.Task, error) {
	query := `
		SELECT task_id, url, created_at, status, planned_configs, results
		FROM tasks
		WHERE task_id = $1
	`
	task, err := scanTask(s.db.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return audit.Task{}, audit.ErrTaskNotFound
		}
		return audit.Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListRecentTasks returns up to limit tasks, newest createdAt first.
func (s *TaskStore) ListRecentTasks(ctx context.Context, limit int) ([]audit.Task, error) {
	query := `
		SELECT task_id, url, created_at, status, planned_configs, results
		FROM tasks
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []audit.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task rows: %w", err)
	}
	return tasks, nil
}

// InitializePartialResults overwrites results with one pending entry per
// config and plannedConfigs with the same list.
func (s *TaskStore) InitializePartialResults(ctx context.Context, taskID string, configs []audit.Config) error {
	now := s.clock.Now()
	results := make([]audit.PartialResult, len(configs))
	for i, cfg := range configs {
		results[i] = audit.PartialResult{
			Config:    cfg,
			Status:    audit.ResultStatusPending,
			Timestamp: now,
		}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	configsJSON, err := json.Marshal(configs)
	if err != nil {
		return fmt.Errorf("marshal planned configs: %w", err)
	}
	query := `UPDATE tasks SET results = $2, planned_configs = $3 WHERE task_id = $1`
	tag, err := s.db.Exec(ctx, query, taskID, resultsJSON, configsJSON)
	if err != nil {
		return fmt.Errorf("initialize partial results: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return audit.ErrTaskNotFound
	}
	return nil
}

// UpdateTaskStatus overwrites the status without transition validation; the
// orchestrator only issues valid transitions.
func (s *TaskStore) UpdateTaskStatus(ctx context.Context, taskID string, status audit.TaskStatus) error {
	tag, err := s.db.Exec(ctx, `UPDATE tasks SET status = $2 WHERE task_id = $1`, taskID, status)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return audit.ErrTaskNotFound
	}
	return nil
}

// UpdatePartialResult rewrites the result element matching the config tuple
// under a row lock. A missing match leaves the row unchanged.
func (s *TaskStore) UpdatePartialResult(ctx context.Context, taskID string, cfg audit.Config, status audit.ResultStatus, data *audit.ResultData) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT results FROM tasks WHERE task_id = $1 FOR UPDATE`, taskID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return audit.ErrTaskNotFound
		}
		return fmt.Errorf("lock task row: %w", err)
	}

	var results []audit.PartialResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return fmt.Errorf("unmarshal results: %w", err)
	}

	matched := false
	for i := range results {
		if !results[i].Config.Equal(cfg) {
			continue
		}
		results[i].Status = status
		results[i].Timestamp = s.clock.Now()
		if data != nil {
			if data.Score != nil {
				results[i].Score = data.Score
			}
			if data.Metrics != nil {
				results[i].Metrics = data.Metrics
			}
			if data.Report != nil {
				results[i].Report = data.Report
			}
			if data.ErrorMessage != "" {
				results[i].ErrorMessage = data.ErrorMessage
			}
		}
		matched = true
		break
	}
	if matched {
		updated, err := json.Marshal(results)
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE tasks SET results = $2 WHERE task_id = $1`, taskID, updated); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// DeleteTask removes the document and reports whether one was removed.
func (s *TaskStore) DeleteTask(ctx context.Context, taskID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE task_id = $1`, taskID)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanTask(row pgx.Row) (audit.Task, error) {
	var (
		task        audit.Task
		configsJSON []byte
		resultsJSON []byte
	)
	if err := row.Scan(&task.TaskID, &task.URL, &task.CreatedAt, &task.Status, &configsJSON, &resultsJSON); err != nil {
		return audit.Task{}, err
	}
	if err := json.Unmarshal(configsJSON, &task.PlannedConfigs); err != nil {
		return audit.Task{}, fmt.Errorf("unmarshal planned configs: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &task.Results); err != nil {
		return audit.Task{}, fmt.Errorf("unmarshal results: %w", err)
	}
	return task, nil
}
