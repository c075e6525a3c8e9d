package audit

import (
	"context"
	"time"

	"github.com/Ygohel18/lighthouse-test/internal/report"
)

// TaskStore persists task documents and their per-config results.
type TaskStore interface {
	CreateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, taskID string) (Task, error)
	ListRecentTasks(ctx context.Context, limit int) ([]Task, error)
	// InitializePartialResults overwrites results with one pending entry per
	// config and sets plannedConfigs to the same list. Called once before the
	// per-config loop begins.
	InitializePartialResults(ctx context.Context, taskID string, configs []Config) error
	UpdateTaskStatus(ctx context.Context, taskID string, status TaskStatus) error
	// UpdatePartialResult matches the unique config tuple, sets the status,
	// merges data fields and refreshes the timestamp. Silent no-op when no
	// element matches.
	UpdatePartialResult(ctx context.Context, taskID string, cfg Config, status ResultStatus, data *ResultData) error
	// DeleteTask removes the document and reports whether one was removed.
	DeleteTask(ctx context.Context, taskID string) (bool, error)
}

// ArtifactStore holds screenshot binaries addressed by object key.
type ArtifactStore interface {
	Upload(ctx context.Context, key string, contentType string, data []byte) error
	// SignedURL returns a time-bounded externally resolvable link for a key.
	SignedURL(ctx context.Context, key string) (string, error)
	// Delete removes the given keys. Callers chunk to the store's
	// objects-per-call maximum; missing objects are not an error.
	Delete(ctx context.Context, keys []string) error
}

// Queue hands `{taskId}` work items to the worker with durable
// at-least-once delivery and bounded retry.
type Queue interface {
	Enqueue(ctx context.Context, taskID string) error
}

// BrowserLauncher launches one browser session per task run.
type BrowserLauncher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a running browser shared across the configs of one task run.
type Session interface {
	// Endpoint returns the browser control endpoint handed to the engine.
	Endpoint() string
	// NewPage opens a fresh page/context, applying device emulation for
	// mobile configs.
	NewPage(ctx context.Context, cfg Config) (Page, error)
	Close() error
}

// Page is a scoped page/context, closed on every exit path.
type Page interface {
	Close() error
}

// EngineOptions is passed through to the audit engine per invocation.
type EngineOptions struct {
	Endpoint          string
	NavigationTimeout time.Duration
	ThrottlingMethod  string
}

// Engine is the external audit engine. It navigates the URL through the
// browser control endpoint and produces a raw performance report.
type Engine interface {
	Audit(ctx context.Context, url string, opts EngineOptions) (*report.Report, error)
}

// Runner executes one audit for one config. Audit-level failures come back
// as a ResultData with ErrorMessage set, never as an error.
type Runner interface {
	RunAudit(ctx context.Context, sess Session, taskID string, url string, cfg Config) ResultData
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces task IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
