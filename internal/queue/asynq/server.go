package asynq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Handler consumes one audit job. Returning an error triggers a retry.
type Handler interface {
	HandleTask(ctx context.Context, taskID string) error
}

// ServerOptions configures the consumer side of the queue.
type ServerOptions struct {
	Queue       string
	Concurrency int
	BaseDelay   time.Duration
}

// Server wraps an asynq.Server that dispatches audit jobs to a Handler.
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// NewServer builds a consumer. Retry n waits BaseDelay << n, giving the
// doubling schedule 1s, 2s, 4s with the default base.
func NewServer(redisOpt asynq.RedisClientOpt, handler Handler, opts ServerOptions, logger *zap.Logger) *Server {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: opts.Concurrency,
		Queues:      map[string]int{opts.Queue: 1},
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return retryDelay(opts.BaseDelay, n)
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAuditTask, func(ctx context.Context, t *asynq.Task) error {
		var payload Payload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			// A malformed payload never becomes valid; skip retries.
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
		logger.Info("received audit job", zap.String("task_id", payload.TaskID))
		return handler.HandleTask(ctx, payload.TaskID)
	})
	return &Server{server: server, mux: mux, logger: logger}
}

func retryDelay(base time.Duration, n int) time.Duration {
	return base << n
}

// Run blocks serving jobs until Shutdown is called.
func (s *Server) Run() error {
	return s.server.Run(s.mux)
}

// Start begins serving jobs without blocking.
func (s *Server) Start() error {
	return s.server.Start(s.mux)
}

// Shutdown drains in-flight jobs and stops the server.
func (s *Server) Shutdown() {
	s.server.Shutdown()
}
