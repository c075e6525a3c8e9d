// Package asynq backs the audit job queue with Redis via hibiken/asynq.
//
// Delivery is at-least-once: a job whose handler returns an error is retried
// with exponential backoff until the attempt budget is spent, and the same
// task id may be delivered more than once.
package asynq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TypeAuditTask is the task type registered on the worker mux.
const TypeAuditTask = "audit:task"

// Payload is the JSON body of an audit job. The task id is the only thing
// carried on the wire; everything else lives in the task store.
type Payload struct {
	TaskID string `json:"taskId"`
}

// Options configures the producer side of the queue.
type Options struct {
	Queue       string
	MaxAttempts int
}

// Queue implements audit.Queue on an asynq client.
type Queue struct {
	client *asynq.Client
	opts   Options
}

// NewQueue builds a producer connected to redisOpt.
func NewQueue(redisOpt asynq.RedisClientOpt, opts Options) *Queue {
	if opts.Queue == "" {
		opts.Queue = "default"
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Queue{client: asynq.NewClient(redisOpt), opts: opts}
}

// Enqueue publishes an audit job for taskID.
func (q *Queue) Enqueue(ctx context.Context, taskID string) error {
	payload, err := json.Marshal(Payload{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeAuditTask, payload)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.Queue(q.opts.Queue),
		// MaxRetry counts retries, not attempts.
		asynq.MaxRetry(q.opts.MaxAttempts-1),
	)
	if err != nil {
		return fmt.Errorf("enqueue task %s: %w", taskID, err)
	}
	return nil
}

// Close releases the redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
