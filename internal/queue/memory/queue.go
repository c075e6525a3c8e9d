// Package memory provides a channel-backed queue for tests and local runs.
package memory

import (
	"context"
	"errors"
)

// Queue implements audit.Queue with a buffered channel.
type Queue struct {
	jobs chan string
}

// NewQueue returns a queue with the given buffer size.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 64
	}
	return &Queue{jobs: make(chan string, size)}
}

// Enqueue publishes taskID, failing fast if the buffer is full.
func (q *Queue) Enqueue(ctx context.Context, taskID string) error {
	select {
	case q.jobs <- taskID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("queue full")
	}
}

// Dequeue blocks until a task id is available or ctx ends.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	select {
	case taskID := <-q.jobs:
		return taskID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Len reports the number of buffered jobs.
func (q *Queue) Len() int {
	return len(q.jobs)
}
