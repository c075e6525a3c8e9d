package asynq

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingHandler struct {
	mu      sync.Mutex
	taskIDs []string
}

func (h *recordingHandler) HandleTask(_ context.Context, taskID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.taskIDs = append(h.taskIDs, taskID)
	return nil
}

func (h *recordingHandler) seen() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.taskIDs))
	copy(out, h.taskIDs)
	return out
}

func TestQueueDeliversTaskID(t *testing.T) {
	redis := startMiniRedis(t)
	redisOpt := asynq.RedisClientOpt{Addr: redis.Addr()}

	handler := &recordingHandler{}
	server := NewServer(redisOpt, handler, ServerOptions{Queue: "audits", Concurrency: 1}, zap.NewNop())
	require.NoError(t, server.Start())
	defer server.Shutdown()

	queue := NewQueue(redisOpt, Options{Queue: "audits", MaxAttempts: 3})
	defer queue.Close()

	require.NoError(t, queue.Enqueue(context.Background(), "task-abc"))

	require.Eventually(t, func() bool {
		seen := handler.seen()
		return len(seen) == 1 && seen[0] == "task-abc"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestRetryDelayDoubles(t *testing.T) {
	t.Parallel()
	require.Equal(t, time.Second, retryDelay(time.Second, 0))
	require.Equal(t, 2*time.Second, retryDelay(time.Second, 1))
	require.Equal(t, 4*time.Second, retryDelay(time.Second, 2))
}

func startMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}
