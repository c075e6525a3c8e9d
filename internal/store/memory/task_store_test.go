package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

var (
	baseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	cfgA     = audit.Config{Device: audit.DeviceMobile, Browser: audit.BrowserChrome, Location: "us-east-1"}
	cfgB     = audit.Config{Device: audit.DeviceDesktop, Browser: audit.BrowserChrome, Location: "eu-west-2"}
)

func newStoreWithTask(t *testing.T) (*TaskStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: baseTime}
	store := NewTaskStore(clock)
	task := audit.Task{
		TaskID:         "task-1",
		URL:            "https://example.com",
		CreatedAt:      baseTime,
		Status:         audit.TaskStatusQueued,
		PlannedConfigs: []audit.Config{cfgA, cfgB},
	}
	require.NoError(t, store.CreateTask(context.Background(), task))
	return store, clock
}

func TestGetTaskNotFound(t *testing.T) {
	t.Parallel()
	store := NewTaskStore(&fakeClock{now: baseTime})
	_, err := store.GetTask(context.Background(), "missing")
	require.ErrorIs(t, err, audit.ErrTaskNotFound)
}

func TestGetTaskReturnsCopy(t *testing.T) {
	t.Parallel()
	store, _ := newStoreWithTask(t)
	ctx := context.Background()

	first, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	first.Status = audit.TaskStatusError
	first.PlannedConfigs[0].Location = "mutated"

	second, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	require.Equal(t, audit.TaskStatusQueued, second.Status)
	require.Equal(t, "us-east-1", second.PlannedConfigs[0].Location)
}

func TestInitializePartialResults(t *testing.T) {
	t.Parallel()
	store, _ := newStoreWithTask(t)
	ctx := context.Background()

	require.NoError(t, store.InitializePartialResults(ctx, "task-1", []audit.Config{cfgA, cfgB}))

	task, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, task.Results, 2)
	for i, result := range task.Results {
		require.Equal(t, task.PlannedConfigs[i], result.Config)
		require.Equal(t, audit.ResultStatusPending, result.Status)
		require.Equal(t, baseTime, result.Timestamp)
	}
}

func TestUpdatePartialResultMergesAndStamps(t *testing.T) {
	t.Parallel()
	store, clock := newStoreWithTask(t)
	ctx := context.Background()
	require.NoError(t, store.InitializePartialResults(ctx, "task-1", []audit.Config{cfgA, cfgB}))

	clock.now = baseTime.Add(time.Minute)
	score := 87
	data := &audit.ResultData{Score: &score}
	require.NoError(t, store.UpdatePartialResult(ctx, "task-1", cfgA, audit.ResultStatusCompleted, data))

	task, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)

	require.Equal(t, audit.ResultStatusCompleted, task.Results[0].Status)
	require.Equal(t, 87, *task.Results[0].Score)
	require.Equal(t, baseTime.Add(time.Minute), task.Results[0].Timestamp)

	// The sibling config is untouched.
	require.Equal(t, audit.ResultStatusPending, task.Results[1].Status)
	require.Nil(t, task.Results[1].Score)
}

func TestUpdatePartialResultNoMatchIsNoOp(t *testing.T) {
	t.Parallel()
	store, _ := newStoreWithTask(t)
	ctx := context.Background()
	require.NoError(t, store.InitializePartialResults(ctx, "task-1", []audit.Config{cfgA}))

	unknown := audit.Config{Device: audit.DeviceMobile, Browser: audit.BrowserFirefox, Location: "nowhere"}
	require.NoError(t, store.UpdatePartialResult(ctx, "task-1", unknown, audit.ResultStatusError, nil))

	task, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	require.Len(t, task.Results, 1)
	require.Equal(t, audit.ResultStatusPending, task.Results[0].Status)
}

func TestListRecentTasksOrdersAndLimits(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: baseTime}
	store := NewTaskStore(clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		task := audit.Task{
			TaskID:    fmt.Sprintf("task-%d", i),
			URL:       "https://example.com",
			CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
			Status:    audit.TaskStatusQueued,
		}
		require.NoError(t, store.CreateTask(ctx, task))
	}

	tasks, err := store.ListRecentTasks(ctx, 3)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, "task-4", tasks[0].TaskID)
	require.Equal(t, "task-3", tasks[1].TaskID)
	require.Equal(t, "task-2", tasks[2].TaskID)
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	store, _ := newStoreWithTask(t)
	ctx := context.Background()

	existed, err := store.DeleteTask(ctx, "task-1")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = store.DeleteTask(ctx, "task-1")
	require.NoError(t, err)
	require.False(t, existed)

	_, err = store.GetTask(ctx, "task-1")
	require.ErrorIs(t, err, audit.ErrTaskNotFound)
}
