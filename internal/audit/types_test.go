package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ygohel18/lighthouse-test/internal/report"
)

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	require.False(t, TaskStatusQueued.Terminal())
	require.False(t, TaskStatusRunning.Terminal())
	require.True(t, TaskStatusCompleted.Terminal())
	require.True(t, TaskStatusError.Terminal())

	require.False(t, ResultStatusPending.Terminal())
	require.False(t, ResultStatusRunning.Terminal())
	require.True(t, ResultStatusCompleted.Terminal())
	require.True(t, ResultStatusError.Terminal())
}

func TestConfigEqual(t *testing.T) {
	t.Parallel()

	base := Config{Device: DeviceMobile, Browser: BrowserChrome, Location: "us-east-1"}
	require.True(t, base.Equal(Config{Device: DeviceMobile, Browser: BrowserChrome, Location: "us-east-1"}))
	require.False(t, base.Equal(Config{Device: DeviceDesktop, Browser: BrowserChrome, Location: "us-east-1"}))
	require.False(t, base.Equal(Config{Device: DeviceMobile, Browser: BrowserFirefox, Location: "us-east-1"}))
	require.False(t, base.Equal(Config{Device: DeviceMobile, Browser: BrowserChrome, Location: "eu-west-2"}))
}

func TestTaskCloneIsDeep(t *testing.T) {
	t.Parallel()

	score := 91
	task := Task{
		TaskID:         "task-1",
		URL:            "https://example.com",
		CreatedAt:      time.Unix(100, 0).UTC(),
		Status:         TaskStatusCompleted,
		PlannedConfigs: []Config{{Device: DeviceMobile, Browser: BrowserChrome, Location: "us-east-1"}},
		Results: []PartialResult{{
			Config: Config{Device: DeviceMobile, Browser: BrowserChrome, Location: "us-east-1"},
			Status: ResultStatusCompleted,
			Score:  &score,
			Report: &report.Report{RequestedURL: "https://example.com"},
		}},
	}

	cp := task.Clone()
	cp.PlannedConfigs[0].Location = "mutated"
	*cp.Results[0].Score = 1
	cp.Results[0].Report.RequestedURL = "mutated"

	require.Equal(t, "us-east-1", task.PlannedConfigs[0].Location)
	require.Equal(t, 91, *task.Results[0].Score)
	require.Equal(t, "https://example.com", task.Results[0].Report.RequestedURL)
}
