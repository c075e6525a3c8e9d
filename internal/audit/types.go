// Package audit defines core types shared across subsystems.
package audit

import (
	"fmt"
	"time"

	"github.com/Ygohel18/lighthouse-test/internal/report"
)

// TaskStatus represents the lifecycle state of an audit task.
type TaskStatus string

// Task status values persisted in the task store.
const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
)

// Terminal reports whether the status is an end state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// ResultStatus represents the lifecycle state of one per-config result.
type ResultStatus string

// Result status values persisted inside a task document.
const (
	ResultStatusPending   ResultStatus = "pending"
	ResultStatusRunning   ResultStatus = "running"
	ResultStatusCompleted ResultStatus = "completed"
	ResultStatusError     ResultStatus = "error"
)

// Terminal reports whether the status is an end state.
func (s ResultStatus) Terminal() bool {
	return s == ResultStatusCompleted || s == ResultStatusError
}

// Device selects the emulated form factor for one audit run.
type Device string

// Supported devices.
const (
	DeviceMobile  Device = "mobile"
	DeviceDesktop Device = "desktop"
)

// Browser selects the browser driven for one audit run.
type Browser string

// Supported browsers.
const (
	BrowserChrome  Browser = "Chrome"
	BrowserFirefox Browser = "Firefox"
)

// Config is the (device, browser, location) tuple identifying one audit run
// within a task. It acts as the composite natural key for a PartialResult;
// no two results in the same task may share an identical Config.
type Config struct {
	Device   Device  `json:"device" mapstructure:"device"`
	Browser  Browser `json:"browser" mapstructure:"browser"`
	Location string  `json:"location" mapstructure:"location"`
}

// Equal reports whether two configs match on every field.
func (c Config) Equal(other Config) bool {
	return c.Device == other.Device && c.Browser == other.Browser && c.Location == other.Location
}

// String renders the config for log fields.
func (c Config) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Device, c.Browser, c.Location)
}

// PartialResult is the progress/outcome record for one config within a task.
// Timestamp refreshes on every status change.
type PartialResult struct {
	Config       Config          `json:"config"`
	Status       ResultStatus    `json:"status"`
	Score        *int            `json:"score,omitempty"`
	Metrics      *report.Metrics `json:"metrics,omitempty"`
	Report       *report.Report  `json:"report,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ResultData carries the mergeable fields of a partial-result update.
type ResultData struct {
	Score        *int
	Metrics      *report.Metrics
	Report       *report.Report
	ErrorMessage string
}

// Task is one user-submitted audit request against a URL, covering one or
// more configurations. Results grows to exactly len(PlannedConfigs) entries
// once a run initializes, keyed by Config.
type Task struct {
	TaskID         string          `json:"taskId"`
	URL            string          `json:"url"`
	CreatedAt      time.Time       `json:"createdAt"`
	Status         TaskStatus      `json:"status"`
	PlannedConfigs []Config        `json:"plannedConfigs"`
	Results        []PartialResult `json:"results"`
}

// Clone returns a deep copy of the task, so read-path mutation (signed URL
// rehydration) never touches the stored document.
func (t Task) Clone() Task {
	cp := t
	cp.PlannedConfigs = append([]Config(nil), t.PlannedConfigs...)
	cp.Results = make([]PartialResult, len(t.Results))
	for i, r := range t.Results {
		rc := r
		if r.Score != nil {
			score := *r.Score
			rc.Score = &score
		}
		if r.Metrics != nil {
			m := *r.Metrics
			rc.Metrics = &m
		}
		if r.Report != nil {
			rc.Report = r.Report.Clone()
		}
		cp.Results[i] = rc
	}
	return cp
}

// TaskEvent is published when a task run finishes.
type TaskEvent struct {
	TaskID     string     `json:"task_id"`
	URL        string     `json:"url"`
	Status     TaskStatus `json:"status"`
	Configs    int        `json:"configs"`
	FinishedAt time.Time  `json:"finished_at"`
}
