// Package metrics exposes Prometheus collectors for the audit service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksCreatedTotal    prometheus.Counter
	tasksFinishedTotal   *prometheus.CounterVec
	auditsTotal          *prometheus.CounterVec
	auditDurationSeconds *prometheus.HistogramVec
	artifactUploadsTotal *prometheus.CounterVec
	artifactDeletesTotal prometheus.Counter
	signedURLsTotal      *prometheus.CounterVec
	httpRequestsTotal    *prometheus.CounterVec
	httpDurationSeconds  *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		tasksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "audit_tasks_created_total",
			Help: "Total number of audit tasks created.",
		})

		tasksFinishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_tasks_finished_total",
				Help: "Total number of finished task runs, labeled by final status.",
			},
			[]string{"status"},
		)

		auditsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_runs_total",
				Help: "Total number of per-config audit runs, labeled by status.",
			},
			[]string{"status"},
		)

		auditDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audit_run_duration_seconds",
				Help:    "Duration of per-config audit runs, labeled by device.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"device"},
		)

		artifactUploadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_artifact_uploads_total",
				Help: "Total number of screenshot uploads, labeled by result.",
			},
			[]string{"result"},
		)

		artifactDeletesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "audit_artifact_deletes_total",
			Help: "Total number of artifact keys requested for deletion.",
		})

		signedURLsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_signed_urls_total",
				Help: "Total number of signed URL generations, labeled by result.",
			},
			[]string{"result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency, labeled by method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		)
	})
}

// IncTaskCreated counts one created task.
func IncTaskCreated() {
	if tasksCreatedTotal != nil {
		tasksCreatedTotal.Inc()
	}
}

// IncTaskFinished counts one finished task run.
func IncTaskFinished(status string) {
	if tasksFinishedTotal != nil {
		tasksFinishedTotal.WithLabelValues(status).Inc()
	}
}

// IncAudit counts one per-config audit run.
func IncAudit(status string) {
	if auditsTotal != nil {
		auditsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveAuditDuration records one audit run duration.
func ObserveAuditDuration(device string, d time.Duration) {
	if auditDurationSeconds != nil {
		auditDurationSeconds.WithLabelValues(device).Observe(d.Seconds())
	}
}

// IncArtifactUpload counts one screenshot upload attempt.
func IncArtifactUpload(result string) {
	if artifactUploadsTotal != nil {
		artifactUploadsTotal.WithLabelValues(result).Inc()
	}
}

// AddArtifactDeletes counts keys requested for deletion.
func AddArtifactDeletes(n int) {
	if artifactDeletesTotal != nil {
		artifactDeletesTotal.Add(float64(n))
	}
}

// IncSignedURL counts one signed URL generation attempt.
func IncSignedURL(result string) {
	if signedURLsTotal != nil {
		signedURLsTotal.WithLabelValues(result).Inc()
	}
}

// IncHTTPRequest counts one served HTTP request.
func IncHTTPRequest(method, code string) {
	if httpRequestsTotal != nil {
		httpRequestsTotal.WithLabelValues(method, code).Inc()
	}
}

// ObserveHTTPDuration records one HTTP request duration.
func ObserveHTTPDuration(method string, d time.Duration) {
	if httpDurationSeconds != nil {
		httpDurationSeconds.WithLabelValues(method).Observe(d.Seconds())
	}
}
