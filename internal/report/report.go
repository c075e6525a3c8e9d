// Package report models audit-engine reports and the screenshot
// offload/rehydration protocol applied to them.
package report

import (
	"encoding/json"
	"math"
)

// Audit ids of the two fixed screenshot-bearing entries.
const (
	AuditFilmstrip = "screenshot-thumbnails"
	AuditThumbnail = "final-screenshot"
)

// ScreenshotAuditIDs lists the audit entries walked by the offload,
// rehydration and deletion traversals.
var ScreenshotAuditIDs = []string{AuditFilmstrip, AuditThumbnail}

const categoryPerformance = "performance"

// Metric audit ids extracted into Metrics.
const (
	auditFirstContentfulPaint   = "first-contentful-paint"
	auditLargestContentfulPaint = "largest-contentful-paint"
	auditCumulativeLayoutShift  = "cumulative-layout-shift"
	auditTotalBlockingTime      = "total-blocking-time"
	auditSpeedIndex             = "speed-index"
	auditInteractive            = "interactive"
)

// Report is the audit-engine output. Only the sanitized form, with inline
// screenshot payloads replaced by object keys, is ever persisted.
type Report struct {
	RequestedURL string               `json:"requestedUrl,omitempty"`
	FinalURL     string               `json:"finalUrl,omitempty"`
	FetchTime    string               `json:"fetchTime,omitempty"`
	Audits       map[string]*Audit    `json:"audits"`
	Categories   map[string]*Category `json:"categories,omitempty"`
}

// Category is one scoring category; performance carries the overall score
// as a 0-1 fraction.
type Category struct {
	ID    string   `json:"id,omitempty"`
	Title string   `json:"title,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

// Audit is one audit entry inside a report.
type Audit struct {
	ID           string   `json:"id,omitempty"`
	Title        string   `json:"title,omitempty"`
	Score        *float64 `json:"score,omitempty"`
	NumericValue *float64 `json:"numericValue,omitempty"`
	DisplayValue string   `json:"displayValue,omitempty"`
	Details      *Details `json:"details,omitempty"`
}

// Metrics holds the six fixed numeric metrics extracted from a report.
// Paint/blocking/interactive values are milliseconds; layout shift is
// unitless. Values pass through from the engine unreinterpreted.
type Metrics struct {
	FirstContentfulPaint   *float64 `json:"firstContentfulPaint,omitempty"`
	LargestContentfulPaint *float64 `json:"largestContentfulPaint,omitempty"`
	CumulativeLayoutShift  *float64 `json:"cumulativeLayoutShift,omitempty"`
	TotalBlockingTime      *float64 `json:"totalBlockingTime,omitempty"`
	SpeedIndex             *float64 `json:"speedIndex,omitempty"`
	Interactive            *float64 `json:"interactive,omitempty"`
}

// Clone returns a deep copy via a JSON round trip.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		cp := *r
		return &cp
	}
	var out Report
	if err := json.Unmarshal(b, &out); err != nil {
		cp := *r
		return &cp
	}
	return &out
}

// ExtractMetrics pulls the six fixed metrics out of a raw report by audit id.
// Absent audits leave a nil field.
func ExtractMetrics(r *Report) *Metrics {
	return &Metrics{
		FirstContentfulPaint:   numericValue(r, auditFirstContentfulPaint),
		LargestContentfulPaint: numericValue(r, auditLargestContentfulPaint),
		CumulativeLayoutShift:  numericValue(r, auditCumulativeLayoutShift),
		TotalBlockingTime:      numericValue(r, auditTotalBlockingTime),
		SpeedIndex:             numericValue(r, auditSpeedIndex),
		Interactive:            numericValue(r, auditInteractive),
	}
}

// ExtractScore returns round(performance.score * 100), or nil when the
// category is absent or unscored.
func ExtractScore(r *Report) *int {
	cat, ok := r.Categories[categoryPerformance]
	if !ok || cat == nil || cat.Score == nil {
		return nil
	}
	score := int(math.Round(*cat.Score * 100))
	return &score
}

// CollectKeys walks the screenshot-bearing audits and returns every object
// key referenced by the report. Used by the deletion cascade.
func CollectKeys(r *Report) []string {
	if r == nil {
		return nil
	}
	var keys []string
	for _, auditID := range ScreenshotAuditIDs {
		a, ok := r.Audits[auditID]
		if !ok || a == nil || a.Details == nil {
			continue
		}
		switch {
		case a.Details.Filmstrip != nil:
			for _, item := range a.Details.Filmstrip.Items {
				if item.ObjectKey != "" {
					keys = append(keys, item.ObjectKey)
				}
			}
		case a.Details.Thumbnail != nil:
			if a.Details.Thumbnail.ObjectKey != "" {
				keys = append(keys, a.Details.Thumbnail.ObjectKey)
			}
		}
	}
	return keys
}

func numericValue(r *Report, auditID string) *float64 {
	a, ok := r.Audits[auditID]
	if !ok || a == nil || a.NumericValue == nil {
		return nil
	}
	v := *a.NumericValue
	return &v
}
