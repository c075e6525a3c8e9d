// Package httpengine calls a Lighthouse engine sidecar over HTTP.
//
// The sidecar attaches to the browser debugging endpoint it is given,
// navigates the URL and returns the raw report JSON.
package httpengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
	"github.com/Ygohel18/lighthouse-test/internal/report"
)

// Engine implements audit.Engine against an HTTP sidecar.
type Engine struct {
	baseURL string
	client  *http.Client
}

type auditRequest struct {
	URL                 string `json:"url"`
	Endpoint            string `json:"endpoint"`
	NavigationTimeoutMs int64  `json:"navigationTimeoutMs"`
	ThrottlingMethod    string `json:"throttlingMethod"`
}

// New builds an engine client. timeout bounds the whole audit round trip and
// must exceed the navigation timeout passed per call.
func New(baseURL string, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Engine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Audit runs one audit and returns the raw report.
func (e *Engine) Audit(ctx context.Context, url string, opts audit.EngineOptions) (*report.Report, error) {
	body, err := json.Marshal(auditRequest{
		URL:                 url,
		Endpoint:            opts.Endpoint,
		NavigationTimeoutMs: opts.NavigationTimeout.Milliseconds(),
		ThrottlingMethod:    opts.ThrottlingMethod,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/audit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build audit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call audit engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("audit engine returned %d: %s", resp.StatusCode, snippet)
	}

	var r report.Report
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode audit report: %w", err)
	}
	return &r, nil
}
