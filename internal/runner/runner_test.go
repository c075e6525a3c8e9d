package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
	"github.com/Ygohel18/lighthouse-test/internal/report"
	storagemem "github.com/Ygohel18/lighthouse-test/internal/storage/memory"
)

type fakePage struct{ closed bool }

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeSession struct {
	page    *fakePage
	pageErr error
	gotCfg  audit.Config
}

func (s *fakeSession) Endpoint() string { return "http://127.0.0.1:9222" }

func (s *fakeSession) NewPage(_ context.Context, cfg audit.Config) (audit.Page, error) {
	s.gotCfg = cfg
	if s.pageErr != nil {
		return nil, s.pageErr
	}
	return s.page, nil
}

func (s *fakeSession) Close() error { return nil }

type fakeEngine struct {
	report  *report.Report
	err     error
	gotURL  string
	gotOpts audit.EngineOptions
}

func (e *fakeEngine) Audit(_ context.Context, url string, opts audit.EngineOptions) (*report.Report, error) {
	e.gotURL = url
	e.gotOpts = opts
	return e.report, e.err
}

func score(v float64) *float64 { return &v }

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestRunner(engine audit.Engine) *Runner {
	store := storagemem.NewArtifactStore()
	processor := report.NewProcessor(store, fixedClock{now: time.Unix(0, 42)}, zap.NewNop())
	return New(engine, processor, Options{
		NavigationTimeout: 60 * time.Second,
		ThrottlingMethod:  "simulate",
	}, zap.NewNop())
}

func TestRunAuditSuccess(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{report: &report.Report{
		Categories: map[string]*report.Category{
			"performance": {ID: "performance", Score: score(0.93)},
		},
		Audits: map[string]*report.Audit{
			"speed-index": {ID: "speed-index", NumericValue: score(1200)},
		},
	}}
	sess := &fakeSession{page: &fakePage{}}
	r := newTestRunner(engine)

	cfg := audit.Config{Device: audit.DeviceMobile, Browser: audit.BrowserChrome, Location: "us-east-1"}
	data := r.RunAudit(context.Background(), sess, "task-1", "https://example.com", cfg)

	require.Empty(t, data.ErrorMessage)
	require.NotNil(t, data.Score)
	require.Equal(t, 93, *data.Score)
	require.NotNil(t, data.Metrics)
	require.NotNil(t, data.Report)

	require.Equal(t, "https://example.com", engine.gotURL)
	require.Equal(t, "http://127.0.0.1:9222", engine.gotOpts.Endpoint)
	require.Equal(t, 60*time.Second, engine.gotOpts.NavigationTimeout)
	require.Equal(t, "simulate", engine.gotOpts.ThrottlingMethod)
	require.Equal(t, cfg, sess.gotCfg)
	require.True(t, sess.page.closed)
}

func TestRunAuditEngineFailure(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: errors.New("engine exploded")}
	sess := &fakeSession{page: &fakePage{}}
	r := newTestRunner(engine)

	cfg := audit.Config{Device: audit.DeviceDesktop, Browser: audit.BrowserChrome, Location: "eu-west-2"}
	data := r.RunAudit(context.Background(), sess, "task-1", "https://example.com", cfg)

	require.Contains(t, data.ErrorMessage, "engine exploded")
	require.Nil(t, data.Score)
	require.Nil(t, data.Report)
	require.True(t, sess.page.closed, "page must be closed on failure too")
}

func TestRunAuditPageFailure(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	sess := &fakeSession{pageErr: errors.New("no more tabs")}
	r := newTestRunner(engine)

	cfg := audit.Config{Device: audit.DeviceMobile, Browser: audit.BrowserChrome, Location: "us-east-1"}
	data := r.RunAudit(context.Background(), sess, "task-1", "https://example.com", cfg)

	require.Contains(t, data.ErrorMessage, "no more tabs")
	require.Empty(t, engine.gotURL, "engine must not run without a page")
}
