// Package chromedp launches and controls the headless Chrome instance shared
// across the configs of one audit run.
package chromedp

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/Ygohel18/lighthouse-test/internal/audit"
)

// Pixel 5 viewport used for mobile emulation.
const (
	mobileWidth  = 393
	mobileHeight = 851
	mobileScale  = 2.75
)

const defaultMobileUserAgent = "Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"

// Config controls the launcher.
type Config struct {
	// DebugPort is the remote debugging port the audit engine attaches to.
	DebugPort int
	// UserAgent, when set, replaces the default mobile user agent.
	UserAgent string
}

// Browser implements audit.BrowserLauncher using chromedp and headless Chrome.
type Browser struct {
	cfg Config
}

// New creates a launcher.
func New(cfg Config) (*Browser, error) {
	if cfg.DebugPort <= 0 {
		return nil, fmt.Errorf("debug port must be > 0")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultMobileUserAgent
	}
	return &Browser{cfg: cfg}, nil
}

// Launch starts a Chrome process exposing the remote debugging port and
// returns a session bound to it.
func (b *Browser) Launch(ctx context.Context) (audit.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("remote-debugging-port", fmt.Sprintf("%d", b.cfg.DebugPort)),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	// Spawn the browser process eagerly so a launch failure surfaces here
	// rather than on the first page.
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	return &session{
		cfg:           b.cfg,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

type session struct {
	cfg           Config
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

// Endpoint returns the HTTP debugger address of the running browser.
func (s *session) Endpoint() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.cfg.DebugPort)
}

// NewPage opens a fresh tab, applying Pixel 5 emulation for mobile configs.
func (s *session) NewPage(ctx context.Context, cfg audit.Config) (audit.Page, error) {
	pageCtx, pageCancel := chromedp.NewContext(s.browserCtx)

	actions := []chromedp.Action{s.emulationAction(cfg)}
	runCtx, cancel := context.WithTimeout(pageCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		pageCancel()
		return nil, fmt.Errorf("prepare page: %w", err)
	}

	// Honor caller cancellation for the lifetime of the page.
	stop := context.AfterFunc(ctx, pageCancel)
	return &page{cancel: pageCancel, stop: stop}, nil
}

func (s *session) emulationAction(cfg audit.Config) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if cfg.Device != audit.DeviceMobile {
			return nil
		}
		if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		err := emulation.SetDeviceMetricsOverride(mobileWidth, mobileHeight, mobileScale, true).
			WithScreenWidth(mobileWidth).
			WithScreenHeight(mobileHeight).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("set device metrics: %w", err)
		}
		return nil
	})
}

// Close shuts the browser process down.
func (s *session) Close() error {
	s.browserCancel()
	s.allocCancel()
	return nil
}

type page struct {
	cancel context.CancelFunc
	stop   func() bool
}

func (p *page) Close() error {
	p.stop()
	p.cancel()
	return nil
}
