package render

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"priceharvester/internal/config"
	"priceharvester/internal/logger"
)

const snapshotTimeout = 10 * time.Second

// BrowserRenderer renders pages in headless Chrome. One browser process is
// shared; every Render call gets its own incognito context and page.
type BrowserRenderer struct {
	cfg      config.Harvest
	reporter SnapshotReporter
	log      *logger.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserRenderer creates a renderer; the browser starts on first use
func NewBrowserRenderer(cfg config.Harvest, reporter SnapshotReporter, log *logger.Logger) *BrowserRenderer {
	if reporter == nil {
		reporter = NopReporter()
	}
	return &BrowserRenderer{
		cfg:      cfg,
		reporter: reporter,
		log:      logger.OrNop(log),
	}
}

func (r *BrowserRenderer) initBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	l := launcher.New().
		Headless(r.cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-gpu").
		Set("window-size", "1920,1080")
	if r.cfg.Locale != "" {
		l = l.Set("lang", r.cfg.Locale)
	}

	bin := r.cfg.BrowserBin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}
	if bin != "" {
		l = l.Bin(bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	r.launcher = l
	r.browser = browser
	r.log.Info().Str("bin", bin).Bool("headless", r.cfg.Headless).Msg("Browser started")
	return browser, nil
}

// Close shuts the shared browser down
func (r *BrowserRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.launcher.Cleanup()
	r.browser = nil
	r.launcher = nil
	return err
}

// Render loads pageURL and returns the DOM once the page is stable enough to
// read prices from. Steps: randomized identity, navigation bounded by
// PageLoadTimeout (a load timeout only warns), loading indicators gone within
// LoaderWait, first content item visible within ContentWait, a few
// human-like scrolls, then the structural marker check. Any failure after the
// page opened is captured through the snapshot reporter.
func (r *BrowserRenderer) Render(ctx context.Context, pageURL string) (*goquery.Document, error) {
	browser, err := r.initBrowser()
	if err != nil {
		return nil, err
	}

	session, err := browser.Incognito()
	if err != nil {
		return nil, r.fail(nil, pageURL, StageSetup, fmt.Errorf("failed to open browser context: %w", err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.log.Debug().Err(err).Str("url", pageURL).Msg("Failed to dispose browser context")
		}
	}()

	page, err := stealth.Page(session)
	if err != nil {
		return nil, r.fail(nil, pageURL, StageSetup, fmt.Errorf("failed to open page: %w", err))
	}
	defer page.Close()
	page = page.Context(ctx)

	id := NewIdentity(r.cfg.Locale)
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      id.UserAgent,
		AcceptLanguage: id.AcceptLanguage,
		Platform:       id.Platform,
	}); err != nil {
		return nil, r.fail(page, pageURL, StageSetup, fmt.Errorf("failed to set user agent: %w", err))
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             id.Width,
		Height:            id.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, r.fail(page, pageURL, StageSetup, fmt.Errorf("failed to set viewport: %w", err))
	}

	log := r.log.WithField("url", pageURL)

	if err := r.navigate(page, pageURL, log); err != nil {
		return nil, r.fail(page, pageURL, StageLoad, err)
	}

	if sel := r.cfg.Selectors.LoadingIndicators; sel != "" {
		if err := r.waitLoadersGone(page, sel); err != nil {
			return nil, r.fail(page, pageURL, StageLoadingIndicator, classifyWait(ctx, pageURL, StageLoadingIndicator, r.cfg.LoaderWait, err))
		}
	}

	if sel := r.cfg.Selectors.ContentItem; sel != "" {
		if err := r.waitContentVisible(page, sel); err != nil {
			return nil, r.fail(page, pageURL, StageContent, classifyWait(ctx, pageURL, StageContent, r.cfg.ContentWait, err))
		}
	}

	r.scroll(ctx, page, log)

	html, err := page.HTML()
	if err != nil {
		return nil, r.fail(page, pageURL, StageStructure, fmt.Errorf("failed to read page html: %w", err))
	}
	if err := checkMarker(pageURL, html, r.cfg.StructuralMarker); err != nil {
		return nil, r.fail(page, pageURL, StageStructure, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, r.fail(page, pageURL, StageStructure, fmt.Errorf("failed to parse rendered html: %w", err))
	}
	return doc, nil
}

func (r *BrowserRenderer) navigate(page *rod.Page, pageURL string, log *logger.Logger) error {
	p := page.Timeout(r.cfg.PageLoadTimeout)
	defer p.CancelTimeout()

	err := p.Navigate(pageURL)
	if err == nil {
		err = p.WaitLoad()
	}
	return tolerateLoadTimeout(err, r.cfg.PageLoadTimeout, log)
}

// tolerateLoadTimeout lets a page whose load event never fired carry on with
// whatever has rendered; the later waits decide whether it is usable. Any
// other navigation error is returned wrapped.
func tolerateLoadTimeout(err error, timeout time.Duration, log *logger.Logger) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Dur("timeout", timeout).Msg("Page load timed out, continuing with partial page")
		return nil
	default:
		return fmt.Errorf("failed to navigate: %w", err)
	}
}

func (r *BrowserRenderer) waitLoadersGone(page *rod.Page, selector string) error {
	p := page.Timeout(r.cfg.LoaderWait)
	defer p.CancelTimeout()
	return p.Wait(rod.Eval(`(sel) => document.querySelectorAll(sel).length === 0`, selector))
}

func (r *BrowserRenderer) waitContentVisible(page *rod.Page, selector string) error {
	p := page.Timeout(r.cfg.ContentWait)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

// classifyWait turns a deadline hit inside a bounded wait into a TimeoutError.
// Cancellation of the harvest itself is passed through untouched.
func classifyWait(ctx context.Context, pageURL, stage string, wait time.Duration, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: pageURL, Stage: stage, Wait: wait, Err: err}
	}
	return fmt.Errorf("%s wait failed: %w", stage, err)
}

// scroll nudges lazy-loaded content into view. Failures only warn.
func (r *BrowserRenderer) scroll(ctx context.Context, page *rod.Page, log *logger.Logger) {
	for i := 0; i < r.cfg.ScrollSteps; i++ {
		for _, ratio := range []float64{0.7, 0.3} {
			if _, err := page.Eval(`(ratio) => window.scrollTo(0, document.body.scrollHeight * ratio)`, ratio); err != nil {
				log.Warn().Err(err).Int("step", i).Msg("Scroll failed")
				return
			}
			if err := sleepCtx(ctx, randomDelay(r.cfg.ScrollDelayMin, r.cfg.ScrollDelayMax)); err != nil {
				return
			}
		}
	}
}

// fail captures a diagnostic snapshot and returns err unchanged. Without a
// page only the reason is reported.
func (r *BrowserRenderer) fail(page *rod.Page, pageURL, stage string, err error) error {
	snap := Snapshot{URL: pageURL, Stage: stage, Reason: err.Error(), TakenAt: time.Now()}

	if page != nil {
		p := page.Context(context.Background()).Timeout(snapshotTimeout)
		defer p.CancelTimeout()

		if png, shotErr := p.Screenshot(false, nil); shotErr == nil {
			snap.Screenshot = png
		} else {
			r.log.Debug().Err(shotErr).Str("url", pageURL).Msg("Screenshot failed")
		}
		if html, htmlErr := p.HTML(); htmlErr == nil {
			snap.HTML = html
		}
	}

	if repErr := r.reporter.Capture(context.Background(), snap); repErr != nil {
		r.log.Warn().Err(repErr).Str("url", pageURL).Msg("Failed to store diagnostic snapshot")
	}
	return err
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
