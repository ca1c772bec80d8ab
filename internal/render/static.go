package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"priceharvester/internal/config"
	"priceharvester/internal/logger"
)

// StaticRenderer fetches server-rendered HTML with colly. There is nothing to
// wait for, so loading indicators still present or a missing content item are
// reported as the same timeouts the browser renderer would hit.
type StaticRenderer struct {
	cfg       config.Harvest
	reporter  SnapshotReporter
	log       *logger.Logger
	transport http.RoundTripper
}

func NewStaticRenderer(cfg config.Harvest, reporter SnapshotReporter, log *logger.Logger) *StaticRenderer {
	if reporter == nil {
		reporter = NopReporter()
	}
	return &StaticRenderer{cfg: cfg, reporter: reporter, log: logger.OrNop(log)}
}

// WithTransport swaps the HTTP transport used by every new collector
func (r *StaticRenderer) WithTransport(t http.RoundTripper) *StaticRenderer {
	r.transport = t
	return r
}

func (r *StaticRenderer) Render(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := NewIdentity(r.cfg.Locale)
	c := colly.NewCollector(
		colly.UserAgent(id.UserAgent),
		colly.DetectCharset(),
	)
	timeout := r.cfg.PageLoadTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	c.SetRequestTimeout(timeout)
	if r.transport != nil {
		c.WithTransport(r.transport)
	}

	c.OnRequest(func(req *colly.Request) {
		if ctx.Err() != nil {
			req.Abort()
			return
		}
		req.Headers.Set("Accept-Language", id.AcceptLanguage)
	})

	var body []byte
	c.OnResponse(func(resp *colly.Response) {
		body = resp.Body
	})

	if err := c.Visit(pageURL); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &TimeoutError{URL: pageURL, Stage: StageLoad, Wait: timeout, Err: err}
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	html := string(body)
	if sel := r.cfg.Selectors.LoadingIndicators; sel != "" && doc.Find(sel).Length() > 0 {
		return nil, r.fail(ctx, pageURL, StageLoadingIndicator, html,
			&TimeoutError{URL: pageURL, Stage: StageLoadingIndicator, Err: context.DeadlineExceeded})
	}
	if sel := r.cfg.Selectors.ContentItem; sel != "" && doc.Find(sel).Length() == 0 {
		return nil, r.fail(ctx, pageURL, StageContent, html,
			&TimeoutError{URL: pageURL, Stage: StageContent, Err: context.DeadlineExceeded})
	}
	if err := checkMarker(pageURL, html, r.cfg.StructuralMarker); err != nil {
		return nil, r.fail(ctx, pageURL, StageStructure, html, err)
	}

	return doc, nil
}

func (r *StaticRenderer) fail(ctx context.Context, pageURL, stage, html string, err error) error {
	snap := Snapshot{URL: pageURL, Stage: stage, Reason: err.Error(), HTML: html, TakenAt: time.Now()}
	if repErr := r.reporter.Capture(ctx, snap); repErr != nil {
		r.log.Warn().Err(repErr).Str("url", pageURL).Msg("Failed to store diagnostic snapshot")
	}
	return err
}
