// Package render turns a listing URL into a parsed DOM snapshot. The browser
// renderer drives a real Chrome session through go-rod; the static renderer
// fetches plain HTML with colly for sites that do not need JavaScript.
package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Renderer produces the fully rendered document of a single URL. Each call
// owns its own session and releases it before returning.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (*goquery.Document, error)
}

// Stages a fetch can fail in
const (
	StageSetup            = "setup"
	StageLoad             = "load"
	StageLoadingIndicator = "loading-indicator"
	StageContent          = "content"
	StageStructure        = "structure"
)

// TimeoutError reports a wait that ran out before the page became usable
type TimeoutError struct {
	URL   string
	Stage string
	Wait  time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for %s on %s", e.Wait, e.Stage, e.URL)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// StructuralError reports a page that rendered but lacks the expected markup
type StructuralError struct {
	URL    string
	Marker string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("page %s does not contain structural marker %q", e.URL, e.Marker)
}

// checkMarker returns a *StructuralError when html lacks marker. An empty
// marker disables the check.
func checkMarker(pageURL, html, marker string) error {
	if marker != "" && !strings.Contains(html, marker) {
		return &StructuralError{URL: pageURL, Marker: marker}
	}
	return nil
}
