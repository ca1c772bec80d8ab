package render

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceharvester/internal/config"
)

const listingHTML = `<html><body><div class="container">
<div class="indexGoods__item"><span class="price">11 990 ₽</span></div>
<div class="indexGoods__item"><span class="price">7 490 ₽</span></div>
</div></body></html>`

type recordingReporter struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recordingReporter) Capture(_ context.Context, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html; charset=utf-8")
	return httpmock.ResponderFromResponse(resp)
}

func newStaticRenderer(t *testing.T, body string) (*StaticRenderer, *recordingReporter, *httpmock.MockTransport) {
	t.Helper()
	cfg := config.DefaultHarvest()
	cfg.Renderer = config.RendererStatic

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://shop.test/phones", htmlResponder(body))

	reporter := &recordingReporter{}
	return NewStaticRenderer(cfg, reporter, nil).WithTransport(transport), reporter, transport
}

func TestStaticRendererReturnsDocument(t *testing.T) {
	r, reporter, transport := newStaticRenderer(t, listingHTML)

	doc, err := r.Render(context.Background(), "http://shop.test/phones")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Find("div.indexGoods__item").Length())
	assert.Empty(t, reporter.snaps)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestStaticRendererClassifiesFailures(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantStage string
		timeout   bool
	}{
		{
			name:      "loaderStillPresent",
			body:      `<div class="container"><div class="spinner"></div><div class="indexGoods__item"></div></div>`,
			wantStage: StageLoadingIndicator,
			timeout:   true,
		},
		{
			name:      "noContent",
			body:      `<div class="container"><p>empty</p></div>`,
			wantStage: StageContent,
			timeout:   true,
		},
		{
			name:      "noMarker",
			body:      `<div class="wrapper"><div class="indexGoods__item"></div></div>`,
			wantStage: StageStructure,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, reporter, _ := newStaticRenderer(t, tc.body)

			_, err := r.Render(context.Background(), "http://shop.test/phones")
			require.Error(t, err)

			var timeoutErr *TimeoutError
			var structErr *StructuralError
			if tc.timeout {
				require.True(t, errors.As(err, &timeoutErr), "expected TimeoutError, got %v", err)
				assert.Equal(t, tc.wantStage, timeoutErr.Stage)
				assert.True(t, errors.Is(err, context.DeadlineExceeded))
			} else {
				require.True(t, errors.As(err, &structErr), "expected StructuralError, got %v", err)
				assert.Equal(t, "container", structErr.Marker)
			}

			require.Len(t, reporter.snaps, 1)
			assert.Equal(t, tc.wantStage, reporter.snaps[0].Stage)
			assert.NotEmpty(t, reporter.snaps[0].HTML)
		})
	}
}

func TestStaticRendererHTTPError(t *testing.T) {
	cfg := config.DefaultHarvest()
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://shop.test/phones", httpmock.NewStringResponder(503, "busy"))

	r := NewStaticRenderer(cfg, nil, nil).WithTransport(transport)
	_, err := r.Render(context.Background(), "http://shop.test/phones")
	require.Error(t, err)

	var timeoutErr *TimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestStaticRendererCanceledContext(t *testing.T) {
	r, _, transport := newStaticRenderer(t, listingHTML)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, "http://shop.test/phones")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, transport.GetTotalCallCount())
}
