package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"priceharvester/internal/config"
	"priceharvester/internal/logger"
)

func TestRandomDelayBounds(t *testing.T) {
	min, max := 300*time.Millisecond, 700*time.Millisecond
	for i := 0; i < 100; i++ {
		d := randomDelay(min, max)
		if d < min || d > max {
			t.Fatalf("delay %s outside [%s, %s]", d, min, max)
		}
	}
	assert.Equal(t, min, randomDelay(min, min))
	assert.Equal(t, max, randomDelay(max, min))
}

func TestSleepCtxCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleepCtx(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

const lazyPage = `<html><body><div class="container">
<div class="spinner">loading</div>
<script>
setTimeout(function () {
  document.querySelector('.spinner').remove();
  var item = document.createElement('div');
  item.className = 'indexGoods__item';
  item.innerHTML = '<span class="price">11 990 ₽</span>';
  document.querySelector('.container').appendChild(item);
}, 200);
</script>
</div></body></html>`

// Requires a local Chrome; opt in with HARVEST_BROWSER_TESTS=1.
func TestBrowserRendererEndToEnd(t *testing.T) {
	if os.Getenv("HARVEST_BROWSER_TESTS") == "" {
		t.Skip("set HARVEST_BROWSER_TESTS=1 to run browser tests")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("no browser found")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("broken") != "" {
			_, _ = w.Write([]byte(`<html><body><div class="indexGoods__item">x</div></body></html>`))
			return
		}
		_, _ = w.Write([]byte(lazyPage))
	}))
	defer srv.Close()

	cfg := config.DefaultHarvest()
	cfg.PageLoadTimeout = 10 * time.Second
	cfg.LoaderWait = 5 * time.Second
	cfg.ContentWait = 5 * time.Second
	cfg.ScrollSteps = 1
	cfg.ScrollDelayMin = 10 * time.Millisecond
	cfg.ScrollDelayMax = 20 * time.Millisecond

	reporter := &recordingReporter{}
	r := NewBrowserRenderer(cfg, reporter, nil)
	defer r.Close()

	doc, err := r.Render(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "11 990 ₽", doc.Find("span.price").Text())

	_, err = r.Render(context.Background(), srv.URL+"?broken=1")
	var structErr *StructuralError
	require.True(t, errors.As(err, &structErr), "expected StructuralError, got %v", err)
	require.Len(t, reporter.snaps, 1)
	assert.NotEmpty(t, reporter.snaps[0].Screenshot)
}

func TestClassifyWait(t *testing.T) {
	const url = "http://shop.test/phones"

	deadline := classifyWait(context.Background(), url, StageContent, 20*time.Second, context.DeadlineExceeded)
	var timeoutErr *TimeoutError
	require.True(t, errors.As(deadline, &timeoutErr), "expected TimeoutError, got %v", deadline)
	assert.Equal(t, StageContent, timeoutErr.Stage)
	assert.Equal(t, 20*time.Second, timeoutErr.Wait)
	assert.ErrorIs(t, deadline, context.DeadlineExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	canceled := classifyWait(ctx, url, StageLoadingIndicator, time.Second, context.DeadlineExceeded)
	assert.ErrorIs(t, canceled, context.Canceled)
	assert.False(t, errors.As(canceled, &timeoutErr))

	other := classifyWait(context.Background(), url, StageContent, time.Second, errors.New("element detached"))
	assert.False(t, errors.As(other, &timeoutErr))
	assert.Contains(t, other.Error(), "content wait failed")
}

func TestTolerateLoadTimeout(t *testing.T) {
	assert.NoError(t, tolerateLoadTimeout(nil, time.Second, nil))
	assert.NoError(t, tolerateLoadTimeout(fmt.Errorf("navigate: %w", context.DeadlineExceeded), time.Second, logger.Nop()))

	refused := errors.New("net::ERR_CONNECTION_REFUSED")
	err := tolerateLoadTimeout(refused, time.Second, logger.Nop())
	assert.ErrorIs(t, err, refused)
}

func TestCheckMarker(t *testing.T) {
	assert.NoError(t, checkMarker("http://shop.test", `<div class="container"></div>`, "container"))
	assert.NoError(t, checkMarker("http://shop.test", `<p>anything</p>`, ""))

	err := checkMarker("http://shop.test", `<p>captcha</p>`, "container")
	var structural *StructuralError
	require.True(t, errors.As(err, &structural))
	assert.Equal(t, "container", structural.Marker)
}

func TestFailWithoutPageReportsReason(t *testing.T) {
	reporter := &recordingReporter{}
	r := NewBrowserRenderer(config.DefaultHarvest(), reporter, nil)

	cause := errors.New("failed to open page: target closed")
	err := r.fail(nil, "http://shop.test/phones", StageSetup, cause)

	assert.Same(t, cause, err)
	require.Len(t, reporter.snaps, 1)
	snap := reporter.snaps[0]
	assert.Equal(t, StageSetup, snap.Stage)
	assert.Equal(t, cause.Error(), snap.Reason)
	assert.Empty(t, snap.Screenshot)
	assert.Empty(t, snap.HTML)
}
