package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1)
	defer limiter.Stop()
	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec1 := performRequest(r, http.MethodGet, "/", map[string]string{"User-Agent": "test"})
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec1.Code)
	}

	rec2 := performRequest(r, http.MethodGet, "/", map[string]string{"User-Agent": "test"})
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on rapid second request, got %d", rec2.Code)
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1)
	limiter.Stop()
	limiter.Stop()
}

func TestHarvestCooldown(t *testing.T) {
	r := gin.New()
	r.Use(HarvestCooldown(time.Hour))
	r.POST("/harvest", func(c *gin.Context) { c.String(http.StatusOK, "harvested") })

	rec1 := performRequest(r, http.MethodPost, "/harvest", nil)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first harvest to succeed, got %d", rec1.Code)
	}

	rec2 := performRequest(r, http.MethodPost, "/harvest", nil)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second harvest to be rejected, got %d", rec2.Code)
	}
	if rec2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestHarvestCooldownExpires(t *testing.T) {
	r := gin.New()
	r.Use(HarvestCooldown(10 * time.Millisecond))
	r.POST("/harvest", func(c *gin.Context) { c.String(http.StatusOK, "harvested") })

	performRequest(r, http.MethodPost, "/harvest", nil)
	time.Sleep(20 * time.Millisecond)

	rec := performRequest(r, http.MethodPost, "/harvest", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected harvest after window to succeed, got %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/api/health", func(c *gin.Context) { c.String(http.StatusOK, "headers") })

	rec := performRequest(r, http.MethodGet, "/api/health", map[string]string{"User-Agent": "test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	required := []string{"X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy", "Content-Security-Policy", "Strict-Transport-Security", "Cache-Control"}
	for _, header := range required {
		if rec.Header().Get(header) == "" {
			t.Fatalf("expected header %s to be set", header)
		}
	}
}

func TestAdminKeyMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash key: %v", err)
	}

	r := gin.New()
	r.POST("/admin", AdminKeyMiddleware(string(hash)), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"valid key", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.key != "" {
				headers["X-Admin-Key"] = tt.key
			}
			rec := performRequest(r, http.MethodPost, "/admin", headers)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAdminKeyMiddlewareDisabledWithoutHash(t *testing.T) {
	r := gin.New()
	r.POST("/admin", AdminKeyMiddleware(""), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := performRequest(r, http.MethodPost, "/admin", map[string]string{"X-Admin-Key": "anything"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when admin key is not configured, got %d", rec.Code)
	}
}

func TestSecurityScanDetection(t *testing.T) {
	r := gin.New()
	r.Use(SecurityScanDetection())
	r.GET("/.env", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := performRequest(r, http.MethodGet, "/.env?query=select", map[string]string{"User-Agent": "test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status for suspicious path: %d", rec.Code)
	}
}

func TestHTTPMethodFilter(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMethodFilter([]string{http.MethodGet}))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := performRequest(r, http.MethodPost, "/", map[string]string{"User-Agent": "test"})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for blocked method, got %d", rec.Code)
	}
}

func TestUserAgentFilter(t *testing.T) {
	r := gin.New()
	r.Use(UserAgentFilter())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	recSuspicious := performRequest(r, http.MethodGet, "/", map[string]string{"User-Agent": "sqlmap/1.7"})
	if recSuspicious.Code != http.StatusForbidden {
		t.Fatalf("expected forbidden for suspicious UA, got %d", recSuspicious.Code)
	}

	recOk := performRequest(r, http.MethodGet, "/", map[string]string{"User-Agent": "curl/8.0"})
	if recOk.Code != http.StatusOK {
		t.Fatalf("expected success for benign UA, got %d", recOk.Code)
	}

	recEmpty := performRequest(r, http.MethodGet, "/", nil)
	if recEmpty.Code != http.StatusOK {
		t.Fatalf("expected success for empty UA, got %d", recEmpty.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	rec := performRequest(r, http.MethodGet, "/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
