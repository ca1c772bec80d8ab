package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"priceharvester/internal/logger"
)

// httpLog resolves the logger per call so it follows a later logger.Init
func httpLog() *logger.Logger { return logger.For("http") }

// RateLimiter stores rate limiters for each IP
type RateLimiter struct {
	visitors map[string]*visitor
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		done:     make(chan struct{}),
	}

	// Clean up old entries every minute
	go rl.cleanupVisitors()

	return rl
}

// GetLimiter returns the rate limiter for the given IP
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// cleanupVisitors removes old entries from the visitors map
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware creates a rate limiting middleware
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)

		if !l.Allow() {
			httpLog().Warn().Str("ip", ip).Msg("Rate limit exceeded")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Please slow down your requests",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// HarvestCooldown lets a forced harvest through at most once per window.
// The window is claimed before the harvest runs so concurrent callers are
// turned away instead of queueing behind it.
func HarvestCooldown(window time.Duration) gin.HandlerFunc {
	var (
		lastHarvest time.Time
		mu          sync.Mutex
	)

	return func(c *gin.Context) {
		mu.Lock()
		if since := time.Since(lastHarvest); !lastHarvest.IsZero() && since < window {
			mu.Unlock()
			remaining := window - since
			c.Header("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())+1))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Harvest too frequent",
				"message": fmt.Sprintf("Please wait %d seconds before harvesting again", int(remaining.Seconds())+1),
			})
			c.Abort()
			return
		}
		lastHarvest = time.Now()
		mu.Unlock()

		c.Next()
	}
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")

		// The swagger UI needs its own inline assets
		if strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
			c.Header("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		} else {
			c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}

		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Server", "")

		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Header("Cache-Control", "no-store")
		}

		c.Next()
	}
}

// AdminKeyMiddleware protects admin endpoints. The configured value is a
// bcrypt hash of the key; an empty hash disables the endpoint entirely.
func AdminKeyMiddleware(adminKeyHash string) gin.HandlerFunc {
	hash := []byte(adminKeyHash)

	return func(c *gin.Context) {
		if len(hash) == 0 {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Admin access is not configured",
			})
			c.Abort()
			return
		}

		key := c.GetHeader("X-Admin-Key")
		if key == "" || bcrypt.CompareHashAndPassword(hash, []byte(key)) != nil {
			httpLog().Warn().Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("Rejected admin request")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Unauthorized",
				"message": "Admin access required",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SecurityScanDetection logs suspicious requests for fail2ban
func SecurityScanDetection() gin.HandlerFunc {
	suspiciousPaths := []string{
		".env", ".git", ".DS_Store", "wp-admin", "phpmyadmin",
		".htaccess", "config.php", "wp-config.php", ".ssh", "id_rsa",
		".bak", ".sql", "credentials",
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		ip := c.ClientIP()

		for _, suspicious := range suspiciousPaths {
			if strings.Contains(path, suspicious) {
				httpLog().Warn().Str("ip", ip).Str("method", c.Request.Method).Str("path", path).Msg("Security scan attempt")
				break
			}
		}

		query := strings.ToLower(c.Request.URL.RawQuery)
		for _, keyword := range []string{"union", "select", "drop", "insert"} {
			if strings.Contains(query, keyword) {
				httpLog().Warn().Str("ip", ip).Str("query", c.Request.URL.RawQuery).Msg("SQL injection attempt")
				break
			}
		}

		c.Next()
	}
}

// HTTPMethodFilter restricts allowed HTTP methods
func HTTPMethodFilter(allowedMethods []string) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, method := range allowedMethods {
		allowed[method] = true
	}

	return func(c *gin.Context) {
		if !allowed[c.Request.Method] {
			httpLog().Warn().Str("method", c.Request.Method).Str("ip", c.ClientIP()).Msg("Blocked HTTP method")
			c.JSON(http.StatusMethodNotAllowed, gin.H{
				"error": "Method not allowed",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserAgentFilter blocks known attack tools
func UserAgentFilter() gin.HandlerFunc {
	suspiciousAgents := []string{
		"sqlmap", "nikto", "nmap", "masscan", "gobuster",
		"dirb", "dirbuster", "w3af", "havij",
	}

	return func(c *gin.Context) {
		userAgent := strings.ToLower(c.GetHeader("User-Agent"))

		for _, suspicious := range suspiciousAgents {
			if strings.Contains(userAgent, suspicious) {
				httpLog().Warn().Str("ip", c.ClientIP()).Str("user_agent", userAgent).Msg("Blocked suspicious user agent")
				c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// RequestLogger writes one structured line per request
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		log := httpLog()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("Request handled")
	}
}
