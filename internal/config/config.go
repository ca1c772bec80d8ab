package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RendererBrowser = "browser"
	RendererStatic  = "static"
)

// Selectors are the CSS selectors that describe a listing site's markup
type Selectors struct {
	LoadingIndicators string
	ContentItem       string
	ProductContainer  string
	Price             string
	PaginationSummary string
}

// Harvest holds everything the harvester and the renderers need
type Harvest struct {
	ListingURL string
	SummaryURL string
	PageParam  string
	PageOffset int

	Workers        int
	MaxPages       int
	HarvestTimeout time.Duration

	PageLoadTimeout time.Duration
	LoaderWait      time.Duration
	ContentWait     time.Duration
	ScrollSteps     int
	ScrollDelayMin  time.Duration
	ScrollDelayMax  time.Duration

	StructuralMarker string
	Selectors        Selectors

	Renderer    string
	Headless    bool
	BrowserBin  string
	Locale      string
	SnapshotDir string
}

// Server holds HTTP front-end settings
type Server struct {
	Port            string
	DBPath          string
	UploadDir       string
	MaxUploadBytes  int64
	AdminKeyHash    string
	RateLimit       float64
	RateBurst       int
	HarvestCooldown time.Duration
	MetricsEnabled  bool
}

// Cache selects and sizes the harvest result cache
type Cache struct {
	MemcacheAddr string
	CacheFile    string
	TTL          time.Duration
	Size         int
}

// Publisher configures the Redis stream that receives finished runs
type Publisher struct {
	RedisAddr   string
	RedisDB     int
	RedisStream string
	RedisMaxLen int64
}

// Config is the complete application configuration
type Config struct {
	Harvest     Harvest
	Server      Server
	Cache       Cache
	Publisher   Publisher
	LogLevel    string
	Environment string
}

// DefaultHarvest returns the settings for the onlinetrade.ru smartphone catalogue
func DefaultHarvest() Harvest {
	listing := "https://www.onlinetrade.ru/catalogue/smartfony-c13/?producer%5B0%5D=XIAOMI&advanced_search=1"
	return Harvest{
		ListingURL:       listing,
		SummaryURL:       listing,
		PageParam:        "page",
		PageOffset:       0,
		Workers:          4,
		MaxPages:         500,
		HarvestTimeout:   10 * time.Minute,
		PageLoadTimeout:  45 * time.Second,
		LoaderWait:       30 * time.Second,
		ContentWait:      20 * time.Second,
		ScrollSteps:      2,
		ScrollDelayMin:   300 * time.Millisecond,
		ScrollDelayMax:   1200 * time.Millisecond,
		StructuralMarker: "container",
		Selectors: Selectors{
			LoadingIndicators: ".spinner, .load, [class*='loading'], [id*='loader']",
			ContentItem:       ".indexGoods__item",
			ProductContainer:  "div.indexGoods__item",
			Price:             "span.price",
			PaginationSummary: "div.paginator__count",
		},
		Renderer: RendererBrowser,
		Headless: true,
		Locale:   "ru-RU",
	}
}

// DefaultConfig returns defaults for every section
func DefaultConfig() *Config {
	return &Config{
		Harvest: DefaultHarvest(),
		Server: Server{
			Port:            "8080",
			DBPath:          "./data/prices.db",
			UploadDir:       "./data/uploads",
			MaxUploadBytes:  10 << 20,
			RateLimit:       2,
			RateBurst:       10,
			HarvestCooldown: 5 * time.Minute,
			MetricsEnabled:  true,
		},
		Cache: Cache{
			TTL:  30 * time.Minute,
			Size: 64,
		},
		Publisher: Publisher{
			RedisStream: "harvest:runs",
			RedisMaxLen: 1000,
		},
		Environment: "development",
	}
}

// Load reads the configuration from environment variables on top of the defaults
func Load() *Config {
	cfg := DefaultConfig()
	h := &cfg.Harvest

	h.ListingURL = getEnv("HARVEST_LISTING_URL", h.ListingURL)
	h.PageParam = getEnv("HARVEST_PAGE_PARAM", h.PageParam)
	h.PageOffset = getInt("HARVEST_PAGE_OFFSET", h.PageOffset)
	h.SummaryURL = getEnv("HARVEST_SUMMARY_URL", SummaryURLFor(h.ListingURL, h.PageOffset))
	h.Workers = getInt("HARVEST_WORKERS", h.Workers)
	h.MaxPages = getInt("HARVEST_MAX_PAGES", h.MaxPages)
	h.HarvestTimeout = getDuration("HARVEST_TIMEOUT", h.HarvestTimeout)
	h.PageLoadTimeout = getDuration("HARVEST_PAGE_LOAD_TIMEOUT", h.PageLoadTimeout)
	h.LoaderWait = getDuration("HARVEST_LOADER_WAIT", h.LoaderWait)
	h.ContentWait = getDuration("HARVEST_CONTENT_WAIT", h.ContentWait)
	h.ScrollSteps = getInt("HARVEST_SCROLL_STEPS", h.ScrollSteps)
	h.ScrollDelayMin = getDuration("HARVEST_SCROLL_DELAY_MIN", h.ScrollDelayMin)
	h.ScrollDelayMax = getDuration("HARVEST_SCROLL_DELAY_MAX", h.ScrollDelayMax)
	h.StructuralMarker = getEnv("HARVEST_STRUCTURAL_MARKER", h.StructuralMarker)
	h.Selectors.LoadingIndicators = getEnv("HARVEST_SELECTOR_LOADING", h.Selectors.LoadingIndicators)
	h.Selectors.ContentItem = getEnv("HARVEST_SELECTOR_CONTENT", h.Selectors.ContentItem)
	h.Selectors.ProductContainer = getEnv("HARVEST_SELECTOR_PRODUCT", h.Selectors.ProductContainer)
	h.Selectors.Price = getEnv("HARVEST_SELECTOR_PRICE", h.Selectors.Price)
	h.Selectors.PaginationSummary = getEnv("HARVEST_SELECTOR_PAGINATION", h.Selectors.PaginationSummary)
	h.Renderer = getEnv("HARVEST_RENDERER", h.Renderer)
	h.Headless = getBool("HARVEST_HEADLESS", h.Headless)
	h.BrowserBin = getEnv("HARVEST_BROWSER_BIN", h.BrowserBin)
	h.Locale = getEnv("HARVEST_LOCALE", h.Locale)
	h.SnapshotDir = getEnv("HARVEST_SNAPSHOT_DIR", h.SnapshotDir)

	s := &cfg.Server
	s.Port = getEnv("PORT", s.Port)
	s.DBPath = getEnv("DB_PATH", s.DBPath)
	s.UploadDir = getEnv("UPLOAD_DIR", s.UploadDir)
	s.MaxUploadBytes = int64(getInt("MAX_UPLOAD_BYTES", int(s.MaxUploadBytes)))
	s.AdminKeyHash = getEnv("ADMIN_KEY_HASH", s.AdminKeyHash)
	s.RateLimit = getFloat("RATE_LIMIT", s.RateLimit)
	s.RateBurst = getInt("RATE_BURST", s.RateBurst)
	s.HarvestCooldown = getDuration("HARVEST_COOLDOWN", s.HarvestCooldown)
	s.MetricsEnabled = getBool("METRICS_ENABLED", s.MetricsEnabled)

	cfg.Cache.MemcacheAddr = getEnv("MEMCACHE_ADDR", cfg.Cache.MemcacheAddr)
	cfg.Cache.CacheFile = getEnv("CACHE_FILE", cfg.Cache.CacheFile)
	cfg.Cache.TTL = getDuration("CACHE_TTL", cfg.Cache.TTL)
	cfg.Cache.Size = getInt("CACHE_SIZE", cfg.Cache.Size)

	cfg.Publisher.RedisAddr = getEnv("REDIS_ADDR", cfg.Publisher.RedisAddr)
	cfg.Publisher.RedisDB = getInt("REDIS_DB", cfg.Publisher.RedisDB)
	cfg.Publisher.RedisStream = getEnv("REDIS_STREAM", cfg.Publisher.RedisStream)
	cfg.Publisher.RedisMaxLen = int64(getInt("REDIS_STREAM_MAXLEN", int(cfg.Publisher.RedisMaxLen)))

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Environment = getEnv("HARVEST_ENVIRONMENT", cfg.Environment)

	return cfg
}

// SummaryURLFor is the page whose summary element gives the item count: the
// listing URL itself, or its first page when it carries a {page} placeholder
func SummaryURLFor(listingURL string, pageOffset int) string {
	return strings.ReplaceAll(listingURL, "{page}", strconv.Itoa(pageOffset))
}

// Validate ensures the harvest settings are coherent
func (h *Harvest) Validate() error {
	if h.ListingURL == "" {
		return fmt.Errorf("listing URL cannot be empty")
	}
	parsed, err := url.Parse(strings.ReplaceAll(h.ListingURL, "{page}", "0"))
	if err != nil {
		return fmt.Errorf("invalid listing URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("listing URL must include a host")
	}
	if h.SummaryURL == "" {
		return fmt.Errorf("summary URL cannot be empty")
	}
	if strings.Contains(h.SummaryURL, "{page}") {
		return fmt.Errorf("summary URL cannot contain a {page} placeholder")
	}
	if h.PageParam == "" && !strings.Contains(h.ListingURL, "{page}") {
		return fmt.Errorf("page param cannot be empty without a {page} placeholder")
	}
	if h.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if h.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if h.HarvestTimeout < 0 {
		return fmt.Errorf("harvest timeout cannot be negative")
	}
	if h.PageLoadTimeout <= 0 {
		return fmt.Errorf("page load timeout must be positive")
	}
	if h.LoaderWait <= 0 {
		return fmt.Errorf("loader wait must be positive")
	}
	if h.ContentWait <= 0 {
		return fmt.Errorf("content wait must be positive")
	}
	if h.ScrollSteps < 0 {
		return fmt.Errorf("scroll steps cannot be negative")
	}
	if h.ScrollDelayMin < 0 || h.ScrollDelayMax < h.ScrollDelayMin {
		return fmt.Errorf("scroll delay range [%s, %s] is invalid", h.ScrollDelayMin, h.ScrollDelayMax)
	}
	if h.Selectors.ProductContainer == "" || h.Selectors.Price == "" {
		return fmt.Errorf("product and price selectors are required")
	}
	if h.Selectors.PaginationSummary == "" {
		return fmt.Errorf("pagination selector is required")
	}
	if h.Renderer != RendererBrowser && h.Renderer != RendererStatic {
		return fmt.Errorf("renderer must be %s or %s", RendererBrowser, RendererStatic)
	}
	return nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Harvest.Validate(); err != nil {
		return err
	}
	if c.Server.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Server.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

// getDuration accepts Go duration strings ("45s") or bare seconds ("45")
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
