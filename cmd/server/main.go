// Price Harvester API
// @title Price Harvester API
// @version 1.0
// @description Uploads listing spreadsheets and harvests catalog prices with a pool of headless browser sessions
// @host localhost:8080
// @BasePath /

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	_ "priceharvester/docs"
	"priceharvester/internal/cache"
	"priceharvester/internal/config"
	"priceharvester/internal/database"
	"priceharvester/internal/handlers"
	"priceharvester/internal/harvest"
	"priceharvester/internal/logger"
	"priceharvester/internal/middleware"
	"priceharvester/internal/publisher"
	"priceharvester/internal/render"
	"priceharvester/internal/report"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Environment, cfg.Environment != "production")
	log := logger.For("server")
	if envErr != nil {
		log.Debug().Msg("No .env file found")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	db, err := database.NewDatabase(cfg.Server.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("Failed to open database")
	}
	defer db.Close()

	renderer, closeRenderer, err := render.New(cfg.Harvest, logger.For("render"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create renderer")
	}
	defer func() {
		if err := closeRenderer(); err != nil {
			log.Error().Err(err).Msg("Failed to close renderer")
		}
	}()

	metrics := harvest.NewMetrics()
	harvester, err := harvest.NewHarvester(cfg.Harvest, renderer, metrics, logger.For("harvest"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create harvester")
	}

	var pub publisher.Publisher
	if cfg.Publisher.RedisAddr != "" {
		redisPub := publisher.NewRedisPublisher(cfg.Publisher.RedisAddr, cfg.Publisher.RedisDB, cfg.Publisher.RedisStream, cfg.Publisher.RedisMaxLen)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisPub.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Publisher.RedisAddr).Msg("Redis unreachable, runs will not be published until it recovers")
		}
		cancel()
		defer redisPub.Close()
		pub = redisPub
	}

	store := cache.New(cfg.Cache, logger.For("cache"))
	service := report.NewService(harvester, cfg.Harvest.ListingURL, store, db, pub, logger.For("report"))
	harvestHandler := handlers.NewHarvestHandler(db, service, cfg.Server.UploadDir, cfg.Server.MaxUploadBytes)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.HTTPMethodFilter([]string{http.MethodGet, http.MethodPost, http.MethodOptions}))
	r.Use(middleware.SecurityScanDetection())
	r.Use(middleware.UserAgentFilter())
	r.Use(middleware.SecurityHeaders())

	// Configure trusted proxies
	r.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
		"172.16.0.0/12",  // Docker networks
		"10.0.0.0/8",     // Private networks
		"192.168.0.0/16", // Private networks
	})

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Admin-Key"}
	r.Use(cors.New(corsConfig))

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	defer limiter.Stop()

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.Server.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter))
	{
		api.GET("/health", harvestHandler.Health)
		api.POST("/upload", harvestHandler.Upload)
		api.GET("/listings", harvestHandler.ListListings)
		api.GET("/harvest", harvestHandler.GetHarvest)
		api.GET("/harvest/runs", harvestHandler.ListRuns)
		api.POST("/harvest",
			middleware.AdminKeyMiddleware(cfg.Server.AdminKeyHash),
			middleware.HarvestCooldown(cfg.Server.HarvestCooldown),
			harvestHandler.ForceHarvest,
		)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("renderer", cfg.Harvest.Renderer).Int("workers", cfg.Harvest.Workers).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
