package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"priceharvester/internal/config"
	"priceharvester/internal/database"
	"priceharvester/internal/harvest"
	"priceharvester/internal/logger"
	"priceharvester/internal/render"
	"priceharvester/internal/report"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	workers := flag.Int("workers", cfg.Harvest.Workers, "Maximum concurrent browser sessions")
	renderer := flag.String("renderer", cfg.Harvest.Renderer, "Page renderer: browser or static")
	timeout := flag.Duration("timeout", cfg.Harvest.HarvestTimeout, "Overall harvest timeout (0 disables)")
	listingURL := flag.String("url", cfg.Harvest.ListingURL, "Listing URL to harvest")
	snapshots := flag.String("snapshots", cfg.Harvest.SnapshotDir, "Directory for failure screenshots")
	save := flag.Bool("save", false, "Record the run in the database")
	asJSON := flag.Bool("json", false, "Print the summary as JSON")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logger.Init(level, cfg.Environment, true)
	log := logger.For("harvest-cli")

	cfg.Harvest.Workers = *workers
	cfg.Harvest.Renderer = *renderer
	cfg.Harvest.HarvestTimeout = *timeout
	cfg.Harvest.SnapshotDir = *snapshots
	if *listingURL != cfg.Harvest.ListingURL {
		cfg.Harvest.ListingURL = *listingURL
		cfg.Harvest.SummaryURL = config.SummaryURLFor(*listingURL, cfg.Harvest.PageOffset)
	}
	if err := cfg.Harvest.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	r, closeRenderer, err := render.New(cfg.Harvest, logger.For("render"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create renderer")
	}
	defer closeRenderer()

	harvester, err := harvest.NewHarvester(cfg.Harvest, r, nil, logger.For("harvest"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create harvester")
	}

	var runs report.RunStore
	if *save {
		db, err := database.NewDatabase(cfg.Server.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("Failed to open database")
		}
		defer db.Close()
		runs = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	service := report.NewService(harvester, cfg.Harvest.ListingURL, nil, runs, nil, log)
	run := service.Harvest(ctx, true)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.NewResponse(run)); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode summary")
		}
	} else {
		fmt.Print(report.FormatSummary(run))
	}

	if run.Summary.TotalPages > 0 && run.Summary.FailedPages == run.Summary.TotalPages {
		os.Exit(1)
	}
}
