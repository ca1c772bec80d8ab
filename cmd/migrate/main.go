package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"priceharvester/internal/config"
	"priceharvester/internal/database"
	"priceharvester/internal/ingest"
	"priceharvester/internal/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Environment, true)
	log := logger.For("migrate")

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/migrate/main.go <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  init            - Initialize database with current schema")
		fmt.Println("  import <file>   - Import listings from an .xlsx workbook")
		fmt.Println("  status          - Show schema version and row counts")
		os.Exit(1)
	}

	db, err := database.NewDatabase(cfg.Server.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("Failed to open database")
	}
	defer db.Close()

	switch command := os.Args[1]; command {
	case "init":
		// NewDatabase applies the schema
		log.Info().Str("path", cfg.Server.DBPath).Msg("Database initialized")
	case "import":
		if len(os.Args) < 3 {
			log.Fatal().Msg("import needs a workbook path")
		}
		importWorkbook(db, os.Args[2], log)
	case "status":
		showStatus(db, log)
	default:
		log.Fatal().Str("command", command).Msg("Unknown command")
	}
}

func importWorkbook(db *database.Database, path string, log *logger.Logger) {
	listings, rep, err := ingest.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to read workbook")
	}

	inserted, err := db.InsertListings(listings)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to import listings")
	}
	log.Info().
		Int64("inserted", inserted).
		Int("rows", rep.Rows).
		Int("skipped", rep.Skipped).
		Msg("Workbook imported")
}

func showStatus(db *database.Database, log *logger.Logger) {
	version, err := db.SchemaVersion()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read schema version")
	}
	listings, err := db.CountListings()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count listings")
	}
	runs, err := db.RecentHarvestRuns(1)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read harvest runs")
	}

	fmt.Printf("Schema version: %s\n", version)
	fmt.Printf("Listings: %d\n", listings)
	if len(runs) == 0 {
		fmt.Println("Last harvest: never")
		return
	}
	last := runs[0]
	fmt.Printf("Last harvest: %s (%d products over %d pages, %d failed)\n",
		last.FinishedAt.Format("2006-01-02 15:04:05"), last.Summary.TotalProducts, last.Summary.TotalPages, last.Summary.FailedPages)
}
