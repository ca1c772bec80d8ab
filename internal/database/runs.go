package database

import (
	"fmt"
	"time"

	"priceharvester/internal/models"
)

// SaveHarvestRun persists run and sets its ID
func (d *Database) SaveHarvestRun(run *models.HarvestRun) error {
	query := `
		INSERT INTO harvest_runs
		(started_at, finished_at, source, total_pages, failed_pages, total_price, total_products)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	source := run.Source
	if source == "" {
		source = models.RunSourceFresh
	}

	// total_price is stored as a signed SQLite integer
	res, err := d.db.Exec(query, run.StartedAt.UTC(), run.FinishedAt.UTC(), source,
		run.Summary.TotalPages, run.Summary.FailedPages,
		int64(run.Summary.TotalPrice), int64(run.Summary.TotalProducts))
	if err != nil {
		return fmt.Errorf("failed to save harvest run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get harvest run ID: %w", err)
	}
	run.ID = id
	return nil
}

// RecentHarvestRuns returns the newest runs first
func (d *Database) RecentHarvestRuns(limit int) ([]models.HarvestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT id, started_at, finished_at, source, total_pages, failed_pages, total_price, total_products
		FROM harvest_runs
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query harvest runs: %w", err)
	}
	defer rows.Close()

	var runs []models.HarvestRun
	for rows.Next() {
		var (
			run                  models.HarvestRun
			started, finished    time.Time
			totalPrice, products int64
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Source,
			&run.Summary.TotalPages, &run.Summary.FailedPages, &totalPrice, &products); err != nil {
			return nil, fmt.Errorf("failed to scan harvest run: %w", err)
		}
		run.StartedAt = started
		run.FinishedAt = finished
		run.Summary.TotalPrice = uint64(totalPrice)
		run.Summary.TotalProducts = uint64(products)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
