package database

import (
	"fmt"

	"priceharvester/internal/models"
)

// InsertListings stores rows in a single transaction and returns how many
// were written. Row IDs are filled in on success.
func (d *Database) InsertListings(rows []models.Listing) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO listings (title, url, xpath) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(rows))
	for i, row := range rows {
		res, err := stmt.Exec(row.Title, nullable(row.URL), nullable(row.XPath))
		if err != nil {
			return 0, fmt.Errorf("failed to insert listing %q: %w", row.Title, err)
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return 0, fmt.Errorf("failed to get listing ID: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for i := range rows {
		rows[i].ID = ids[i]
	}
	return int64(len(rows)), nil
}

// ListListings returns stored rows in insertion order. limit <= 0 means all.
func (d *Database) ListListings(limit int) ([]models.Listing, error) {
	query := `SELECT id, title, COALESCE(url, ''), COALESCE(xpath, '') FROM listings ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.URL, &l.XPath); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// CountListings returns the number of stored rows
func (d *Database) CountListings() (int, error) {
	var count int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count listings: %w", err)
	}
	return count, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
