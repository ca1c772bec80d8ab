// Package ingest reads uploaded price spreadsheets and renders them as text
package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"priceharvester/internal/models"
	"priceharvester/internal/validation"
)

// MissingColumnsError lists required headers the workbook lacks
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("spreadsheet is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Report describes what happened to the data rows of a workbook
type Report struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// ReadFile opens path and reads it with Read
func ReadFile(path string) ([]models.Listing, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses the first sheet of an .xlsx workbook. The header row must name
// title, url and xpath in any order and case; other columns are ignored.
// Blank rows are dropped silently, rows without a title are counted as skipped.
func Read(r io.Reader) ([]models.Listing, Report, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, Report{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, Report{}, &MissingColumnsError{Missing: validation.MissingColumns(nil)}
	}

	header := rows[0]
	if missing := validation.MissingColumns(header); len(missing) > 0 {
		return nil, Report{}, &MissingColumnsError{Missing: missing}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}

	var (
		listings []models.Listing
		report   Report
	)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		report.Rows++

		listing := models.Listing{
			Title: cell(row, index["title"]),
			URL:   cell(row, index["url"]),
			XPath: cell(row, index["xpath"]),
		}
		if listing.Title == "" {
			report.Skipped++
			continue
		}
		listings = append(listings, listing)
	}

	return listings, report, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
