package ingest

import (
	"fmt"
	"strings"

	"priceharvester/internal/models"
	"priceharvester/internal/parser"
)

// NoDataMessage is returned by FormatListings when no row can be printed
const NoDataMessage = "No data found"

// FormatListings renders rows as a numbered list:
//
//	1. <title>
//	Link: <url>
//	Price: <price>
//
// Rows without a title, a url or a parseable price are left out and counted
// in skipped. Numbering follows the printed rows.
func FormatListings(rows []models.Listing) (text string, skipped int) {
	var b strings.Builder
	n := 0
	for _, row := range rows {
		if row.Title == "" || row.URL == "" {
			skipped++
			continue
		}
		price, err := parser.PriceFromHTML(row.XPath)
		if err != nil {
			skipped++
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s\nLink: %s\nPrice: %d\n", n, row.Title, row.URL, price)
	}

	if n == 0 {
		return NoDataMessage, skipped
	}
	return b.String(), skipped
}
