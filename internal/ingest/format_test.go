package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"priceharvester/internal/models"
)

func TestFormatListings(t *testing.T) {
	rows := []models.Listing{
		{Title: "Xiaomi 13T", URL: "https://shop.test/13t", XPath: `<span class="price">39 990 ₽</span>`},
		{Title: "No link", URL: "", XPath: "<span>100</span>"},
		{Title: "No price", URL: "https://shop.test/np", XPath: "<span>—</span>"},
		{Title: "", URL: "https://shop.test/untitled", XPath: "<span>5</span>"},
		{Title: "Poco X6", URL: "https://shop.test/x6", XPath: "<b>24 990</b> ₽"},
	}

	text, skipped := FormatListings(rows)

	want := "1. Xiaomi 13T\nLink: https://shop.test/13t\nPrice: 39990\n" +
		"2. Poco X6\nLink: https://shop.test/x6\nPrice: 24990\n"
	assert.Equal(t, want, text)
	assert.Equal(t, 3, skipped)
}

func TestFormatListingsNothingPrintable(t *testing.T) {
	text, skipped := FormatListings([]models.Listing{{Title: "x"}})
	assert.Equal(t, NoDataMessage, text)
	assert.Equal(t, 1, skipped)

	text, skipped = FormatListings(nil)
	assert.Equal(t, NoDataMessage, text)
	assert.Zero(t, skipped)
}
