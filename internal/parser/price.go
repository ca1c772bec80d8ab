package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrMissingPrice means the text held no decimal digits at all
	ErrMissingPrice = errors.New("missing price")
	// ErrPriceOutOfRange means the digits do not fit in a uint64
	ErrPriceOutOfRange = errors.New("price out of range")
)

// ParsePrice keeps only the ASCII decimal digits of raw and reads them as an
// integer, so "11 990 ₽" becomes 11990. Decimal separators are dropped along
// with everything else.
func ParsePrice(raw string) (uint64, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, ErrMissingPrice
	}

	v, err := strconv.ParseUint(b.String(), 10, 64)
	if err != nil {
		return 0, ErrPriceOutOfRange
	}
	return v, nil
}

// PriceFromHTML extracts the visible text of an HTML fragment and parses it
// as a price
func PriceFromHTML(fragment string) (uint64, error) {
	if strings.TrimSpace(fragment) == "" {
		return 0, ErrMissingPrice
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return 0, err
	}
	return ParsePrice(doc.Text())
}
