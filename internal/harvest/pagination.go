package harvest

import (
	"context"
	"fmt"
	"strings"

	"priceharvester/internal/models"
	"priceharvester/internal/parser"
	"priceharvester/internal/render"
)

// DiscoverPagination renders the summary page and reads the "shown A-B of N"
// element. Every failure, including a failed render or a page count above
// maxPages, is a *PaginationError. maxPages <= 0 disables the cap.
func DiscoverPagination(ctx context.Context, renderer render.Renderer, summaryURL, selector string, maxPages int) (models.PaginationInfo, error) {
	doc, err := renderer.Render(ctx, summaryURL)
	if err != nil {
		return models.PaginationInfo{}, &PaginationError{URL: summaryURL, Reason: "summary page could not be rendered", Err: err}
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return models.PaginationInfo{}, &PaginationError{URL: summaryURL, Reason: "pagination element " + selector + " not found"}
	}

	info, err := parser.ParsePagination(strings.TrimSpace(sel.Text()))
	if err != nil {
		return models.PaginationInfo{}, &PaginationError{URL: summaryURL, Reason: "unparseable pagination text", Err: err}
	}
	if maxPages > 0 && info.TotalPages > maxPages {
		return models.PaginationInfo{}, &PaginationError{
			URL:    summaryURL,
			Reason: fmt.Sprintf("%d pages exceeds the limit of %d", info.TotalPages, maxPages),
		}
	}
	return info, nil
}
