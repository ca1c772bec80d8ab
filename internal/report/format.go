package report

import (
	"fmt"
	"strings"

	"priceharvester/internal/models"
)

// FormatSummary renders a run for people. The average is omitted when no
// product was counted.
func FormatSummary(run models.HarvestRun) string {
	s := run.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "Total products: %d\n", s.TotalProducts)
	if avg, ok := s.AveragePrice(); ok {
		fmt.Fprintf(&b, "Average price: %.2f\n", avg)
	} else {
		b.WriteString("Average price: n/a\n")
	}
	fmt.Fprintf(&b, "Pages: %d (failed: %d)\n", s.TotalPages, s.FailedPages)
	if run.Source == models.RunSourceCache {
		fmt.Fprintf(&b, "Cached result from %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

// Response is the JSON view of a run used by the HTTP API
type Response struct {
	TotalProducts uint64   `json:"totalProducts"`
	TotalPrice    uint64   `json:"totalPrice"`
	AveragePrice  *float64 `json:"averagePrice"`
	TotalPages    int      `json:"totalPages"`
	FailedPages   int      `json:"failedPages"`
	Source        string   `json:"source"`
	StartedAt     string   `json:"startedAt"`
	FinishedAt    string   `json:"finishedAt"`
	Text          string   `json:"text"`
}

// NewResponse builds the API view of run
func NewResponse(run models.HarvestRun) Response {
	resp := Response{
		TotalProducts: run.Summary.TotalProducts,
		TotalPrice:    run.Summary.TotalPrice,
		TotalPages:    run.Summary.TotalPages,
		FailedPages:   run.Summary.FailedPages,
		Source:        run.Source,
		StartedAt:     run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		FinishedAt:    run.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Text:          FormatSummary(run),
	}
	if avg, ok := run.Summary.AveragePrice(); ok {
		resp.AveragePrice = &avg
	}
	return resp
}
