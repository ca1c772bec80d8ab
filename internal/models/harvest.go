package models

import (
	"math"
	"time"
)

// ProductPriceRecord is a single product's raw price text as found on a listing page
type ProductPriceRecord struct {
	RawPriceText string `json:"rawPriceText"`
}

// PaginationInfo describes how many listing pages a harvest has to visit
type PaginationInfo struct {
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
}

// PageResult is the contribution of one listing page. A failed page always
// carries zero sums.
type PageResult struct {
	PageIndex    int    `json:"pageIndex"`
	SumPrice     uint64 `json:"sumPrice"`
	ProductCount uint64 `json:"productCount"`
	Failed       bool   `json:"failed"`
	ErrorKind    string `json:"errorKind,omitempty"`
	Err          error  `json:"-"`
}

// HarvestSummary is the reduced outcome of a whole harvest
type HarvestSummary struct {
	TotalPrice    uint64 `json:"totalPrice"`
	TotalProducts uint64 `json:"totalProducts"`
	TotalPages    int    `json:"totalPages"`
	FailedPages   int    `json:"failedPages"`
}

// AveragePrice returns totalPrice/totalProducts rounded to two decimals.
// ok is false when no product was counted.
func (s HarvestSummary) AveragePrice() (avg float64, ok bool) {
	if s.TotalProducts == 0 {
		return 0, false
	}
	raw := float64(s.TotalPrice) / float64(s.TotalProducts)
	return math.Round(raw*100) / 100, true
}

// HarvestRun is a persisted harvest with its timing
type HarvestRun struct {
	ID         int64          `json:"id"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Source     string         `json:"source"`
	Summary    HarvestSummary `json:"summary"`
}

const (
	RunSourceFresh = "fresh"
	RunSourceCache = "cache"
)
