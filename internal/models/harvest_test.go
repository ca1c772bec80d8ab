package models

import "testing"

func TestHarvestSummaryAveragePrice(t *testing.T) {
	cases := []struct {
		name    string
		summary HarvestSummary
		want    float64
		wantOK  bool
	}{
		{"noProducts", HarvestSummary{TotalPrice: 100}, 0, false},
		{"exact", HarvestSummary{TotalPrice: 30, TotalProducts: 3}, 10, true},
		{"rounded", HarvestSummary{TotalPrice: 10, TotalProducts: 3}, 3.33, true},
		{"roundsUp", HarvestSummary{TotalPrice: 20, TotalProducts: 3}, 6.67, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.summary.AveragePrice()
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if got != tc.want {
				t.Fatalf("expected average %v, got %v", tc.want, got)
			}
		})
	}
}
