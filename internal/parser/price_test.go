package parser

import (
	"errors"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    uint64
		wantErr error
	}{
		{"rubles", "11 990 ₽", 11990, nil},
		{"nbsp", "11 990 ₽", 11990, nil},
		{"plain", "999", 999, nil},
		{"decimalSeparatorDropped", "1 299,50 ₽", 129950, nil},
		{"dash", "—", 0, ErrMissingPrice},
		{"empty", "", 0, ErrMissingPrice},
		{"lettersOnly", "Нет в наличии", 0, ErrMissingPrice},
		{"overflow", "99999999999999999999999", 0, ErrPriceOutOfRange},
		{"nonASCIIDigits", "١٢٣", 0, ErrMissingPrice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePrice(tc.raw)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected error %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestPriceFromHTML(t *testing.T) {
	got, err := PriceFromHTML(`<span class="price">14 490 <span class="rub">₽</span></span>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 14490 {
		t.Fatalf("expected 14490, got %d", got)
	}

	if _, err := PriceFromHTML("   "); !errors.Is(err, ErrMissingPrice) {
		t.Fatalf("expected missing price for blank fragment, got %v", err)
	}
	if _, err := PriceFromHTML("<div>нет цены</div>"); !errors.Is(err, ErrMissingPrice) {
		t.Fatalf("expected missing price for text without digits, got %v", err)
	}
}
