package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"150 MAD", "150"},
		{"150-300 MAD/h", "150"},
		{"À partir de 200 DH", "200"},
		{"99,50 MAD", "99.5"},
		{"12.5", "12.5"},
		{"1,500 MAD", "1500"},
		{"1 500 MAD", "1500"},
		{"1\u00a0500 MAD", "1500"},
		{"1.500 DH", "1500"},
		{"1,500.50 MAD", "1500.5"},
		{"1.234.567,25 MAD", "1234567.25"},
		{"1 500-3 000 MAD", "1500"},
		{"350", "350"},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.price)
		if err != nil {
			t.Errorf("ParsePrice(%q): %v", tt.price, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParsePrice(%q) = %s, want %s", tt.price, got, tt.want)
		}
	}
}

func TestParsePriceRejects(t *testing.T) {
	for _, price := range []string{"", "sur devis", "0 MAD", "0,00"} {
		_, err := ParsePrice(price)
		if !IsKind(err, KindInvalidAmount) {
			t.Errorf("ParsePrice(%q) error = %v, want InvalidAmount", price, err)
		}
	}
}

func TestToSettlement(t *testing.T) {
	c, err := NewCurrencyConverter("mad", "usd", 10)
	if err != nil {
		t.Fatal(err)
	}
	if c.Home != "MAD" || c.Settlement != "USD" {
		t.Errorf("currencies = %s/%s", c.Home, c.Settlement)
	}
	if got := c.ToSettlement(decimal.NewFromInt(150)); !got.Equal(decimal.NewFromInt(15)) {
		t.Errorf("150 MAD = %s USD, want 15", got)
	}
	if got := c.ToSettlement(decimal.RequireFromString("99.99")); !got.Equal(decimal.RequireFromString("10")) {
		t.Errorf("99.99 MAD = %s USD, want 10.00", got)
	}

	same, _ := NewCurrencyConverter("EUR", "EUR", 1)
	if got := same.ToSettlement(decimal.RequireFromString("12.5")); !got.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("identity conversion = %s", got)
	}
}

func TestNewCurrencyConverterRejectsBadRate(t *testing.T) {
	for _, rate := range []float64{0, -3} {
		if _, err := NewCurrencyConverter("MAD", "USD", rate); err == nil {
			t.Errorf("rate %v accepted", rate)
		}
	}
}
