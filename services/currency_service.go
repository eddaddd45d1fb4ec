package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyConverter applies a fixed rate: Rate units of Home buy one unit of Settlement.
type CurrencyConverter struct {
	Home       string
	Settlement string
	Rate       decimal.Decimal
}

func NewCurrencyConverter(home, settlement string, rate float64) (*CurrencyConverter, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("conversion rate must be positive, got %v", rate)
	}
	return &CurrencyConverter{
		Home:       strings.ToUpper(home),
		Settlement: strings.ToUpper(settlement),
		Rate:       decimal.NewFromFloat(rate),
	}, nil
}

// ToSettlement converts a home-currency amount, rounded to cents.
func (c *CurrencyConverter) ToSettlement(amount decimal.Decimal) decimal.Decimal {
	if c.Home == c.Settlement {
		return amount.Round(2)
	}
	return amount.Div(c.Rate).Round(2)
}

var (
	priceNumber    = regexp.MustCompile(`\d+(?:[.,\x{0020}\x{00A0}\x{202F}]\d+)*`)
	priceSeparator = regexp.MustCompile(`[.,\x{0020}\x{00A0}\x{202F}]`)
)

// ParsePrice reads the first number out of a free-text price such as "150 MAD",
// "1 500 DH" or "150-300 MAD/h". A range is charged at its lower bound.
func ParsePrice(price string) (decimal.Decimal, error) {
	match := priceNumber.FindString(price)
	if match == "" {
		return decimal.Zero, ErrInvalidAmount(price)
	}
	amount, err := decimal.NewFromString(normalizeNumber(match))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount(price)
	}
	return amount.Round(2), nil
}

// normalizeNumber turns "1 500", "1.500,50" or "1,500.50" into a plain decimal.
// A separator followed by exactly three digits groups thousands; a final '.' or ','
// followed by one or two digits starts the fraction. Anything else ends the number.
func normalizeNumber(s string) string {
	groups := priceSeparator.Split(s, -1)
	seps := priceSeparator.FindAllString(s, -1)

	var b strings.Builder
	b.WriteString(groups[0])
	for i, g := range groups[1:] {
		last := i == len(seps)-1
		switch {
		case len(g) == 3:
			b.WriteString(g)
		case last && len(g) <= 2 && (seps[i] == "." || seps[i] == ","):
			b.WriteString(".")
			b.WriteString(g)
		default:
			return b.String()
		}
	}
	return b.String()
}
