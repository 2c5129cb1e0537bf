package domain

import "fmt"

// DiscountedPrice applies an "off" percentage with a single floor step.
// price - floor(price*off/100), exact for non-negative inputs.
func DiscountedPrice(price, off int64) int64 {
	if off <= 0 || price <= 0 {
		return price
	}
	return price - (price*off)/100
}

// Currency selects how prices are shown to clients. Prices are stored in toman.
type Currency string

const (
	CurrencyToman Currency = "toman"
	CurrencyRial  Currency = "rial"
)

const rialsPerToman = 10

func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyToman, "":
		return CurrencyToman, nil
	case CurrencyRial:
		return CurrencyRial, nil
	default:
		return "", fmt.Errorf("unknown currency display %q", s)
	}
}

// DisplayPrice converts a stored toman amount for output. It is the only
// place the toman->rial factor is applied.
func (c Currency) DisplayPrice(toman int64) int64 {
	if c == CurrencyRial {
		return toman * rialsPerToman
	}
	return toman
}

// StoredPrice converts an amount a client sent in the display currency back
// to toman. A rial amount must be a whole number of toman.
func (c Currency) StoredPrice(display int64) (int64, error) {
	if c != CurrencyRial {
		return display, nil
	}
	if display%rialsPerToman != 0 {
		return 0, &ValidationError{Field: "price", Message: fmt.Sprintf("rial amount %d is not a whole toman", display)}
	}
	return display / rialsPerToman, nil
}
