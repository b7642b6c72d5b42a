// Package types provides value types shared across progression packages.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCurrencyMismatch is returned when combining amounts in different currencies.
var ErrCurrencyMismatch = errors.New("money: currency mismatch")

// Money is a price in the smallest currency unit. Arithmetic is integer-only.
//
//   - USD(1000) = $10.00
//   - JPY(1200) = ¥1200
type Money struct {
	Amount   int64  `json:"amount"   yaml:"amount"   bson:"amount"`
	Currency string `json:"currency" yaml:"currency" bson:"currency"`
}

// Of builds a Money value, normalizing the currency code to lowercase.
func Of(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Of(cents, "usd") }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Of(cents, "eur") }

// GBP creates a Money value in British Pounds (pence).
func GBP(pence int64) Money { return Of(pence, "gbp") }

// JPY creates a Money value in Japanese Yen.
func JPY(yen int64) Money { return Of(yen, "jpy") }

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money { return Of(0, currency) }

// Add returns m + other, or ErrCurrencyMismatch.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor renders the amount in major units without a symbol ("49.00").
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}

	return fmt.Sprintf("%s%d.%02d", sign, abs/100, abs%100)
}

// String renders the amount with its currency symbol ("$49.00").
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler and adds a display field.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Totals sums amounts per currency. The result is sorted by currency code.
func Totals(values ...Money) []Money {
	sums := make(map[string]int64)
	for _, v := range values {
		sums[v.Currency] += v.Amount
	}

	out := make([]Money, 0, len(sums))
	for cur, amt := range sums {
		out = append(out, Money{Amount: amt, Currency: cur})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "usd":
		return "$"
	case "eur":
		return "€"
	case "gbp":
		return "£"
	case "jpy":
		return "¥"
	default:
		return strings.ToUpper(currency) + " "
	}
}

func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "vnd", "clp":
		return 0
	default:
		return 2
	}
}
