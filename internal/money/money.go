package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary amount stored in integer minor units (cents for most
// currencies) together with its ISO 4217 currency code. Arithmetic never
// leaves minor units; rounding happens once, when a derived figure is
// converted back from decimal via FromDecimal.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New returns a Money value in minor units.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: normalizeCurrency(currency)}
}

// Zero returns the zero amount for a currency.
func Zero(currency string) Money {
	return New(0, currency)
}

// FromDecimal converts a decimal amount of minor units into Money, rounding
// half-to-even to a whole minor unit. This is the single rounding point for
// all derived monetary figures.
func FromDecimal(d decimal.Decimal, currency string) Money {
	return Money{
		Amount:   d.RoundBank(0).IntPart(),
		Currency: normalizeCurrency(currency),
	}
}

// Decimal returns the amount as an exact decimal in minor units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount)
}

// Add returns m + other. Mixing currencies is a programming error upstream
// validation must have prevented, so it panics rather than returning an error.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Sub returns m - other, panicking on mixed currencies.
func (m Money) Sub(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// SameCurrency reports whether both values share a currency code.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

// String renders the amount in major units for logs and error messages.
func (m Money) String() string {
	major := decimal.NewFromInt(m.Amount).Shift(-minorDigits)
	return fmt.Sprintf("%s %s", major.StringFixed(minorDigits), m.Currency)
}

// minorDigits is the exponent between major and minor units. The studio
// console only bills in two-decimal currencies.
const minorDigits = 2

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch %s vs %s", m.Currency, other.Currency))
	}
}

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCurrency reports whether a currency code looks like ISO 4217.
func ValidCurrency(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
