// Package money is a small immutable currency amount built on decimal.Decimal.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used for contracts created without an explicit currency.
const DefaultCurrency = "USD"

// MaxScale is the number of fractional digits an amount may carry. Stored
// amounts use numeric(24,6), so finer values would be rounded on write.
const MaxScale = 6

var (
	// ErrCurrencyMismatch is returned by arithmetic across currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidCurrency is returned for codes that are not three letters.
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrInvalidAmount is returned for amounts finer than MaxScale.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Money is an amount in a single currency. The zero value is not usable;
// build values with New, Zero or MustParse.
type Money struct {
	currency string
	amount   decimal.Decimal
}

func New(currency string, amount decimal.Decimal) (Money, error) {
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	if !amount.Equal(amount.Truncate(MaxScale)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, MaxScale)
	}
	return Money{currency: cur, amount: amount}, nil
}

func Zero(currency string) (Money, error) {
	return New(currency, decimal.Zero)
}

// MustParse builds a Money from a decimal string and panics on bad input.
// Intended for constants and tests.
func MustParse(currency, amount string) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(fmt.Sprintf("money: parse %q: %v", amount, err))
	}
	m, err := New(currency, d)
	if err != nil {
		panic(fmt.Sprintf("money: %v", err))
	}
	return m
}

// NormalizeCurrency upper-cases and validates an ISO 4217 style code.
func NormalizeCurrency(currency string) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if len(cur) != 3 {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	for _, r := range cur {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
		}
	}
	return cur, nil
}

func (m Money) Currency() string        { return m.currency }
func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{currency: m.currency, amount: m.amount.Add(other.amount)}, nil
}

func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s != %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{currency: m.currency, amount: m.amount.Sub(other.amount)}, nil
}

// Times scales the amount by an integer factor.
func (m Money) Times(n int) Money {
	return Money{currency: m.currency, amount: m.amount.Mul(decimal.NewFromInt(int64(n)))}
}

// Equal compares currency and numeric value, so 10.0 USD equals 10.00 USD.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}
