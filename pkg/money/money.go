// Package money is a currency-tagged decimal amount.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	dErrors "domainreg/pkg/domain-errors"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	JPY Currency = "JPY"
)

var scales = map[Currency]int32{
	USD: 2,
	EUR: 2,
	JPY: 0,
}

// Scale is the number of minor-unit digits for the currency.
func (c Currency) Scale() int32 {
	if s, ok := scales[c]; ok {
		return s
	}
	return 2
}

// ParseCurrency validates a currency code.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := scales[c]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unsupported currency %q", s))
	}
	return c, nil
}

// Money is immutable; all operations return a new value.
type Money struct {
	Amount   decimal.Decimal
	Currency Currency
}

// Zero returns a zero amount in the currency.
func Zero(c Currency) Money {
	return Money{Amount: decimal.Zero, Currency: c}
}

// Of builds an amount from a string such as "13.00".
func Of(c Currency, amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid amount")
	}
	return Money{Amount: d.Round(c.Scale()), Currency: c}, nil
}

// MustOf is Of for constants and tests.
func MustOf(c Currency, amount string) Money {
	m, err := Of(c, amount)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Times multiplies by an integer, typically a number of years.
func (m Money) Times(n int) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(int64(n))), Currency: m.Currency}
}

func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Plus adds two amounts of the same currency.
func (m Money) Plus(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("currency mismatch: %s vs %s", m.Currency, o.Currency))
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Equal compares amount and currency, ignoring trailing zeros.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Amount.StringFixed(m.Currency.Scale()))
}
