package money

import (
	"errors"
	"fmt"
	"strings"
)

// MinorPerUnit is the number of minor units in one whole currency unit.
const MinorPerUnit = 100

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// Money keeps amounts in integer minor units to avoid floating point issues.
type Money struct {
	Amount   int64
	Currency string
}

// New constructs Money from minor units validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	currency = strings.ToUpper(currency)
	return Money{Amount: amount, Currency: currency}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromUnits builds Money from whole currency units.
func FromUnits(units int64, currency string) (Money, error) {
	return New(units*MinorPerUnit, currency)
}

// MustUnits is FromUnits that panics on invalid currency.
func MustUnits(units int64, currency string) Money {
	return Must(units*MinorPerUnit, currency)
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub subtracts other from the receiver.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Neg returns the negated amount preserving currency.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Multiply multiplies the amount by the provided factor.
func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// RoundToUnit rounds half up to a whole currency unit.
func (m Money) RoundToUnit() Money {
	return Money{Amount: RoundHalfUp(m.Amount, MinorPerUnit) * MinorPerUnit, Currency: m.Currency}
}

// Units returns the amount in whole units, rounded half up.
func (m Money) Units() int64 {
	return RoundHalfUp(m.Amount, MinorPerUnit)
}

func (m Money) String() string {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/MinorPerUnit, amount%MinorPerUnit, m.Currency)
}

// RoundHalfUp divides numerator by a positive denominator rounding halves toward
// positive infinity, i.e. floor(n/d + 1/2).
func RoundHalfUp(numerator, denominator int64) int64 {
	if denominator <= 0 {
		panic("money: denominator must be positive")
	}
	return floorDiv(2*numerator+denominator, 2*denominator)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
