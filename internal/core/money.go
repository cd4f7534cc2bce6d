// Package core provides money parsing and handling utilities.
//
// This file contains the Amount type used by records and balances. Amounts
// are exact decimals; a record read back from storage may carry an amount
// that failed to parse, which is kept as an invalid Amount instead of
// failing the whole read.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal money value. The zero Amount is a valid 0.
type Amount struct {
	value   decimal.Decimal
	invalid bool
	raw     string
}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{value: d}
}

// AmountFromCents builds an amount from an integer number of cents.
func AmountFromCents(cents int64) Amount {
	return Amount{value: decimal.New(cents, -2)}
}

// InvalidAmount marks a stored value that is not a number. It contributes
// nothing to balances and reports itself as invalid.
func InvalidAmount(raw string) Amount {
	return Amount{invalid: true, raw: raw}
}

// ParseAmount parses a decimal string.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Sign is
// preserved; use Validate to require a positive amount.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("abc")   -> ErrInvalidAmount
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{value: d}, nil
}

// Valid reports whether the amount holds a number.
func (a Amount) Valid() bool {
	return !a.invalid
}

// Decimal returns the numeric value; invalid amounts yield zero.
func (a Amount) Decimal() decimal.Decimal {
	if a.invalid {
		return decimal.Zero
	}
	return a.value
}

func (a Amount) IsPositive() bool {
	return !a.invalid && a.value.IsPositive()
}

func (a Amount) IsNegative() bool {
	return !a.invalid && a.value.IsNegative()
}

func (a Amount) Add(b Amount) Amount {
	return Amount{value: a.Decimal().Add(b.Decimal())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{value: a.Decimal().Sub(b.Decimal())}
}

func (a Amount) Abs() Amount {
	return Amount{value: a.Decimal().Abs()}
}

func (a Amount) Equal(b Amount) bool {
	return a.invalid == b.invalid && a.Decimal().Equal(b.Decimal())
}

// Validate requires a valid amount greater than zero.
func (a Amount) Validate() error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Fixed formats the amount with exactly two decimals, e.g. "50.50".
func (a Amount) Fixed() string {
	return a.Decimal().StringFixed(2)
}

// Dollars formats the amount for display, e.g. "$50.50" or "-$40.00".
func (a Amount) Dollars() string {
	if a.IsNegative() {
		return "-$" + a.Abs().Fixed()
	}
	return "$" + a.Fixed()
}

// String returns the storage representation. Invalid amounts keep their
// original text.
func (a Amount) String() string {
	if a.invalid {
		return a.raw
	}
	return a.value.String()
}
