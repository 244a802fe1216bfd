package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the number of fractional digits an Amount carries.
const MinorUnitPlaces = 2

// MaxAmount is the largest amount a single event, contribution or transfer may carry.
const MaxAmount Amount = 1_000_000_000_000

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAmountPrecision = errors.New("amount has more than 2 decimal places")
	ErrAmountOverflow  = errors.New("amount out of range")
)

var minorUnitScale = decimal.New(1, MinorUnitPlaces)

// Amount is a signed quantity of money in minor units (e.g. cents).
type Amount int64

// ParseAmount parses a decimal string such as "12.5" or "-3.07" into minor units.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal converts a decimal value into minor units without rounding.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	scaled := d.Mul(minorUnitScale)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrAmountPrecision, d.String())
	}
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) || scaled.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOverflow, d.String())
	}
	return Amount(scaled.IntPart()), nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -MinorUnitPlaces)
}

// String formats the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(MinorUnitPlaces)
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
		}
		s = n.String()
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
