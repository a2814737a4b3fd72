package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in integer minor units (cents).
// All arithmetic inside the engine happens on this type; conversion to
// display units happens only at the API boundary.
type Amount int64

// FromDecimal converts a display-unit decimal (e.g. "1234.50") to minor units.
// The value is rounded half-up to 2 decimal places before conversion.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.Round(2).Shift(2).IntPart())
}

// FromString parses a display-unit string like "1234.50" into minor units.
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// Decimal returns the amount in display units (2 decimal places).
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String formats the amount in display units with exactly 2 decimal places.
func (a Amount) String() string {
	return a.Decimal().StringFixed(2)
}

// Line computes a line item value: unit price times quantity.
func Line(unitPrice Amount, qty int) Amount {
	return unitPrice * Amount(qty)
}

// ApplyPercent returns rate% of the amount, rounded to the nearest cent.
// Used for commission payouts where rate is a percentage between 0 and 100.
func ApplyPercent(a Amount, rate decimal.Decimal) Amount {
	return FromDecimal(a.Decimal().Mul(rate).Div(decimal.NewFromInt(100)))
}
