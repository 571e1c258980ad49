package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Minor is a monetary amount in minor units (cents). All engine arithmetic is
// integer arithmetic; decimals exist only at the API boundary.
type Minor int64

func (m Minor) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Minor) String() string {
	return m.Decimal().StringFixed(2)
}

// ParseAmount converts a decimal string from the API into minor units.
// Anything negative, non-numeric, or with sub-cent precision is rejected.
func ParseAmount(s string) (Minor, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("ParseAmount: %w", ErrInvalidAmount)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("ParseAmount: %w", ErrInvalidAmount)
	}
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("ParseAmount: sub-cent precision: %w", ErrInvalidAmount)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("ParseAmount: overflow: %w", ErrInvalidAmount)
	}
	return Minor(shifted.IntPart()), nil
}
