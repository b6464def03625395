// Package types provides common types used across Vault.
package types

import (
	"encoding/json"
	"fmt"
)

// TokenAmount represents a value of the vault's settlement token in its
// smallest unit. All arithmetic is integer-only, never floating point.
//
// Examples (6-decimal token such as USDC):
//   - Token(10_000_000, 6) = 10.000000
//   - Token(1_500_000, 6)  = 1.500000
type TokenAmount struct {
	Units    int64  `json:"units"`    // Smallest unit of the settlement token
	Decimals uint32 `json:"decimals"` // Decimal places of the settlement token
}

// Token creates a TokenAmount from units in the token's smallest unit.
func Token(units int64, decimals uint32) TokenAmount {
	return TokenAmount{Units: units, Decimals: decimals}
}

// ZeroToken returns a zero TokenAmount with the given decimals.
func ZeroToken(decimals uint32) TokenAmount {
	return TokenAmount{Units: 0, Decimals: decimals}
}

// Arithmetic operations

// Add adds two TokenAmounts. Returns false on int64 overflow or when the
// decimals differ.
func (a TokenAmount) Add(other TokenAmount) (TokenAmount, bool) {
	if a.Decimals != other.Decimals {
		return TokenAmount{}, false
	}
	units, ok := AddI64(a.Units, other.Units)
	if !ok {
		return TokenAmount{}, false
	}
	return TokenAmount{Units: units, Decimals: a.Decimals}, true
}

// Sub subtracts another TokenAmount. Returns false on int64 overflow or
// when the decimals differ.
func (a TokenAmount) Sub(other TokenAmount) (TokenAmount, bool) {
	if a.Decimals != other.Decimals {
		return TokenAmount{}, false
	}
	units, ok := SubI64(a.Units, other.Units)
	if !ok {
		return TokenAmount{}, false
	}
	return TokenAmount{Units: units, Decimals: a.Decimals}, true
}

// Mul multiplies the TokenAmount by a quantity. Returns false on overflow.
func (a TokenAmount) Mul(qty int64) (TokenAmount, bool) {
	units, ok := MulI64(a.Units, qty)
	if !ok {
		return TokenAmount{}, false
	}
	return TokenAmount{Units: units, Decimals: a.Decimals}, true
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a TokenAmount) IsZero() bool { return a.Units == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a TokenAmount) IsPositive() bool { return a.Units > 0 }

// IsNegative returns true if the amount is less than zero.
func (a TokenAmount) IsNegative() bool { return a.Units < 0 }

// Equal returns true if both amounts are equal (same units and decimals).
func (a TokenAmount) Equal(other TokenAmount) bool {
	return a.Units == other.Units && a.Decimals == other.Decimals
}

// LessThan returns true if this amount is less than other.
// Decimals must match; mismatched decimals always compare false.
func (a TokenAmount) LessThan(other TokenAmount) bool {
	return a.Decimals == other.Decimals && a.Units < other.Units
}

// Formatting methods

// Format returns the major-unit string for the amount.
// For a 6-decimal token: "10.000000" for Token(10_000_000, 6).
// For a 0-decimal token: "100" for Token(100, 0).
func (a TokenAmount) Format() string {
	if a.Decimals == 0 {
		return fmt.Sprintf("%d", a.Units)
	}

	divisor := int64(1)
	for i := uint32(0); i < a.Decimals; i++ {
		divisor *= 10
	}

	// Handle sign separately
	isNegative := a.Units < 0
	absUnits := a.Units
	if isNegative {
		absUnits = -absUnits
	}

	major := absUnits / divisor
	minor := absUnits % divisor

	format := fmt.Sprintf("%%d.%%0%dd", a.Decimals)
	result := fmt.Sprintf(format, major, minor)

	if isNegative {
		return "-" + result
	}
	return result
}

// String implements fmt.Stringer.
func (a TokenAmount) String() string { return a.Format() }

// MarshalJSON implements json.Marshaler.
func (a TokenAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Units    int64  `json:"units"`
		Decimals uint32 `json:"decimals"`
		Display  string `json:"display"`
	}{
		Units:    a.Units,
		Decimals: a.Decimals,
		Display:  a.Format(),
	})
}
