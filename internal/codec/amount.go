// Package codec converts ledger values into display values and back.
package codec

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed-point scale of ledger amounts: one display unit
// equals 10^Decimals raw units.
const Decimals = 18

// DisplayPlaces is the number of fractional digits shown for amounts.
const DisplayPlaces = 4

// DisplayAmount renders a raw ledger amount in display units with four
// fractional digits. Extra digits are truncated, never rounded up.
func DisplayAmount(raw decimal.Decimal) string {
	return raw.Shift(-Decimals).Truncate(DisplayPlaces).StringFixed(DisplayPlaces)
}

// RawAmount parses a human-entered decimal amount into raw ledger units,
// flooring anything below the smallest unit.
//
// Empty or unparseable input yields zero rather than an error. Callers must
// read zero as "no amount entered".
func RawAmount(input string) decimal.Decimal {
	input = strings.TrimSpace(input)
	if input == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero
	}

	return d.Shift(Decimals).Floor()
}

// ParseRaw parses a raw integer amount as carried on the wire.
func ParseRaw(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	return d.Floor(), nil
}

// RawString renders a raw ledger amount as a base-10 integer.
func RawString(raw decimal.Decimal) string {
	return raw.Floor().String()
}
