package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a display amount string (e.g. "5.00") to base units at
// the given decimal scale. Zero, negative, and unparseable amounts are
// rejected; such amounts must never enter the transfer state machine.
func ParseAmount(display string, decimals int) (*big.Int, error) {
	if display == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	dec, err := decimal.NewFromString(display)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if !dec.IsPositive() {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	multiplier := decimal.NewFromBigInt(
		new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil), 0)
	base := dec.Mul(multiplier).BigInt()

	if base.Sign() <= 0 {
		return nil, fmt.Errorf("amount truncates to zero at %d decimals", decimals)
	}

	return base, nil
}

// FormatAmount renders a base-unit amount as a display decimal string.
func FormatAmount(base *big.Int, decimals int) string {
	return decimal.NewFromBigInt(base, -int32(decimals)).String()
}
