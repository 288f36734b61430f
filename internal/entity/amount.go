package entity

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

// MaxAmount is the largest value a balance or stake may hold (2^127 - 1).
var MaxAmount = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)), 0)

// ValidateAmount accepts strictly positive integral amounts within MaxAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.IsInteger() || amount.GreaterThan(MaxAmount) {
		return apperror.ErrInvalidAmount
	}
	return nil
}
