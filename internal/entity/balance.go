package entity

import (
	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

type TokenBalance struct {
	TokenID string          `json:"token_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// UserBalance holds one identity's funds. Token entries are unique by id and
// looked up by linear scan; a user holds a handful of assets at most.
type UserBalance struct {
	Native decimal.Decimal `json:"native"`
	Tokens []TokenBalance  `json:"tokens"`
}

// NewUserBalance is the balance of an identity that never held funds.
func NewUserBalance() *UserBalance {
	return &UserBalance{
		Native: decimal.Zero,
		Tokens: []TokenBalance{},
	}
}

func (that *UserBalance) tokenIndex(tokenID string) int {
	for i, token := range that.Tokens {
		if token.TokenID == tokenID {
			return i
		}
	}
	return -1
}

// Of returns the held amount of asset and whether an entry exists for it.
// The native entry always exists.
func (that *UserBalance) Of(asset Asset) (decimal.Decimal, bool) {
	if asset.IsNative() {
		return that.Native, true
	}

	i := that.tokenIndex(asset.TokenID)
	if i < 0 {
		return decimal.Zero, false
	}
	return that.Tokens[i].Amount, true
}

// Covers reports whether the balance holds at least amount of asset.
func (that *UserBalance) Covers(asset Asset, amount decimal.Decimal) bool {
	held, ok := that.Of(asset)
	return ok && held.GreaterThanOrEqual(amount)
}

// Credit adds amount of asset, creating the token entry when missing.
func (that *UserBalance) Credit(asset Asset, amount decimal.Decimal) error {
	held, _ := that.Of(asset)

	total := held.Add(amount)
	if total.GreaterThan(MaxAmount) {
		return apperror.ErrAmountOverflow
	}

	that.set(asset, total)
	return nil
}

// Debit subtracts amount of asset without checking sufficiency; callers check
// Covers first within the same operation. A missing token entry is left alone.
func (that *UserBalance) Debit(asset Asset, amount decimal.Decimal) {
	held, ok := that.Of(asset)
	if !ok {
		return
	}

	that.set(asset, held.Sub(amount))
}

func (that *UserBalance) set(asset Asset, amount decimal.Decimal) {
	if asset.IsNative() {
		that.Native = amount
		return
	}

	if i := that.tokenIndex(asset.TokenID); i >= 0 {
		that.Tokens[i].Amount = amount
		return
	}

	that.Tokens = append(that.Tokens, TokenBalance{TokenID: asset.TokenID, Amount: amount})
}
