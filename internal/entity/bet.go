package entity

import (
	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

type AssetKind string

const (
	AssetNative AssetKind = "native"
	AssetToken  AssetKind = "token"
)

// Asset is what a bet is staked in: the native unit or a named token.
type Asset struct {
	Kind    AssetKind `json:"kind"`
	TokenID string    `json:"token_id,omitempty"`
}

func NativeAsset() Asset {
	return Asset{Kind: AssetNative}
}

func TokenAsset(tokenID string) Asset {
	return Asset{Kind: AssetToken, TokenID: tokenID}
}

func (that Asset) IsNative() bool {
	return that.Kind == AssetNative
}

func (that Asset) Validate() error {
	switch that.Kind {
	case AssetNative:
		if that.TokenID != "" {
			return apperror.ErrInvalidAsset
		}
		return nil
	case AssetToken:
		if that.TokenID == "" {
			return apperror.ErrInvalidAsset
		}
		return nil
	default:
		return apperror.ErrInvalidAsset
	}
}

// Bet is the escrow record of a betting game, stored under the game's id.
// Every flag only ever flips from false to true.
type Bet struct {
	Amount         decimal.Decimal `json:"amount"`
	TokenType      Asset           `json:"token_type"`
	PlayerXPaid    bool            `json:"player_x_paid"`
	PlayerOPaid    bool            `json:"player_o_paid"`
	PlayerXClaimed bool            `json:"player_x_claimed"`
	PlayerOClaimed bool            `json:"player_o_claimed"`
	RewardsClaimed bool            `json:"rewards_claimed"`
}

func NewBet(amount decimal.Decimal, tokenType Asset) *Bet {
	return &Bet{
		Amount:      amount,
		TokenType:   tokenType,
		PlayerXPaid: true,
	}
}

// HasClaimed reports whether the player holding mark already took a payout.
func (that *Bet) HasClaimed(mark Mark) bool {
	if mark == MarkX {
		return that.PlayerXClaimed
	}
	return that.PlayerOClaimed
}

// MarkClaimed records a payout for mark. With bothShare set (a draw) the bet is
// resolved only once both players have claimed.
func (that *Bet) MarkClaimed(mark Mark, bothShare bool) {
	if mark == MarkX {
		that.PlayerXClaimed = true
	} else {
		that.PlayerOClaimed = true
	}

	if !bothShare || (that.PlayerXClaimed && that.PlayerOClaimed) {
		that.RewardsClaimed = true
	}
}

// GameSummary is one row of the game listing.
type GameSummary struct {
	ID             uint32          `json:"id"`
	PlayerX        Identity        `json:"player_x"`
	PlayerO        *Identity       `json:"player_o,omitempty"`
	Status         Status          `json:"status"`
	HasBet         bool            `json:"has_bet"`
	BetAmount      decimal.Decimal `json:"bet_amount"`
	BetTokenNative bool            `json:"bet_token_native"`
	BetTokenSymbol string          `json:"bet_token_symbol"`
}

// Summarize builds a listing row. A nil bet lists the game as non-betting.
func Summarize(game *Game, bet *Bet, nativeSymbol string) GameSummary {
	summary := GameSummary{
		ID:             game.ID,
		PlayerX:        game.PlayerX,
		PlayerO:        game.PlayerO,
		Status:         game.Status,
		BetAmount:      decimal.Zero,
		BetTokenNative: true,
		BetTokenSymbol: nativeSymbol,
	}

	if game.HasBet && bet != nil {
		summary.HasBet = true
		summary.BetAmount = bet.Amount
		if !bet.TokenType.IsNative() {
			summary.BetTokenNative = false
			summary.BetTokenSymbol = bet.TokenType.TokenID
		}
	}

	return summary
}
