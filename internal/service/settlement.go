package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

var winnerMultiplier = decimal.NewFromInt(2)

// Settlement pays out stakes of finished betting games, once per player.
type Settlement struct {
	games  gameRepo
	bets   betRepo
	ledger *Ledger
}

func NewSettlement(games gameRepo, bets betRepo, ledger *Ledger) *Settlement {
	return &Settlement{
		games:  games,
		bets:   bets,
		ledger: ledger,
	}
}

// ClaimRewards credits player with what the outcome owes them and returns the payout.
// A win pays both stakes to the winner; a draw returns each player's own stake.
func (that *Settlement) ClaimRewards(ctx context.Context, gameID uint32, player entity.Identity) (decimal.Decimal, error) {
	if err := player.Validate(); err != nil {
		return decimal.Zero, err
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return decimal.Zero, err
	}

	if !game.HasBet {
		return decimal.Zero, apperror.ErrNoBetting
	}

	if game.IsInProgress() {
		return decimal.Zero, apperror.ErrGameInProgress
	}

	if !game.IsParticipant(player) {
		return decimal.Zero, apperror.ErrNotAParticipant
	}

	bet, err := that.bets.GetByGameID(ctx, gameID)
	if err != nil {
		return decimal.Zero, err
	}

	mark := entity.MarkO
	if player == game.PlayerX {
		mark = entity.MarkX
	}

	if bet.HasClaimed(mark) {
		return decimal.Zero, apperror.ErrAlreadyClaimed
	}

	var eligible bool
	var payout decimal.Decimal

	switch game.Status {
	case entity.StatusXWins:
		eligible, payout = mark == entity.MarkX, bet.Amount.Mul(winnerMultiplier)
	case entity.StatusOWins:
		eligible, payout = mark == entity.MarkO, bet.Amount.Mul(winnerMultiplier)
	case entity.StatusDraw:
		eligible, payout = true, bet.Amount
	default:
		return decimal.Zero, fmt.Errorf("%w: %s", apperror.ErrInvalidClaimState, game.Status)
	}

	if !eligible {
		return decimal.Zero, apperror.ErrNotEligible
	}

	if err = that.ledger.Unlock(ctx, player, bet.TokenType, payout); err != nil {
		return decimal.Zero, fmt.Errorf("failed to pay out rewards: %w", err)
	}

	bet.MarkClaimed(mark, game.Status == entity.StatusDraw)
	if err = that.bets.CreateOrUpdate(ctx, gameID, bet); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update bet: %w", err)
	}

	return payout, nil
}
