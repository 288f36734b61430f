package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
)

type BetRepository interface {
	CreateOrUpdate(ctx context.Context, gameID uint32, bet *entity.Bet) error
	// GetByGameID fails with apperror.ErrBetNotFound when no record exists.
	GetByGameID(ctx context.Context, gameID uint32) (*entity.Bet, error)
	// FindByGameID returns nil without error when no record exists.
	FindByGameID(ctx context.Context, gameID uint32) (*entity.Bet, error)
}

type dbBet struct {
	kv storage.KV
}

func NewBetRepository(kv storage.KV) BetRepository {
	return &dbBet{
		kv: kv,
	}
}

func (that *dbBet) CreateOrUpdate(ctx context.Context, gameID uint32, bet *entity.Bet) error {
	betJSON, err := json.Marshal(bet)
	if err != nil {
		return fmt.Errorf("could not marshal bet: %w", err)
	}

	if err = that.kv.Set(ctx, storage.GameBetKey(gameID), betJSON); err != nil {
		return fmt.Errorf("failed to set bet: %w", err)
	}

	return nil
}

func (that *dbBet) GetByGameID(ctx context.Context, gameID uint32) (*entity.Bet, error) {
	bet, err := that.FindByGameID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if bet == nil {
		return nil, fmt.Errorf("%w: game %d", apperror.ErrBetNotFound, gameID)
	}

	return bet, nil
}

func (that *dbBet) FindByGameID(ctx context.Context, gameID uint32) (*entity.Bet, error) {
	response, err := that.kv.Get(ctx, storage.GameBetKey(gameID))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil //nolint: nilnil // absence is a valid answer here
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}

	var existingBet entity.Bet
	if err = json.Unmarshal(response, &existingBet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bet: %w", err)
	}

	return &existingBet, nil
}
