package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
)

var ErrCounterExhausted = errors.New("game id counter exhausted")

type GameRepository interface {
	// NextID allocates the next game id; ids start at 1.
	NextID(ctx context.Context) (uint32, error)
	// Count returns the highest id allocated so far.
	Count(ctx context.Context) (uint32, error)

	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id uint32) (*entity.Game, error)
}

type dbGame struct {
	kv storage.KV
}

func NewGameRepository(kv storage.KV) GameRepository {
	return &dbGame{
		kv: kv,
	}
}

func (that *dbGame) NextID(ctx context.Context) (uint32, error) {
	count, err := that.Count(ctx)
	if err != nil {
		return 0, err
	}

	if count == math.MaxUint32 {
		return 0, ErrCounterExhausted
	}

	next := count + 1
	if err = that.kv.Set(ctx, storage.GameCounterKey(), []byte(strconv.FormatUint(uint64(next), 10))); err != nil {
		return 0, fmt.Errorf("failed to set game counter: %w", err)
	}

	return next, nil
}

func (that *dbGame) Count(ctx context.Context) (uint32, error) {
	response, err := that.kv.Get(ctx, storage.GameCounterKey())
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to get game counter: %w", err)
	}

	count, err := strconv.ParseUint(string(response), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse game counter: %w", err)
	}

	return uint32(count), nil
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.kv.Set(ctx, storage.GameKey(game.ID), gameJSON); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id uint32) (*entity.Game, error) {
	response, err := that.kv.Get(ctx, storage.GameKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal(response, &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}
