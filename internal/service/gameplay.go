package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/tictactoe"
)

type gameRepo interface {
	NextID(ctx context.Context) (uint32, error)
	Count(ctx context.Context) (uint32, error)
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id uint32) (*entity.Game, error)
}

type betRepo interface {
	CreateOrUpdate(ctx context.Context, gameID uint32, bet *entity.Bet) error
	GetByGameID(ctx context.Context, gameID uint32) (*entity.Bet, error)
	FindByGameID(ctx context.Context, gameID uint32) (*entity.Bet, error)
}

// BetTerms is the stake both players put up to play a betting game.
type BetTerms struct {
	Amount    decimal.Decimal `json:"amount"`
	TokenType entity.Asset    `json:"token_type"`
}

func (that *BetTerms) Validate() error {
	if err := entity.ValidateAmount(that.Amount); err != nil {
		return err
	}
	return that.TokenType.Validate()
}

type GamePlay struct {
	logger *slog.Logger

	games  gameRepo
	bets   betRepo
	ledger *Ledger
}

func NewGamePlay(logger *slog.Logger, games gameRepo, bets betRepo, ledger *Ledger) *GamePlay {
	return &GamePlay{
		logger: logger,
		games:  games,
		bets:   bets,
		ledger: ledger,
	}
}

// CreateGame opens a game with playerX seated. With terms, playerX's stake is
// locked and a bet record is created under the same id.
func (that *GamePlay) CreateGame(ctx context.Context, playerX entity.Identity, terms *BetTerms) (*entity.Game, error) {
	if err := playerX.Validate(); err != nil {
		return nil, err
	}

	if terms != nil {
		if err := terms.Validate(); err != nil {
			return nil, err
		}

		if err := that.ledger.RequireFunds(ctx, playerX, terms.TokenType, terms.Amount); err != nil {
			return nil, err
		}
	}

	id, err := that.games.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate game id: %w", err)
	}

	game := entity.NewGame(id, playerX, terms != nil)
	if err = that.games.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if terms == nil {
		return game, nil
	}

	if err = that.ledger.Lock(ctx, playerX, terms.TokenType, terms.Amount); err != nil {
		return nil, fmt.Errorf("failed to lock stake: %w", err)
	}

	if err = that.bets.CreateOrUpdate(ctx, id, entity.NewBet(terms.Amount, terms.TokenType)); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	return game, nil
}

// JoinGame seats playerO, locking the matching stake first when the game has a bet.
func (that *GamePlay) JoinGame(ctx context.Context, gameID uint32, playerO entity.Identity) (*entity.Game, error) {
	if err := playerO.Validate(); err != nil {
		return nil, err
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.HasOpponent() {
		return nil, apperror.ErrGameFull
	}

	if game.PlayerX == playerO {
		return nil, apperror.ErrSelfJoin
	}

	if game.HasBet {
		if err = that.payJoinStake(ctx, gameID, playerO); err != nil {
			return nil, err
		}
	}

	game.Join(playerO)
	if err = that.games.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *GamePlay) payJoinStake(ctx context.Context, gameID uint32, playerO entity.Identity) error {
	bet, err := that.bets.GetByGameID(ctx, gameID)
	if err != nil {
		return err
	}

	if bet.PlayerOPaid {
		return apperror.ErrAlreadyPaid
	}

	if err = that.ledger.RequireFunds(ctx, playerO, bet.TokenType, bet.Amount); err != nil {
		return err
	}

	if err = that.ledger.Lock(ctx, playerO, bet.TokenType, bet.Amount); err != nil {
		return fmt.Errorf("failed to lock stake: %w", err)
	}

	bet.PlayerOPaid = true
	if err = that.bets.CreateOrUpdate(ctx, gameID, bet); err != nil {
		return fmt.Errorf("failed to update bet: %w", err)
	}

	return nil
}

func (that *GamePlay) MakeMove(ctx context.Context, gameID uint32, player entity.Identity, position int) (*entity.Game, error) {
	if err := tictactoe.ValidatePosition(position); err != nil {
		return nil, err
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err = tictactoe.MakeTurn(game, player, position); err != nil {
		return nil, err
	}

	if err = that.games.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}

func (that *GamePlay) GetGame(ctx context.Context, gameID uint32) (*entity.Game, error) {
	return that.games.GetByID(ctx, gameID)
}

func (that *GamePlay) GetBoard(ctx context.Context, gameID uint32) (entity.Board, error) {
	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return entity.Board{}, err
	}

	return game.Board, nil
}

// GetBet returns nil when the game has no bet record.
func (that *GamePlay) GetBet(ctx context.Context, gameID uint32) (*entity.Bet, error) {
	return that.bets.FindByGameID(ctx, gameID)
}

// ListGames summarizes games 1..counter in id order.
func (that *GamePlay) ListGames(ctx context.Context, nativeSymbol string) ([]entity.GameSummary, error) {
	log := that.logger.With("method", "ListGames")

	count, err := that.games.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get game count: %w", err)
	}

	summaries := make([]entity.GameSummary, 0, count)
	for id := uint32(1); id <= count && id != 0; id++ {
		game, err := that.games.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrGameNotFound) {
			log.Warn("game id allocated without a record", "gameID", id)
			continue
		}

		if err != nil {
			return nil, err
		}

		var bet *entity.Bet
		if game.HasBet {
			if bet, err = that.bets.FindByGameID(ctx, id); err != nil {
				return nil, err
			}

			if bet == nil {
				log.Error("betting game has no bet record", "gameID", id)
			}
		}

		summaries = append(summaries, entity.Summarize(game, bet, nativeSymbol))
	}

	return summaries, nil
}
