package usecase

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/service"
)

// GameManager is the public surface of the game engine and bet settlement.
type GameManager struct {
	logger *slog.Logger
	host   *storage.Host

	nativeSymbol string
}

func NewGameManager(logger *slog.Logger, host *storage.Host, nativeSymbol string) *GameManager {
	return &GameManager{
		logger:       logger.With("component", "game_manager"),
		host:         host,
		nativeSymbol: nativeSymbol,
	}
}

func (that *GameManager) CreateGame(ctx context.Context, playerX entity.Identity) (uint32, error) {
	return that.createGame(ctx, "CreateGame", playerX, nil)
}

func (that *GameManager) CreateGameWithBet(ctx context.Context, playerX entity.Identity, amount decimal.Decimal, tokenType entity.Asset) (uint32, error) {
	return that.createGame(ctx, "CreateGameWithBet", playerX, &service.BetTerms{Amount: amount, TokenType: tokenType})
}

func (that *GameManager) createGame(ctx context.Context, method string, playerX entity.Identity, terms *service.BetTerms) (uint32, error) {
	log := that.logger.With("method", method, "playerX", playerX)

	var game *entity.Game

	err := that.host.Atomic(ctx, func(tx storage.KV) error {
		var err error
		game, err = newServices(that.logger, tx).gamePlay.CreateGame(ctx, playerX, terms)
		return err
	})
	if err != nil {
		logFailure(log, err)
		return 0, err
	}

	if terms != nil {
		log.Info("betting game created", "gameID", game.ID, "amount", terms.Amount.String(), "tokenType", terms.TokenType)
	} else {
		log.Info("game created", "gameID", game.ID)
	}

	return game.ID, nil
}

func (that *GameManager) JoinGame(ctx context.Context, gameID uint32, playerO entity.Identity) (*entity.Game, error) {
	log := that.logger.With("method", "JoinGame", "gameID", gameID, "playerO", playerO)

	var game *entity.Game

	err := that.host.Atomic(ctx, func(tx storage.KV) error {
		var err error
		game, err = newServices(that.logger, tx).gamePlay.JoinGame(ctx, gameID, playerO)
		return err
	})
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	log.Info("player joined game", "hasBet", game.HasBet)

	return game, nil
}

func (that *GameManager) MakeMove(ctx context.Context, gameID uint32, player entity.Identity, position int) (*entity.Game, error) {
	log := that.logger.With("method", "MakeMove", "gameID", gameID, "player", player)

	var game *entity.Game

	err := that.host.Atomic(ctx, func(tx storage.KV) error {
		var err error
		game, err = newServices(that.logger, tx).gamePlay.MakeMove(ctx, gameID, player, position)
		return err
	})
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	if !game.IsInProgress() {
		log.Info("game finished", "status", game.Status)
	}

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, gameID uint32) (*entity.Game, error) {
	var game *entity.Game

	err := that.host.View(ctx, func(tx storage.KV) error {
		var err error
		game, err = newServices(that.logger, tx).gamePlay.GetGame(ctx, gameID)
		return err
	})
	if err != nil {
		logFailure(that.logger.With("method", "GetGame", "gameID", gameID), err)
		return nil, err
	}

	return game, nil
}

func (that *GameManager) GetBoard(ctx context.Context, gameID uint32) (entity.Board, error) {
	var board entity.Board

	err := that.host.View(ctx, func(tx storage.KV) error {
		var err error
		board, err = newServices(that.logger, tx).gamePlay.GetBoard(ctx, gameID)
		return err
	})
	if err != nil {
		logFailure(that.logger.With("method", "GetBoard", "gameID", gameID), err)
		return entity.Board{}, err
	}

	return board, nil
}

func (that *GameManager) ListGames(ctx context.Context) ([]entity.GameSummary, error) {
	var summaries []entity.GameSummary

	err := that.host.View(ctx, func(tx storage.KV) error {
		var err error
		summaries, err = newServices(that.logger, tx).gamePlay.ListGames(ctx, that.nativeSymbol)
		return err
	})
	if err != nil {
		logFailure(that.logger.With("method", "ListGames"), err)
		return nil, err
	}

	return summaries, nil
}

// GetGameBet returns nil when the game has no bet record.
func (that *GameManager) GetGameBet(ctx context.Context, gameID uint32) (*entity.Bet, error) {
	var bet *entity.Bet

	err := that.host.View(ctx, func(tx storage.KV) error {
		var err error
		bet, err = newServices(that.logger, tx).gamePlay.GetBet(ctx, gameID)
		return err
	})
	if err != nil {
		logFailure(that.logger.With("method", "GetGameBet", "gameID", gameID), err)
		return nil, err
	}

	return bet, nil
}

func (that *GameManager) ClaimRewards(ctx context.Context, gameID uint32, player entity.Identity) error {
	log := that.logger.With("method", "ClaimRewards", "gameID", gameID, "player", player)

	var payout decimal.Decimal

	err := that.host.Atomic(ctx, func(tx storage.KV) error {
		var err error
		payout, err = newServices(that.logger, tx).settlement.ClaimRewards(ctx, gameID, player)
		return err
	})
	if err != nil {
		logFailure(log, err)
		return err
	}

	log.Info("rewards claimed", "payout", payout.String())

	return nil
}
