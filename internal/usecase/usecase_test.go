package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-escrow/testing/suite"
)

const (
	alice = entity.Identity("alice")
	bob   = entity.Identity("bob")
	carol = entity.Identity("carol")
)

type fixture struct {
	*suite.Suite

	games  *GameManager
	escrow *Escrow
}

func newFixture(t *testing.T) (context.Context, *fixture) {
	t.Helper()

	ctx, st := suite.New(t)

	return ctx, &fixture{
		Suite:  st,
		games:  NewGameManager(st.Logger, st.Host, "XLM"),
		escrow: NewEscrow(st.Logger, st.Host),
	}
}

func amount(value int64) decimal.Decimal {
	return decimal.NewFromInt(value)
}

func (that *fixture) deposit(ctx context.Context, user entity.Identity, value int64) {
	that.Helper()

	_, err := that.escrow.Deposit(ctx, user, amount(value))
	require.NoError(that.T, err)
}

func (that *fixture) requireNative(ctx context.Context, user entity.Identity, value int64) {
	that.Helper()

	balance, err := that.escrow.GetBalance(ctx, user)
	require.NoError(that.T, err)
	assert.Equal(that.T, amount(value).String(), balance.Native.String(), "native balance of %s", user)
}

// play makes the moves in order, alternating between playerX and playerO.
func (that *fixture) play(ctx context.Context, gameID uint32, playerX, playerO entity.Identity, positions ...int) *entity.Game {
	that.Helper()

	var game *entity.Game
	for i, position := range positions {
		player := playerX
		if i%2 == 1 {
			player = playerO
		}

		var err error
		game, err = that.games.MakeMove(ctx, gameID, player, position)
		require.NoError(that.T, err, "move %d at %d", i, position)
	}

	return game
}

// seed writes records directly, bypassing the public operations.
func (that *fixture) seed(ctx context.Context, records map[storage.Key]any) {
	that.Helper()

	err := that.Host.Atomic(ctx, func(tx storage.KV) error {
		for key, record := range records {
			value, err := json.Marshal(record)
			if err != nil {
				return err
			}
			if err = tx.Set(ctx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(that.T, err)
}

func TestBettingGame_Win(t *testing.T) {
	ctx, f := newFixture(t)

	// Given: two funded players and a 500 bet
	f.deposit(ctx, alice, 1000)
	f.deposit(ctx, bob, 1000)

	gameID, err := f.games.CreateGameWithBet(ctx, alice, amount(500), entity.NativeAsset())
	require.NoError(t, err)
	require.Equal(t, uint32(1), gameID)
	f.requireNative(ctx, alice, 500)

	_, err = f.games.JoinGame(ctx, gameID, bob)
	require.NoError(t, err)
	f.requireNative(ctx, bob, 500)

	bet, err := f.games.GetGameBet(ctx, gameID)
	require.NoError(t, err)
	require.NotNil(t, bet)
	assert.True(t, bet.PlayerXPaid)
	assert.True(t, bet.PlayerOPaid)

	// When: X completes the top row and claims
	game := f.play(ctx, gameID, alice, bob, 0, 3, 1, 4, 2)
	require.Equal(t, entity.StatusXWins, game.Status)

	require.NoError(t, f.games.ClaimRewards(ctx, gameID, alice))

	// Then: X holds both stakes and the bet is settled
	f.requireNative(ctx, alice, 1500)
	f.requireNative(ctx, bob, 500)

	bet, err = f.games.GetGameBet(ctx, gameID)
	require.NoError(t, err)
	assert.True(t, bet.PlayerXClaimed)
	assert.True(t, bet.RewardsClaimed)

	game, err = f.games.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusXWins, game.Status)

	// Then: neither player can claim again
	require.ErrorIs(t, f.games.ClaimRewards(ctx, gameID, alice), apperror.ErrAlreadyClaimed)
	require.ErrorIs(t, f.games.ClaimRewards(ctx, gameID, bob), apperror.ErrNotEligible)
	f.requireNative(ctx, alice, 1500)
	f.requireNative(ctx, bob, 500)
}

func TestBettingGame_Draw(t *testing.T) {
	ctx, f := newFixture(t)

	// Given: a finished 250 bet that ended in a draw
	f.deposit(ctx, alice, 1000)
	f.deposit(ctx, bob, 1000)

	gameID, err := f.games.CreateGameWithBet(ctx, alice, amount(250), entity.NativeAsset())
	require.NoError(t, err)
	_, err = f.games.JoinGame(ctx, gameID, bob)
	require.NoError(t, err)

	game := f.play(ctx, gameID, alice, bob, 0, 1, 2, 4, 3, 5, 7, 6, 8)
	require.Equal(t, entity.StatusDraw, game.Status)

	// When: O claims first
	require.NoError(t, f.games.ClaimRewards(ctx, gameID, bob))

	// Then: only O's stake came back and the bet stays open
	f.requireNative(ctx, alice, 750)
	f.requireNative(ctx, bob, 1000)

	bet, err := f.games.GetGameBet(ctx, gameID)
	require.NoError(t, err)
	assert.True(t, bet.PlayerOClaimed)
	assert.False(t, bet.RewardsClaimed)

	// When: X claims as well
	require.NoError(t, f.games.ClaimRewards(ctx, gameID, alice))

	// Then: everyone is whole again
	f.requireNative(ctx, alice, 1000)
	f.requireNative(ctx, bob, 1000)

	bet, err = f.games.GetGameBet(ctx, gameID)
	require.NoError(t, err)
	assert.True(t, bet.RewardsClaimed)

	require.ErrorIs(t, f.games.ClaimRewards(ctx, gameID, bob), apperror.ErrAlreadyClaimed)
}

func TestTokenBet(t *testing.T) {
	ctx, f := newFixture(t)

	// Given: players funded in a token
	_, err := f.escrow.DepositToken(ctx, alice, "USDC", amount(100))
	require.NoError(t, err)
	_, err = f.escrow.DepositToken(ctx, bob, "USDC", amount(100))
	require.NoError(t, err)

	// Then: a player without the token cannot stake it
	_, err = f.games.CreateGameWithBet(ctx, carol, amount(1), entity.TokenAsset("USDC"))
	require.ErrorIs(t, err, apperror.ErrInsufficientBalance)

	// When: O wins a 60 token bet and claims
	gameID, err := f.games.CreateGameWithBet(ctx, alice, amount(60), entity.TokenAsset("USDC"))
	require.NoError(t, err)
	_, err = f.games.JoinGame(ctx, gameID, bob)
	require.NoError(t, err)

	game := f.play(ctx, gameID, alice, bob, 0, 3, 1, 4, 8, 5)
	require.Equal(t, entity.StatusOWins, game.Status)
	require.NoError(t, f.games.ClaimRewards(ctx, gameID, bob))

	// Then: the token moved and native stayed untouched
	balance, err := f.escrow.GetBalance(ctx, bob)
	require.NoError(t, err)
	held, ok := balance.Of(entity.TokenAsset("USDC"))
	require.True(t, ok)
	assert.Equal(t, "160", held.String())
	assert.True(t, balance.Native.IsZero())

	balance, err = f.escrow.WithdrawToken(ctx, alice, "USDC", amount(40))
	require.NoError(t, err)
	held, _ = balance.Of(entity.TokenAsset("USDC"))
	assert.True(t, held.IsZero())

	require.ErrorIs(t, f.games.ClaimRewards(ctx, gameID, alice), apperror.ErrNotEligible)
}

func TestEscrow(t *testing.T) {
	t.Run("Deposit and withdraw", func(t *testing.T) {
		ctx, f := newFixture(t)

		f.deposit(ctx, alice, 1000)

		balance, err := f.escrow.Withdraw(ctx, alice, amount(400))
		require.NoError(t, err)
		assert.Equal(t, "600", balance.Native.String())
		f.requireNative(ctx, alice, 600)
	})

	t.Run("Withdraw more than held", func(t *testing.T) {
		ctx, f := newFixture(t)

		f.deposit(ctx, alice, 100)

		_, err := f.escrow.Withdraw(ctx, alice, amount(101))
		require.ErrorIs(t, err, apperror.ErrInsufficientBalance)
		f.requireNative(ctx, alice, 100)
	})

	t.Run("Withdraw an unknown token", func(t *testing.T) {
		ctx, f := newFixture(t)

		_, err := f.escrow.WithdrawToken(ctx, alice, "USDC", amount(1))
		require.ErrorIs(t, err, apperror.ErrUnknownAsset)
	})

	t.Run("Invalid input", func(t *testing.T) {
		ctx, f := newFixture(t)

		_, err := f.escrow.Deposit(ctx, alice, amount(0))
		require.ErrorIs(t, err, apperror.ErrInvalidAmount)

		_, err = f.escrow.Deposit(ctx, "", amount(1))
		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)

		_, err = f.escrow.DepositToken(ctx, alice, "", amount(1))
		require.ErrorIs(t, err, apperror.ErrInvalidAsset)

		_, err = f.escrow.GetBalance(ctx, "")
		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)
	})

	t.Run("Overflow", func(t *testing.T) {
		ctx, f := newFixture(t)

		_, err := f.escrow.Deposit(ctx, alice, entity.MaxAmount)
		require.NoError(t, err)

		_, err = f.escrow.Deposit(ctx, alice, amount(1))
		require.ErrorIs(t, err, apperror.ErrAmountOverflow)

		balance, err := f.escrow.GetBalance(ctx, alice)
		require.NoError(t, err)
		assert.True(t, balance.Native.Equal(entity.MaxAmount))
	})
}

func TestGameManager_CreateGame(t *testing.T) {
	t.Run("Ids count up", func(t *testing.T) {
		ctx, f := newFixture(t)

		first, err := f.games.CreateGame(ctx, alice)
		require.NoError(t, err)
		second, err := f.games.CreateGame(ctx, bob)
		require.NoError(t, err)

		assert.Equal(t, uint32(1), first)
		assert.Equal(t, uint32(2), second)

		bet, err := f.games.GetGameBet(ctx, first)
		require.NoError(t, err)
		assert.Nil(t, bet)
	})

	t.Run("Rejected bet creates nothing", func(t *testing.T) {
		ctx, f := newFixture(t)

		// Given: a player holding 100
		f.deposit(ctx, alice, 100)

		// When: they bet 500
		_, err := f.games.CreateGameWithBet(ctx, alice, amount(500), entity.NativeAsset())

		// Then: no game exists, no id was spent and funds are untouched
		require.ErrorIs(t, err, apperror.ErrInsufficientBalance)

		games, err := f.games.ListGames(ctx)
		require.NoError(t, err)
		assert.Empty(t, games)
		f.requireNative(ctx, alice, 100)

		gameID, err := f.games.CreateGame(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), gameID)
	})

	t.Run("Validation order", func(t *testing.T) {
		ctx, f := newFixture(t)

		_, err := f.games.CreateGame(ctx, "")
		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)

		_, err = f.games.CreateGameWithBet(ctx, "", amount(0), entity.Asset{})
		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)

		_, err = f.games.CreateGameWithBet(ctx, alice, amount(0), entity.Asset{})
		require.ErrorIs(t, err, apperror.ErrInvalidAmount)

		_, err = f.games.CreateGameWithBet(ctx, alice, amount(5), entity.Asset{})
		require.ErrorIs(t, err, apperror.ErrInvalidAsset)

		_, err = f.games.CreateGameWithBet(ctx, alice, amount(5), entity.NativeAsset())
		require.ErrorIs(t, err, apperror.ErrInsufficientBalance)
	})
}

func TestGameManager_JoinGame(t *testing.T) {
	t.Run("Failures", func(t *testing.T) {
		ctx, f := newFixture(t)

		gameID, err := f.games.CreateGame(ctx, alice)
		require.NoError(t, err)

		_, err = f.games.JoinGame(ctx, gameID, "")
		require.ErrorIs(t, err, apperror.ErrInvalidIdentity)

		_, err = f.games.JoinGame(ctx, 99, bob)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)

		_, err = f.games.JoinGame(ctx, gameID, alice)
		require.ErrorIs(t, err, apperror.ErrSelfJoin)

		_, err = f.games.JoinGame(ctx, gameID, bob)
		require.NoError(t, err)

		_, err = f.games.JoinGame(ctx, gameID, carol)
		require.ErrorIs(t, err, apperror.ErrGameFull)

		_, err = f.games.JoinGame(ctx, gameID, alice)
		require.ErrorIs(t, err, apperror.ErrGameFull)
	})

	t.Run("Underfunded opponent leaves the game open", func(t *testing.T) {
		ctx, f := newFixture(t)

		// Given: a 500 bet and an opponent holding 100
		f.deposit(ctx, alice, 500)
		f.deposit(ctx, bob, 100)

		gameID, err := f.games.CreateGameWithBet(ctx, alice, amount(500), entity.NativeAsset())
		require.NoError(t, err)

		// When: bob joins
		_, err = f.games.JoinGame(ctx, gameID, bob)

		// Then: he is refused and nothing moved
		require.ErrorIs(t, err, apperror.ErrInsufficientBalance)
		f.requireNative(ctx, bob, 100)

		game, err := f.games.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Nil(t, game.PlayerO)

		bet, err := f.games.GetGameBet(ctx, gameID)
		require.NoError(t, err)
		assert.False(t, bet.PlayerOPaid)
	})

	t.Run("Paid bet without an opponent", func(t *testing.T) {
		ctx, f := newFixture(t)

		// Given: a betting game whose record already marks O as paid
		f.deposit(ctx, bob, 100)
		game := entity.NewGame(1, alice, true)
		bet := entity.NewBet(amount(10), entity.NativeAsset())
		bet.PlayerOPaid = true
		f.seed(ctx, map[storage.Key]any{
			storage.GameCounterKey(): 1,
			storage.GameKey(1):       game,
			storage.GameBetKey(1):    bet,
		})

		// When: bob joins
		_, err := f.games.JoinGame(ctx, 1, bob)

		// Then: he is refused
		require.ErrorIs(t, err, apperror.ErrAlreadyPaid)
		f.requireNative(ctx, bob, 100)
	})

	t.Run("Betting game without its bet record", func(t *testing.T) {
		ctx, f := newFixture(t)

		// Given: a betting game with no bet record
		f.deposit(ctx, bob, 100)
		f.seed(ctx, map[storage.Key]any{
			storage.GameCounterKey(): 1,
			storage.GameKey(1):       entity.NewGame(1, alice, true),
		})

		// When: bob joins
		_, err := f.games.JoinGame(ctx, 1, bob)

		// Then: the broken record is reported as a defect
		require.ErrorIs(t, err, apperror.ErrBetNotFound)
		assert.True(t, apperror.IsDefect(err))

		// Then: the listing degrades it to a non-betting row
		games, err := f.games.ListGames(ctx)
		require.NoError(t, err)
		require.Len(t, games, 1)
		assert.False(t, games[0].HasBet)
	})
}

func TestGameManager_MakeMove(t *testing.T) {
	ctx, f := newFixture(t)

	gameID, err := f.games.CreateGame(ctx, alice)
	require.NoError(t, err)

	// Then: nobody moves before the opponent arrives
	_, err = f.games.MakeMove(ctx, gameID, alice, 0)
	require.ErrorIs(t, err, apperror.ErrAwaitingSecondPlayer)

	_, err = f.games.JoinGame(ctx, gameID, bob)
	require.NoError(t, err)

	_, err = f.games.MakeMove(ctx, gameID, alice, 9)
	require.ErrorIs(t, err, apperror.ErrInvalidPosition)

	_, err = f.games.MakeMove(ctx, 99, alice, 9)
	require.ErrorIs(t, err, apperror.ErrInvalidPosition)

	_, err = f.games.MakeMove(ctx, 99, alice, 0)
	require.ErrorIs(t, err, apperror.ErrGameNotFound)

	_, err = f.games.MakeMove(ctx, gameID, bob, 0)
	require.ErrorIs(t, err, apperror.ErrNotYourTurn)

	game, err := f.games.MakeMove(ctx, gameID, alice, 4)
	require.NoError(t, err)
	assert.Equal(t, entity.MarkO, game.CurrentPlayer)

	_, err = f.games.MakeMove(ctx, gameID, bob, 4)
	require.ErrorIs(t, err, apperror.ErrCellOccupied)

	// Then: rejected moves left the stored board alone
	board, err := f.games.GetBoard(ctx, gameID)
	require.NoError(t, err)

	expected := entity.Board{}
	expected[4] = entity.MarkX
	assert.Equal(t, expected, board)

	f.play(ctx, gameID, bob, alice, 0, 1, 3, 2, 6)

	_, err = f.games.MakeMove(ctx, gameID, alice, 8)
	require.ErrorIs(t, err, apperror.ErrGameFinished)

	game, err = f.games.GetGame(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOWins, game.Status)
}

func TestGameManager_ClaimRewards(t *testing.T) {
	t.Run("Failures", func(t *testing.T) {
		ctx, f := newFixture(t)

		f.deposit(ctx, alice, 100)
		f.deposit(ctx, bob, 100)

		plain, err := f.games.CreateGame(ctx, alice)
		require.NoError(t, err)

		betting, err := f.games.CreateGameWithBet(ctx, alice, amount(100), entity.NativeAsset())
		require.NoError(t, err)
		_, err = f.games.JoinGame(ctx, betting, bob)
		require.NoError(t, err)

		require.ErrorIs(t, f.games.ClaimRewards(ctx, betting, ""), apperror.ErrInvalidIdentity)
		require.ErrorIs(t, f.games.ClaimRewards(ctx, 99, alice), apperror.ErrGameNotFound)
		require.ErrorIs(t, f.games.ClaimRewards(ctx, plain, alice), apperror.ErrNoBetting)
		require.ErrorIs(t, f.games.ClaimRewards(ctx, betting, alice), apperror.ErrGameInProgress)

		f.play(ctx, betting, alice, bob, 0, 3, 1, 4, 2)

		require.ErrorIs(t, f.games.ClaimRewards(ctx, betting, carol), apperror.ErrNotAParticipant)
		require.ErrorIs(t, f.games.ClaimRewards(ctx, betting, bob), apperror.ErrNotEligible)

		f.requireNative(ctx, alice, 0)
		f.requireNative(ctx, bob, 0)
	})

	t.Run("Claimed status is never claimable", func(t *testing.T) {
		ctx, f := newFixture(t)

		// Given: a stored game carrying the claimed status
		game := entity.NewGame(1, alice, true)
		game.Join(bob)
		game.Status = entity.StatusClaimed
		bet := entity.NewBet(amount(10), entity.NativeAsset())
		bet.PlayerOPaid = true
		f.seed(ctx, map[storage.Key]any{
			storage.GameCounterKey(): 1,
			storage.GameKey(1):       game,
			storage.GameBetKey(1):    bet,
		})

		// When: a participant claims
		err := f.games.ClaimRewards(ctx, 1, alice)

		// Then: it is refused
		require.ErrorIs(t, err, apperror.ErrInvalidClaimState)
		f.requireNative(ctx, alice, 0)
	})
}

func TestGameManager_ListGames(t *testing.T) {
	ctx, f := newFixture(t)

	// Given: a plain game, a native bet and a token bet
	f.deposit(ctx, alice, 100)
	_, err := f.escrow.DepositToken(ctx, bob, "USDC", amount(10))
	require.NoError(t, err)

	_, err = f.games.CreateGame(ctx, alice)
	require.NoError(t, err)
	_, err = f.games.CreateGameWithBet(ctx, alice, amount(50), entity.NativeAsset())
	require.NoError(t, err)
	_, err = f.games.CreateGameWithBet(ctx, bob, amount(10), entity.TokenAsset("USDC"))
	require.NoError(t, err)

	// When: games are listed twice
	games, err := f.games.ListGames(ctx)
	require.NoError(t, err)

	again, err := f.games.ListGames(ctx)
	require.NoError(t, err)

	// Then: rows come in id order and reads change nothing
	require.Len(t, games, 3)
	assert.Equal(t, games, again)

	assert.Equal(t, uint32(1), games[0].ID)
	assert.False(t, games[0].HasBet)
	assert.Equal(t, "XLM", games[0].BetTokenSymbol)

	assert.True(t, games[1].HasBet)
	assert.Equal(t, "50", games[1].BetAmount.String())
	assert.True(t, games[1].BetTokenNative)

	assert.Equal(t, bob, games[2].PlayerX)
	assert.False(t, games[2].BetTokenNative)
	assert.Equal(t, "USDC", games[2].BetTokenSymbol)
}

func TestGameManager_ListGames_SkipsMissingRecords(t *testing.T) {
	ctx, f := newFixture(t)

	// Given: a counter ahead of the stored games
	f.seed(ctx, map[storage.Key]any{
		storage.GameCounterKey(): 3,
		storage.GameKey(2):       entity.NewGame(2, alice, false),
	})

	// When: games are listed
	games, err := f.games.ListGames(ctx)

	// Then: only the stored game shows up
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, uint32(2), games[0].ID)
}
