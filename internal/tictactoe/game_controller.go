package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

// WinCombos lists rows, columns and diagonals in evaluation order.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// ValidatePosition checks that position addresses a board cell.
func ValidatePosition(position int) error {
	if position < 0 || position >= entity.BoardSize {
		return apperror.ErrInvalidPosition
	}
	return nil
}

// MakeTurn places the current player's mark for player at position. The game
// is left untouched when the move is rejected.
func MakeTurn(gameInstance *entity.Game, player entity.Identity, position int) error {
	if err := ValidatePosition(position); err != nil {
		return err
	}

	if err := validateMove(gameInstance, player, position); err != nil {
		return err
	}

	gameInstance.Board[position] = gameInstance.CurrentPlayer
	updateGameStatus(gameInstance)

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(gameInstance *entity.Game, player entity.Identity, position int) error {
	if !gameInstance.IsInProgress() {
		return apperror.ErrGameFinished
	}

	if !gameInstance.HasOpponent() {
		return apperror.ErrAwaitingSecondPlayer
	}

	expected, _ := gameInstance.PlayerFor(gameInstance.CurrentPlayer)
	if player != expected {
		return apperror.ErrNotYourTurn
	}

	if gameInstance.Board[position] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - evaluates the board and passes the turn while the game goes on.
func updateGameStatus(gameInstance *entity.Game) {
	gameInstance.Status = CheckGameStatus(gameInstance.Board)

	if gameInstance.IsInProgress() {
		gameInstance.CurrentPlayer = gameInstance.CurrentPlayer.Opponent()
	}
}

// CheckGameStatus returns the status the board implies: the first completed
// line in WinCombos decides the winner, a full board without one is a draw.
func CheckGameStatus(board entity.Board) entity.Status {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			if a == entity.MarkX {
				return entity.StatusXWins
			}
			return entity.StatusOWins
		}
	}

	if board.IsFull() {
		return entity.StatusDraw
	}

	return entity.StatusInProgress
}
