package entity

import (
	"bytes"
	"encoding/json"
)

const BoardSize = 9

// Mark is the symbol a player puts on the board.
type Mark string

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	EmptyCell Mark = ""
)

// Opponent returns the other player's mark.
func (that Mark) Opponent() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

var jsonNull = []byte("null")

// MarshalJSON writes an empty cell as null.
func (that Mark) MarshalJSON() ([]byte, error) {
	if that == EmptyCell {
		return jsonNull, nil
	}
	return json.Marshal(string(that))
}

func (that *Mark) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, jsonNull) {
		*that = EmptyCell
		return nil
	}

	var mark string
	if err := json.Unmarshal(data, &mark); err != nil {
		return err
	}

	*that = Mark(mark)
	return nil
}

type Board [BoardSize]Mark

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusXWins      Status = "x_wins"
	StatusOWins      Status = "o_wins"
	StatusDraw       Status = "draw"
	// StatusClaimed is never assigned: settled games keep their outcome so that
	// claim eligibility can still be computed from it.
	StatusClaimed Status = "claimed"
)

type Game struct {
	ID            uint32    `json:"id"`
	Board         Board     `json:"board"`
	CurrentPlayer Mark      `json:"current_player"`
	PlayerX       Identity  `json:"player_x"`
	PlayerO       *Identity `json:"player_o,omitempty"`
	Status        Status    `json:"status"`
	HasBet        bool      `json:"has_bet"`
}

func NewGame(id uint32, playerX Identity, hasBet bool) *Game {
	return &Game{
		ID:            id,
		Board:         Board{},
		CurrentPlayer: MarkX,
		PlayerX:       playerX,
		Status:        StatusInProgress,
		HasBet:        hasBet,
	}
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) HasOpponent() bool {
	return that.PlayerO != nil
}

// Join seats the second player. It never replaces a seated opponent.
func (that *Game) Join(playerO Identity) bool {
	if that.HasOpponent() {
		return false
	}

	that.PlayerO = &playerO
	return true
}

// PlayerFor returns the identity playing the given mark.
func (that *Game) PlayerFor(mark Mark) (Identity, bool) {
	if mark == MarkX {
		return that.PlayerX, true
	}

	if that.PlayerO == nil {
		return "", false
	}
	return *that.PlayerO, true
}

// IsParticipant reports whether player sits at this game.
func (that *Game) IsParticipant(player Identity) bool {
	if player == that.PlayerX {
		return true
	}
	return that.PlayerO != nil && *that.PlayerO == player
}
