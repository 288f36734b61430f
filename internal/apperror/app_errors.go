package apperror

import "errors"

// Kind groups failures the way callers react to them.
type Kind string

const (
	KindInputValidation     Kind = "input_validation"
	KindStateNotFound       Kind = "state_not_found"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindGameRuleViolation   Kind = "game_rule_violation"
	KindSettlementViolation Kind = "settlement_violation"
)

// Error is a named failure of a public operation. Every operation aborts on the
// first Error it meets and leaves no partial state behind.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	defect bool
}

func (that *Error) Error() string {
	return that.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrInvalidAmount   = newError(KindInputValidation, "invalid_amount", "amount must be a positive integer")
	ErrAmountOverflow  = newError(KindInputValidation, "amount_overflow", "resulting balance exceeds the supported range")
	ErrInvalidPosition = newError(KindInputValidation, "invalid_position", "invalid position: must be 0-8")
	ErrInvalidIdentity = newError(KindInputValidation, "invalid_identity", "identity must not be empty")
	ErrInvalidAsset    = newError(KindInputValidation, "invalid_asset", "token type must be native or name a token id")

	ErrGameNotFound = newError(KindStateNotFound, "game_not_found", "game not found")
	// ErrBetNotFound means a betting game lost its bet record.
	ErrBetNotFound = &Error{Kind: KindStateNotFound, Code: "bet_not_found", Message: "game bet not found", defect: true}

	ErrInsufficientBalance = newError(KindInsufficientFunds, "insufficient_balance", "insufficient balance")
	ErrUnknownAsset        = newError(KindInsufficientFunds, "unknown_asset", "token not found in balance")

	ErrGameFinished         = newError(KindGameRuleViolation, "game_finished", "game is already finished")
	ErrAwaitingSecondPlayer = newError(KindGameRuleViolation, "awaiting_second_player", "game needs a second player")
	ErrNotYourTurn          = newError(KindGameRuleViolation, "not_your_turn", "it's not your turn")
	ErrCellOccupied         = newError(KindGameRuleViolation, "cell_occupied", "cell is already occupied")
	ErrSelfJoin             = newError(KindGameRuleViolation, "self_join", "cannot join your own game")
	ErrGameFull             = newError(KindGameRuleViolation, "game_full", "game already has two players")
	ErrAlreadyPaid          = newError(KindGameRuleViolation, "already_paid", "player O has already paid")

	ErrNoBetting         = newError(KindSettlementViolation, "no_betting", "game has no betting")
	ErrGameInProgress    = newError(KindSettlementViolation, "game_in_progress", "game is still in progress")
	ErrNotAParticipant   = newError(KindSettlementViolation, "not_a_participant", "not a player in this game")
	ErrAlreadyClaimed    = newError(KindSettlementViolation, "already_claimed", "rewards already claimed")
	ErrNotEligible       = newError(KindSettlementViolation, "not_eligible", "player cannot claim rewards")
	ErrInvalidClaimState = newError(KindSettlementViolation, "invalid_claim_state", "invalid game status for claiming")
)

// As returns the named failure wrapped in err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// KindOf reports the taxonomy kind of err.
func KindOf(err error) (Kind, bool) {
	appErr, ok := As(err)
	if !ok {
		return "", false
	}

	return appErr.Kind, true
}

// IsDefect reports whether err signals a broken storage invariant rather than a caller mistake.
func IsDefect(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.defect
}
