package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

// CallerHeader carries the identity of the player making the request.
const CallerHeader = "X-Player-ID"

const maxBodyBytes = 1 << 16

var (
	errMissingCaller = errors.New("missing " + CallerHeader + " header")
	errInvalidGameID = errors.New("invalid game id")
	errInvalidBody   = errors.New("invalid request body")

	errMissingPosition = errors.New("position is required")
)

type gameUseCase interface {
	CreateGame(ctx context.Context, playerX entity.Identity) (uint32, error)
	CreateGameWithBet(ctx context.Context, playerX entity.Identity, amount decimal.Decimal, tokenType entity.Asset) (uint32, error)
	JoinGame(ctx context.Context, gameID uint32, playerO entity.Identity) (*entity.Game, error)
	MakeMove(ctx context.Context, gameID uint32, player entity.Identity, position int) (*entity.Game, error)
	GetGame(ctx context.Context, gameID uint32) (*entity.Game, error)
	GetBoard(ctx context.Context, gameID uint32) (entity.Board, error)
	ListGames(ctx context.Context) ([]entity.GameSummary, error)
	GetGameBet(ctx context.Context, gameID uint32) (*entity.Bet, error)
	ClaimRewards(ctx context.Context, gameID uint32, player entity.Identity) error
}

type escrowUseCase interface {
	Deposit(ctx context.Context, user entity.Identity, amount decimal.Decimal) (*entity.UserBalance, error)
	DepositToken(ctx context.Context, user entity.Identity, tokenID string, amount decimal.Decimal) (*entity.UserBalance, error)
	Withdraw(ctx context.Context, user entity.Identity, amount decimal.Decimal) (*entity.UserBalance, error)
	WithdrawToken(ctx context.Context, user entity.Identity, tokenID string, amount decimal.Decimal) (*entity.UserBalance, error)
	GetBalance(ctx context.Context, user entity.Identity) (*entity.UserBalance, error)
}

type Handlers struct {
	logger *slog.Logger

	games  gameUseCase
	escrow escrowUseCase
}

func NewHandlers(logger *slog.Logger, games gameUseCase, escrow escrowUseCase) *Handlers {
	return &Handlers{
		logger: logger.With("component", "rest"),
		games:  games,
		escrow: escrow,
	}
}

// Routes returns the HTTP routing table.
func (that *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)

	mux.HandleFunc("GET /v1/balances/{identity}", that.getBalance)
	mux.HandleFunc("POST /v1/balance/deposit", that.withCaller(that.deposit))
	mux.HandleFunc("POST /v1/balance/withdraw", that.withCaller(that.withdraw))

	mux.HandleFunc("GET /v1/games", that.listGames)
	mux.HandleFunc("POST /v1/games", that.withCaller(that.createGame))
	mux.HandleFunc("GET /v1/games/{id}", that.getGame)
	mux.HandleFunc("GET /v1/games/{id}/board", that.getBoard)
	mux.HandleFunc("GET /v1/games/{id}/bet", that.getGameBet)
	mux.HandleFunc("POST /v1/games/{id}/join", that.withCaller(that.joinGame))
	mux.HandleFunc("POST /v1/games/{id}/moves", that.withCaller(that.makeMove))
	mux.HandleFunc("POST /v1/games/{id}/claim", that.withCaller(that.claimRewards))

	return mux
}

type callerHandler func(w http.ResponseWriter, r *http.Request, caller entity.Identity)

// withCaller resolves the acting identity from the request.
func (that *Handlers) withCaller(next callerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := entity.Identity(r.Header.Get(CallerHeader))
		if caller == "" {
			that.writeError(w, http.StatusUnauthorized, "missing_caller", errMissingCaller)
			return
		}

		next(w, r, caller)
	}
}

type transferRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	TokenID string          `json:"token_id,omitempty"`
}

type betRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	TokenType entity.Asset    `json:"token_type"`
}

type createGameRequest struct {
	Bet *betRequest `json:"bet,omitempty"`
}

type moveRequest struct {
	Position *int `json:"position"`
}

type createGameResponse struct {
	ID uint32 `json:"id"`
}

func (that *Handlers) getBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := that.escrow.GetBalance(r.Context(), entity.Identity(r.PathValue("identity")))
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, balance)
}

func (that *Handlers) deposit(w http.ResponseWriter, r *http.Request, caller entity.Identity) {
	var req transferRequest
	if !that.decode(w, r, &req) {
		return
	}

	var balance *entity.UserBalance
	var err error

	if req.TokenID == "" {
		balance, err = that.escrow.Deposit(r.Context(), caller, req.Amount)
	} else {
		balance, err = that.escrow.DepositToken(r.Context(), caller, req.TokenID, req.Amount)
	}

	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, balance)
}

func (that *Handlers) withdraw(w http.ResponseWriter, r *http.Request, caller entity.Identity) {
	var req transferRequest
	if !that.decode(w, r, &req) {
		return
	}

	var balance *entity.UserBalance
	var err error

	if req.TokenID == "" {
		balance, err = that.escrow.Withdraw(r.Context(), caller, req.Amount)
	} else {
		balance, err = that.escrow.WithdrawToken(r.Context(), caller, req.TokenID, req.Amount)
	}

	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, balance)
}

func (that *Handlers) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := that.games.ListGames(r.Context())
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, games)
}

func (that *Handlers) createGame(w http.ResponseWriter, r *http.Request, caller entity.Identity) {
	var req createGameRequest
	if r.ContentLength != 0 && !that.decode(w, r, &req) {
		return
	}

	var id uint32
	var err error

	if req.Bet == nil {
		id, err = that.games.CreateGame(r.Context(), caller)
	} else {
		id, err = that.games.CreateGameWithBet(r.Context(), caller, req.Bet.Amount, req.Bet.TokenType)
	}

	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, createGameResponse{ID: id})
}

func (that *Handlers) getGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := that.gameID(w, r)
	if !ok {
		return
	}

	game, err := that.games.GetGame(r.Context(), gameID)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Handlers) getBoard(w http.ResponseWriter, r *http.Request) {
	gameID, ok := that.gameID(w, r)
	if !ok {
		return
	}

	board, err := that.games.GetBoard(r.Context(), gameID)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, board)
}

func (that *Handlers) getGameBet(w http.ResponseWriter, r *http.Request) {
	gameID, ok := that.gameID(w, r)
	if !ok {
		return
	}

	bet, err := that.games.GetGameBet(r.Context(), gameID)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, bet)
}

func (that *Handlers) joinGame(w http.ResponseWriter, r *http.Request, caller entity.Identity) {
	gameID, ok := that.gameID(w, r)
	if !ok {
		return
	}

	game, err := that.games.JoinGame(r.Context(), gameID, caller)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Handlers) makeMove(w http.ResponseWriter, r *http.Request, caller entity.Identity) {
	gameID, ok := that.gameID(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.Position == nil {
		that.writeError(w, http.StatusBadRequest, "invalid_body", errMissingPosition)
		return
	}

	game, err := that.games.MakeMove(r.Context(), gameID, caller, *req.Position)
	if err != nil {
		that.writeAppError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Handlers) claimRewards(w http.ResponseWriter, r *http.Request, caller entity.Identity) {
	gameID, ok := that.gameID(w, r)
	if !ok {
		return
	}

	if err := that.games.ClaimRewards(r.Context(), gameID, caller); err != nil {
		that.writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Handlers) gameID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid_game_id", errInvalidGameID)
		return 0, false
	}

	return uint32(id), true
}

func (that *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		that.writeError(w, http.StatusBadRequest, "invalid_body", errInvalidBody)
		return false
	}

	return true
}
