package rest

import (
	"encoding/json"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps a failure kind onto an HTTP status.
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInputValidation:
		return http.StatusBadRequest
	case apperror.KindStateNotFound:
		return http.StatusNotFound
	case apperror.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case apperror.KindGameRuleViolation, apperror.KindSettlementViolation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (that *Handlers) writeAppError(w http.ResponseWriter, err error) {
	appErr, ok := apperror.As(err)
	if !ok || apperror.IsDefect(err) {
		that.logger.Error("request failed", "error", err)
		that.writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    "internal",
			Message: "Internal Server Error",
		}})
		return
	}

	that.writeJSON(w, statusFor(appErr.Kind), errorBody{Error: errorDetail{
		Kind:    string(appErr.Kind),
		Code:    appErr.Code,
		Message: appErr.Message,
	}})
}

func (that *Handlers) writeError(w http.ResponseWriter, status int, code string, err error) {
	that.writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func (that *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
