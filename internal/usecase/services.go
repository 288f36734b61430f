package usecase

import (
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/service"
)

// services binds the domain services to one storage transaction.
type services struct {
	ledger     *service.Ledger
	gamePlay   *service.GamePlay
	settlement *service.Settlement
}

func newServices(logger *slog.Logger, tx storage.KV) *services {
	gameRepo := repository.NewGameRepository(tx)
	betRepo := repository.NewBetRepository(tx)
	ledger := service.NewLedger(repository.NewBalanceRepository(tx))

	return &services{
		ledger:     ledger,
		gamePlay:   service.NewGamePlay(logger, gameRepo, betRepo, ledger),
		settlement: service.NewSettlement(gameRepo, betRepo, ledger),
	}
}

// logFailure records a rejected operation. Named failures are expected traffic;
// anything else is a fault of the service itself.
func logFailure(log *slog.Logger, err error) {
	appErr, ok := apperror.As(err)
	switch {
	case ok && apperror.IsDefect(err):
		log.Error("storage invariant broken", "code", appErr.Code, "error", err)
	case ok:
		log.Debug("operation rejected", "code", appErr.Code, "kind", appErr.Kind)
	default:
		log.Error("operation failed", "error", err)
	}
}
