package usecase

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
)

// Escrow is the public surface of the balance ledger.
type Escrow struct {
	logger *slog.Logger
	host   *storage.Host
}

func NewEscrow(logger *slog.Logger, host *storage.Host) *Escrow {
	return &Escrow{
		logger: logger.With("component", "escrow"),
		host:   host,
	}
}

func (that *Escrow) Deposit(ctx context.Context, user entity.Identity, amount decimal.Decimal) (*entity.UserBalance, error) {
	return that.deposit(ctx, "Deposit", user, entity.NativeAsset(), amount)
}

func (that *Escrow) DepositToken(ctx context.Context, user entity.Identity, tokenID string, amount decimal.Decimal) (*entity.UserBalance, error) {
	return that.deposit(ctx, "DepositToken", user, entity.TokenAsset(tokenID), amount)
}

func (that *Escrow) Withdraw(ctx context.Context, user entity.Identity, amount decimal.Decimal) (*entity.UserBalance, error) {
	return that.withdraw(ctx, "Withdraw", user, entity.NativeAsset(), amount)
}

func (that *Escrow) WithdrawToken(ctx context.Context, user entity.Identity, tokenID string, amount decimal.Decimal) (*entity.UserBalance, error) {
	return that.withdraw(ctx, "WithdrawToken", user, entity.TokenAsset(tokenID), amount)
}

func (that *Escrow) GetBalance(ctx context.Context, user entity.Identity) (*entity.UserBalance, error) {
	var balance *entity.UserBalance

	err := that.host.View(ctx, func(tx storage.KV) error {
		var err error
		balance, err = newServices(that.logger, tx).ledger.Balance(ctx, user)
		return err
	})
	if err != nil {
		logFailure(that.logger.With("method", "GetBalance"), err)
		return nil, err
	}

	return balance, nil
}

func (that *Escrow) deposit(ctx context.Context, method string, user entity.Identity, asset entity.Asset, amount decimal.Decimal) (*entity.UserBalance, error) {
	log := that.logger.With("method", method, "user", user)

	var balance *entity.UserBalance

	err := that.host.Atomic(ctx, func(tx storage.KV) error {
		var err error
		balance, err = newServices(that.logger, tx).ledger.Deposit(ctx, user, asset, amount)
		return err
	})
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	log.Info("funds deposited", "asset", asset, "amount", amount.String())

	return balance, nil
}

func (that *Escrow) withdraw(ctx context.Context, method string, user entity.Identity, asset entity.Asset, amount decimal.Decimal) (*entity.UserBalance, error) {
	log := that.logger.With("method", method, "user", user)

	var balance *entity.UserBalance

	err := that.host.Atomic(ctx, func(tx storage.KV) error {
		var err error
		balance, err = newServices(that.logger, tx).ledger.Withdraw(ctx, user, asset, amount)
		return err
	})
	if err != nil {
		logFailure(log, err)
		return nil, err
	}

	log.Info("funds withdrawn", "asset", asset, "amount", amount.String())

	return balance, nil
}
