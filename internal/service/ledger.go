package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
)

type balanceRepo interface {
	CreateOrUpdate(ctx context.Context, user entity.Identity, balance *entity.UserBalance) error
	GetByIdentity(ctx context.Context, user entity.Identity) (*entity.UserBalance, error)
}

// Ledger moves funds between users' available balances and game stakes.
// A stake is not a separate pool: locking debits the balance and paying out credits it.
type Ledger struct {
	balances balanceRepo
}

func NewLedger(balances balanceRepo) *Ledger {
	return &Ledger{
		balances: balances,
	}
}

func (that *Ledger) Deposit(ctx context.Context, user entity.Identity, asset entity.Asset, amount decimal.Decimal) (*entity.UserBalance, error) {
	if err := validateTransfer(user, asset, amount); err != nil {
		return nil, err
	}

	balance, err := that.Balance(ctx, user)
	if err != nil {
		return nil, err
	}

	if err = balance.Credit(asset, amount); err != nil {
		return nil, err
	}

	if err = that.balances.CreateOrUpdate(ctx, user, balance); err != nil {
		return nil, fmt.Errorf("failed to save balance: %w", err)
	}

	return balance, nil
}

func (that *Ledger) Withdraw(ctx context.Context, user entity.Identity, asset entity.Asset, amount decimal.Decimal) (*entity.UserBalance, error) {
	if err := validateTransfer(user, asset, amount); err != nil {
		return nil, err
	}

	balance, err := that.Balance(ctx, user)
	if err != nil {
		return nil, err
	}

	held, ok := balance.Of(asset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrUnknownAsset, asset.TokenID)
	}

	if held.LessThan(amount) {
		return nil, apperror.ErrInsufficientBalance
	}

	balance.Debit(asset, amount)

	if err = that.balances.CreateOrUpdate(ctx, user, balance); err != nil {
		return nil, fmt.Errorf("failed to save balance: %w", err)
	}

	return balance, nil
}

// Balance returns the user's balance; identities without funds hold zero.
func (that *Ledger) Balance(ctx context.Context, user entity.Identity) (*entity.UserBalance, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	balance, err := that.balances.GetByIdentity(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// RequireFunds fails with ErrInsufficientBalance unless user holds amount of asset.
func (that *Ledger) RequireFunds(ctx context.Context, user entity.Identity, asset entity.Asset, amount decimal.Decimal) error {
	balance, err := that.Balance(ctx, user)
	if err != nil {
		return err
	}

	if !balance.Covers(asset, amount) {
		return apperror.ErrInsufficientBalance
	}

	return nil
}

// Lock moves amount into a game stake. It does not re-check sufficiency: the
// caller runs RequireFunds earlier in the same operation.
func (that *Ledger) Lock(ctx context.Context, user entity.Identity, asset entity.Asset, amount decimal.Decimal) error {
	balance, err := that.Balance(ctx, user)
	if err != nil {
		return err
	}

	balance.Debit(asset, amount)

	if err = that.balances.CreateOrUpdate(ctx, user, balance); err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}

	return nil
}

// Unlock pays amount out of a game stake, creating the token entry if needed.
func (that *Ledger) Unlock(ctx context.Context, user entity.Identity, asset entity.Asset, amount decimal.Decimal) error {
	balance, err := that.Balance(ctx, user)
	if err != nil {
		return err
	}

	if err = balance.Credit(asset, amount); err != nil {
		return err
	}

	if err = that.balances.CreateOrUpdate(ctx, user, balance); err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}

	return nil
}

func validateTransfer(user entity.Identity, asset entity.Asset, amount decimal.Decimal) error {
	if err := user.Validate(); err != nil {
		return err
	}

	if err := entity.ValidateAmount(amount); err != nil {
		return err
	}

	return asset.Validate()
}
