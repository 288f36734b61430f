package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/entity"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
)

type BalanceRepository interface {
	CreateOrUpdate(ctx context.Context, user entity.Identity, balance *entity.UserBalance) error
	// GetByIdentity returns a zero balance for identities never stored.
	GetByIdentity(ctx context.Context, user entity.Identity) (*entity.UserBalance, error)
}

type dbBalance struct {
	kv storage.KV
}

func NewBalanceRepository(kv storage.KV) BalanceRepository {
	return &dbBalance{
		kv: kv,
	}
}

func (that *dbBalance) CreateOrUpdate(ctx context.Context, user entity.Identity, balance *entity.UserBalance) error {
	balanceJSON, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("could not marshal balance: %w", err)
	}

	if err = that.kv.Set(ctx, storage.BalanceKey(string(user)), balanceJSON); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}

	return nil
}

func (that *dbBalance) GetByIdentity(ctx context.Context, user entity.Identity) (*entity.UserBalance, error) {
	response, err := that.kv.Get(ctx, storage.BalanceKey(string(user)))
	if errors.Is(err, storage.ErrNotFound) {
		return entity.NewUserBalance(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	existingBalance := entity.NewUserBalance()
	if err = json.Unmarshal(response, existingBalance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balance: %w", err)
	}

	return existingBalance, nil
}
