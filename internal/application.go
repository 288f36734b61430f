package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-escrow/internal/config"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-escrow/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-escrow/transport/rest"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// UseCases is the public operation surface shared by every entrypoint.
type UseCases struct {
	Games  *usecase.GameManager
	Escrow *usecase.Escrow
}

func NewUseCases(logger *slog.Logger, conf *config.Config, host *storage.Host) *UseCases {
	return &UseCases{
		Games:  usecase.NewGameManager(logger, host, conf.Ledger.NativeSymbol),
		Escrow: usecase.NewEscrow(logger, host),
	}
}

// OpenStorage connects the configured backend and wraps it in a Host.
func OpenStorage(ctx context.Context, conf *config.Config) (*storage.Host, error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return storage.NewHost(redisStorage), nil
	case config.DriverPostgres:
		postgresStorage, err := storage.NewPostgresStorage(ctx, conf.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("could not connect to postgres storage: %w", err)
		}

		if err = postgresStorage.Init(ctx); err != nil {
			_ = postgresStorage.Close()
			return nil, fmt.Errorf("could not init postgres storage: %w", err)
		}

		return storage.NewHost(postgresStorage), nil
	case config.DriverMemory:
		return storage.NewHost(storage.NewMemoryStorage()), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	host, err := OpenStorage(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = host.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	useCases := NewUseCases(logger, conf, host)
	handlers := rest.NewHandlers(logger, useCases.Games, useCases.Escrow)

	log.Info("Starting HTTP server", "port", conf.HTTPPort, "storage", conf.Storage.Driver)

	if err = rest.Start(ctx, conf.HTTPPort, handlers.Routes()); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}
