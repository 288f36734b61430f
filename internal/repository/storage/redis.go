package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisStorage struct {
	Connection *redis.Client

	prefix string
}

func NewRedisStorage(ctx context.Context, addr, prefix string) (*RedisStorage, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	_, err := conn.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisBackend(conn, prefix), nil
}

// NewRedisBackend wraps an already connected client.
func NewRedisBackend(conn *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{Connection: conn, prefix: prefix}
}

func (that *RedisStorage) Load(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := that.Connection.Get(ctx, that.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get record: %w", err)
	}

	return value, true, nil
}

// Commit writes the whole set inside MULTI/EXEC.
func (that *RedisStorage) Commit(ctx context.Context, writes []Write) error {
	_, err := that.Connection.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, write := range writes {
			pipe.Set(ctx, that.prefix+write.Key, write.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set records: %w", err)
	}

	return nil
}

func (that *RedisStorage) Close() error {
	return that.Connection.Close()
}
