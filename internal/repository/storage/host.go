package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrReadOnly   = errors.New("storage view is read-only")
	ErrInvalidKey = errors.New("invalid storage key")
)

// KV is the record store an operation sees. Records are read and written whole.
type KV interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Has(ctx context.Context, key Key) (bool, error)
	Set(ctx context.Context, key Key, value []byte) error
}

// Write is one record of a committed write-set.
type Write struct {
	Key   string
	Value []byte
}

// Backend is durable storage. Commit must apply all writes or none.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Commit(ctx context.Context, writes []Write) error
	Close() error
}

// Host runs operations one at a time against a Backend. Writes made by an
// operation stay buffered until it returns nil and are then committed together;
// a failed operation leaves the backend untouched. Serialization covers one
// process only, so a backend must not be shared by two hosts.
type Host struct {
	mu      sync.Mutex
	backend Backend
}

func NewHost(backend Backend) *Host {
	return &Host{backend: backend}
}

// Atomic runs fn as one indivisible operation.
func (that *Host) Atomic(ctx context.Context, fn func(tx KV) error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	tx := newTx(that.backend, false)
	if err := fn(tx); err != nil {
		return err
	}

	writes := tx.writes()
	if len(writes) == 0 {
		return nil
	}

	if err := that.backend.Commit(ctx, writes); err != nil {
		return fmt.Errorf("failed to commit %d records: %w", len(writes), err)
	}

	return nil
}

// View runs a read-only fn. Any Set fails with ErrReadOnly.
func (that *Host) View(ctx context.Context, fn func(tx KV) error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return fn(newTx(that.backend, true))
}

func (that *Host) Close() error {
	return that.backend.Close()
}

type tx struct {
	backend  Backend
	readOnly bool

	pending map[string][]byte
	order   []string
}

func newTx(backend Backend, readOnly bool) *tx {
	return &tx{
		backend:  backend,
		readOnly: readOnly,
		pending:  make(map[string][]byte),
	}
}

func (that *tx) Get(ctx context.Context, key Key) ([]byte, error) {
	name := key.String()
	if name == "" {
		return nil, ErrInvalidKey
	}

	if value, ok := that.pending[name]; ok {
		return value, nil
	}

	value, ok, err := that.backend.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	if !ok {
		return nil, ErrNotFound
	}

	return value, nil
}

func (that *tx) Has(ctx context.Context, key Key) (bool, error) {
	_, err := that.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (that *tx) Set(_ context.Context, key Key, value []byte) error {
	if that.readOnly {
		return ErrReadOnly
	}

	name := key.String()
	if name == "" {
		return ErrInvalidKey
	}

	if _, ok := that.pending[name]; !ok {
		that.order = append(that.order, name)
	}
	that.pending[name] = value

	return nil
}

func (that *tx) writes() []Write {
	writes := make([]Write, 0, len(that.order))
	for _, name := range that.order {
		writes = append(writes, Write{Key: name, Value: that.pending[name]})
	}
	return writes
}
