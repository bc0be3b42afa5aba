// =============================================================================
// Labor Ledger - Durable Storage
// =============================================================================
//
// The console keeps all durable state under five keys in a key-value store.
// Every value is a JSON document, read whole and written whole: a mutation
// re-serializes the entire collection and overwrites the previous value.
//
// KEYS:
//   workData     : []types.WorkRecord
//   expenseData  : []types.ExpenseRecord
//   workers      : []types.Worker
//   sites        : []types.Site
//   adminConfig  : config.AdminConfig
//
// BACKENDS:
//   file    : one <key>.json per key in a directory, atomic rename on write
//   sqlite  : a single kv table (mattn/go-sqlite3)
//   redis   : one string per key under a prefix (go-redis v9)
//   memory  : a map, for tests
//
// =============================================================================

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ginjaninja78/labor-ledger/internal/config"
)

// Storage keys.
const (
	KeyWorkData    = "workData"
	KeyExpenseData = "expenseData"
	KeyWorkers     = "workers"
	KeySites       = "sites"
	KeyAdminConfig = "adminConfig"
)

// Store is a durable key-value store holding whole JSON documents.
type Store interface {
	// Get returns the value under key. found is false when the key was
	// never written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put overwrites the value under key.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the backend.
	Close() error
}

// Open builds the backend named by cfg.Backend.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "redis":
		return NewRedisStore(cfg)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// LoadJSON decodes the value under key into dest. It reports whether the
// key existed; dest is untouched when it did not.
func LoadJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	data, found, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and overwrites the value under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// LoadList reads a JSON array under key. An absent key reads as empty.
func LoadList[T any](ctx context.Context, s Store, key string) ([]T, error) {
	var list []T
	if _, err := LoadJSON(ctx, s, key, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = make([]T, 0)
	}
	return list, nil
}
