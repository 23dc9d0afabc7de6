package config

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/davkit/propstore/pkg/store/properties"
	"github.com/davkit/propstore/pkg/store/properties/badger"
	"github.com/davkit/propstore/pkg/store/properties/memory"
	"github.com/davkit/propstore/pkg/store/properties/sqlite"
)

// CreateStore creates a property store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/properties/memory (ephemeral, for tests and dev)
//   - "sqlite": Uses pkg/store/properties/sqlite (single-file database)
//   - "badger": Uses pkg/store/properties/badger (embedded key-value store)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Store configuration
//
// Returns:
//   - properties.Store: Initialized property store
//   - error: Configuration or initialization error
func CreateStore(ctx context.Context, cfg *StoreConfig) (properties.Store, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryStore(ctx)
	case "sqlite":
		return createSQLiteStore(ctx, cfg.SQLite)
	case "badger":
		return createBadgerStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown property store type: %q (supported: memory, sqlite, badger)", cfg.Type)
	}
}

// createMemoryStore creates an in-memory property store.
func createMemoryStore(ctx context.Context) (properties.Store, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The memory store takes no options
	return memory.NewMemoryPropertyStore(), nil
}

// createSQLiteStore creates a SQLite-backed property store.
func createSQLiteStore(ctx context.Context, options map[string]any) (properties.Store, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Decode store-specific options
	type SQLiteStoreOptions struct {
		Path        string        `mapstructure:"path"`
		PoolSize    int           `mapstructure:"pool_size"`
		BusyTimeout time.Duration `mapstructure:"busy_timeout"`
	}

	var storeOpts SQLiteStoreOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     &storeOpts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode sqlite store options: %w", err)
	}

	// Validate required fields
	if storeOpts.Path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}

	return sqlite.NewSQLitePropertyStore(sqlite.Config{
		Path:        storeOpts.Path,
		PoolSize:    storeOpts.PoolSize,
		BusyTimeout: storeOpts.BusyTimeout,
	})
}

// createBadgerStore creates a BadgerDB-backed property store.
func createBadgerStore(ctx context.Context, options map[string]any) (properties.Store, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Decode store-specific options
	type BadgerStoreOptions struct {
		DBPath   string `mapstructure:"db_path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var storeOpts BadgerStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger store options: %w", err)
	}

	// Validate required fields
	if !storeOpts.InMemory && storeOpts.DBPath == "" {
		return nil, fmt.Errorf("badger store: db_path is required")
	}

	return badger.NewBadgerPropertyStore(badger.Config{
		DBPath:   storeOpts.DBPath,
		InMemory: storeOpts.InMemory,
	})
}
