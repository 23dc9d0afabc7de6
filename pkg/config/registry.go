package config

import (
	"context"
	"fmt"

	"github.com/davkit/propstore/internal/logger"
	"github.com/davkit/propstore/pkg/metrics"
	"github.com/davkit/propstore/pkg/registry"
)

// InitializeRegistry creates a fully populated Registry from the provided
// configuration.
//
// This function orchestrates the complete initialization process:
//  1. Creates every property store declared in cfg.Stores, in order
//  2. Wraps each store with operation metrics when storeMetrics is non-nil
//  3. Registers each store under its configured name
//
// Stores are registered in configuration order, so the first entry
// becomes the registry's default store.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: Complete configuration loaded from config file
//   - storeMetrics: Optional store metrics collector (nil = no instrumentation)
//
// Returns:
//   - *registry.Registry: Fully initialized registry
//   - error: If store creation or registration fails
//
// On failure, stores opened before the failing one are closed before the
// error is returned, so a half-initialized process never leaks database
// handles.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	reg, err := config.InitializeRegistry(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatalf("Failed to initialize registry: %v", err)
//	}
//	defer reg.CloseAll()
func InitializeRegistry(ctx context.Context, cfg *Config, storeMetrics metrics.StoreMetrics) (*registry.Registry, error) {
	logger.Debug("Initializing registry from configuration")

	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}
	if len(cfg.Stores) == 0 {
		return nil, fmt.Errorf("no stores configured: at least one property store is required")
	}

	reg := registry.NewRegistry()

	for i := range cfg.Stores {
		storeCfg := &cfg.Stores[i]
		logger.Debug("Creating property store %q (type: %s)", storeCfg.Name, storeCfg.Type)

		store, err := CreateStore(ctx, storeCfg)
		if err != nil {
			_ = reg.CloseAll()
			return nil, fmt.Errorf("failed to create property store %q: %w", storeCfg.Name, err)
		}

		// Wrap with metrics; a nil collector leaves the store unwrapped
		store = metrics.InstrumentStore(store, storeCfg.Name, storeMetrics)

		if err := reg.RegisterStore(storeCfg.Name, store); err != nil {
			_ = store.Close()
			_ = reg.CloseAll()
			return nil, fmt.Errorf("failed to register property store %q: %w", storeCfg.Name, err)
		}

		logger.Debug("Property store %q registered successfully", storeCfg.Name)
	}

	logger.Debug("Registered %d property store(s)", reg.CountStores())

	return reg, nil
}
