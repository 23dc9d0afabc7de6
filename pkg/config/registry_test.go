package config

import (
	"context"
	"strings"
	"testing"
)

func TestInitializeRegistry_Success(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		Stores: []StoreConfig{
			{Name: "main", Type: "memory"},
			{Name: "scratch", Type: "memory"},
		},
	}

	reg, err := InitializeRegistry(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("InitializeRegistry failed: %v", err)
	}
	defer func() { _ = reg.CloseAll() }()

	if reg.CountStores() != 2 {
		t.Errorf("Expected 2 stores registered, got %d", reg.CountStores())
	}

	// The first configured store is the default
	name, store, err := reg.DefaultStore()
	if err != nil {
		t.Fatalf("DefaultStore failed: %v", err)
	}
	if name != "main" {
		t.Errorf("Expected default store 'main', got %q", name)
	}
	if store == nil {
		t.Error("Expected non-nil default store")
	}

	// Both stores are reachable by name
	for _, storeName := range []string{"main", "scratch"} {
		if _, err := reg.GetStore(storeName); err != nil {
			t.Errorf("GetStore(%q) failed: %v", storeName, err)
		}
	}
}

func TestInitializeRegistry_NilConfig(t *testing.T) {
	ctx := context.Background()

	_, err := InitializeRegistry(ctx, nil, nil)
	if err == nil {
		t.Fatal("Expected error for nil config")
	}
	if !strings.Contains(err.Error(), "configuration is nil") {
		t.Errorf("Expected 'configuration is nil' error, got: %v", err)
	}
}

func TestInitializeRegistry_NoStores(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{}

	_, err := InitializeRegistry(ctx, cfg, nil)
	if err == nil {
		t.Fatal("Expected error for config without stores")
	}
	if !strings.Contains(err.Error(), "no stores configured") {
		t.Errorf("Expected 'no stores configured' error, got: %v", err)
	}
}

func TestInitializeRegistry_DuplicateNames(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		Stores: []StoreConfig{
			{Name: "main", Type: "memory"},
			{Name: "main", Type: "memory"},
		},
	}

	_, err := InitializeRegistry(ctx, cfg, nil)
	if err == nil {
		t.Fatal("Expected error for duplicate store names")
	}
	if !strings.Contains(err.Error(), "already registered") {
		t.Errorf("Expected 'already registered' error, got: %v", err)
	}
}

func TestInitializeRegistry_InvalidStore(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		Stores: []StoreConfig{
			{Name: "main", Type: "memory"},
			{Name: "broken", Type: "sqlite", SQLite: map[string]any{}}, // missing path
		},
	}

	_, err := InitializeRegistry(ctx, cfg, nil)
	if err == nil {
		t.Fatal("Expected error for invalid store config")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("Expected error to name the failing store, got: %v", err)
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: false, Port: 9090},
	}

	result := InitializeMetrics(cfg)
	if result == nil {
		t.Fatal("Expected non-nil result")
	}
	if result.Server != nil {
		t.Error("Expected nil metrics server when disabled")
	}
	if result.Store != nil {
		t.Error("Expected nil store metrics when disabled")
	}
	if result.Cache != nil {
		t.Error("Expected nil cache metrics when disabled")
	}
}
