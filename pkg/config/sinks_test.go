package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateSnapshotSink_Directory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "snapshots")
	cfg := &SnapshotConfig{
		Sink: "directory",
		Directory: map[string]any{
			"path": dir,
		},
	}

	sink, err := CreateSnapshotSink(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create directory sink: %v", err)
	}
	if sink == nil {
		t.Fatal("Expected non-nil sink")
	}

	// The sink creates its directory on construction
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected snapshot directory to exist: %v", err)
	}
}

func TestCreateSnapshotSink_DirectoryMissingPath(t *testing.T) {
	ctx := context.Background()
	cfg := &SnapshotConfig{
		Sink:      "directory",
		Directory: map[string]any{},
	}

	_, err := CreateSnapshotSink(ctx, cfg)
	if err == nil {
		t.Fatal("Expected error for directory sink without path")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Expected 'path is required' error, got: %v", err)
	}
}

func TestCreateSnapshotSink_S3MissingBucket(t *testing.T) {
	ctx := context.Background()
	cfg := &SnapshotConfig{
		Sink: "s3",
		S3: map[string]any{
			"region": "us-east-1",
		},
	}

	_, err := CreateSnapshotSink(ctx, cfg)
	if err == nil {
		t.Fatal("Expected error for S3 sink without bucket")
	}
	if !strings.Contains(err.Error(), "bucket is required") {
		t.Errorf("Expected 'bucket is required' error, got: %v", err)
	}
}

func TestCreateSnapshotSink_S3MissingRegion(t *testing.T) {
	ctx := context.Background()
	cfg := &SnapshotConfig{
		Sink: "s3",
		S3: map[string]any{
			"bucket": "propstore-snapshots",
		},
	}

	_, err := CreateSnapshotSink(ctx, cfg)
	if err == nil {
		t.Fatal("Expected error for S3 sink without region")
	}
	if !strings.Contains(err.Error(), "region is required") {
		t.Errorf("Expected 'region is required' error, got: %v", err)
	}
}

func TestCreateSnapshotSink_UnknownType(t *testing.T) {
	ctx := context.Background()
	cfg := &SnapshotConfig{
		Sink: "ftp",
	}

	_, err := CreateSnapshotSink(ctx, cfg)
	if err == nil {
		t.Fatal("Expected error for unknown sink type")
	}
	if !strings.Contains(err.Error(), "unknown snapshot sink type") {
		t.Errorf("Expected 'unknown snapshot sink type' error, got: %v", err)
	}
}
