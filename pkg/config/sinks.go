package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/davkit/propstore/internal/logger"
	"github.com/davkit/propstore/pkg/snapshot"
	snapshots3 "github.com/davkit/propstore/pkg/snapshot/s3"
)

// CreateSnapshotSink creates a snapshot sink based on configuration.
//
// This factory function uses the Sink field to determine which sink
// implementation to create, then decodes the sink-specific configuration
// from the corresponding map.
//
// Supported sinks:
//   - "directory": Uses a local directory (archives written atomically via rename)
//   - "s3": Uses an S3 bucket (Amazon S3 or compatible, e.g. MinIO)
//
// Parameters:
//   - ctx: Context for initialization operations (the S3 sink probes the bucket)
//   - cfg: Snapshot sink configuration
//
// Returns:
//   - snapshot.Sink: Initialized sink
//   - error: Configuration or initialization error
func CreateSnapshotSink(ctx context.Context, cfg *SnapshotConfig) (snapshot.Sink, error) {
	switch cfg.Sink {
	case "directory":
		return createDirectorySink(ctx, cfg.Directory)
	case "s3":
		return createS3Sink(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown snapshot sink type: %q (supported: directory, s3)", cfg.Sink)
	}
}

// createDirectorySink creates a local-directory snapshot sink.
func createDirectorySink(ctx context.Context, options map[string]any) (snapshot.Sink, error) {
	// Check context before creating sink
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Decode sink-specific options
	type DirectorySinkOptions struct {
		Path string `mapstructure:"path"`
	}

	var sinkOpts DirectorySinkOptions
	if err := mapstructure.Decode(options, &sinkOpts); err != nil {
		return nil, fmt.Errorf("failed to decode directory sink options: %w", err)
	}

	// Validate required fields
	if sinkOpts.Path == "" {
		return nil, fmt.Errorf("directory sink: path is required")
	}

	return snapshot.NewDirectorySink(sinkOpts.Path)
}

// createS3Sink creates an S3-backed snapshot sink.
func createS3Sink(ctx context.Context, options map[string]any) (snapshot.Sink, error) {
	// Decode sink-specific options
	type S3SinkOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	var sinkOpts S3SinkOptions
	if err := mapstructure.Decode(options, &sinkOpts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 sink options: %w", err)
	}

	// Validate required fields
	if sinkOpts.Bucket == "" {
		return nil, fmt.Errorf("S3 sink: bucket is required")
	}
	if sinkOpts.Region == "" {
		return nil, fmt.Errorf("S3 sink: region is required")
	}

	client, err := snapshots3.NewClient(ctx, snapshots3.ClientConfig{
		Region:          sinkOpts.Region,
		Endpoint:        sinkOpts.Endpoint,
		AccessKeyID:     sinkOpts.AccessKeyID,
		SecretAccessKey: sinkOpts.SecretAccessKey,
		MaxRetries:      sinkOpts.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	sink, err := snapshots3.NewSink(ctx, snapshots3.SinkConfig{
		Client:    client,
		Bucket:    sinkOpts.Bucket,
		KeyPrefix: sinkOpts.KeyPrefix,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("S3 snapshot sink initialized: bucket=%s, region=%s, prefix=%s",
		sinkOpts.Bucket, sinkOpts.Region, sinkOpts.KeyPrefix)

	return sink, nil
}
