// Package s3 stores snapshot archives in an S3 (or S3-compatible)
// bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/davkit/propstore/pkg/snapshot"
)

// Sink stores archives as S3 objects, keyed by archive name under an
// optional key prefix.
//
// The constructor verifies bucket access with HeadBucket, so a missing
// bucket or bad credentials fail at startup rather than at the first
// dump.
//
// Thread Safety:
// Safe for concurrent use; the sink holds no mutable state.
type Sink struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// SinkConfig configures an S3 snapshot sink.
type SinkConfig struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all archive keys.
	// Example: "snapshots/" results in keys like "snapshots/main-....snap".
	KeyPrefix string
}

// NewSink verifies bucket access and returns a sink.
func NewSink(ctx context.Context, config SinkConfig) (*Sink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if config.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if config.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := config.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(config.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", config.Bucket, err)
	}

	return &Sink{
		client:    config.Client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
	}, nil
}

// Put uploads an archive, replacing any object with the same key. S3
// object writes are atomic, so readers never observe a partial archive.
func (s *Sink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %q: %w", name, err)
	}

	return nil
}

// Get downloads the named archive.
func (s *Sink) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(name)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%q: %w", name, snapshot.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to download snapshot %q: %w", name, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", name, err)
	}

	return data, nil
}

// List returns all archive names under the key prefix, sorted
// ascending.
func (s *Sink) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	var names []string
	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", err)
		}

		for _, object := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(object.Key), s.keyPrefix)
			if !snapshot.IsArchiveName(name) {
				continue
			}
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// objectKey returns the full S3 object key for an archive name.
func (s *Sink) objectKey(name string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + name
	}
	return name
}
