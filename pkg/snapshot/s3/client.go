package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ClientConfig holds the AWS settings for building an S3 client.
type ClientConfig struct {
	// Region is the AWS region (required).
	Region string

	// Endpoint overrides the S3 endpoint, for MinIO, Localstack and
	// other S3-compatible services. A custom endpoint also switches
	// the client to path-style addressing.
	Endpoint string

	// AccessKeyID and SecretAccessKey select static credentials. When
	// empty, the default AWS credential chain applies.
	AccessKeyID     string
	SecretAccessKey string

	// MaxRetries caps retry attempts for transient S3 failures
	// (default 10).
	MaxRetries int
}

// NewClient builds an S3 client from the config.
func NewClient(ctx context.Context, config ClientConfig) (*s3.Client, error) {
	if config.Region == "" {
		return nil, fmt.Errorf("region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(config.Region))

	if config.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               config.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Path-style addressing for MinIO/Localstack compatibility.
		if config.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	return client, nil
}
