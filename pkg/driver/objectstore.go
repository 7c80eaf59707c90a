package driver

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/drinkscout/drinkscout/internal/logger"
)

// ObjectStoreInstance bundles the S3 client with the bucket used for
// exported data sets and media assets.
type ObjectStoreInstance struct {
	Client *s3.Client
	Bucket string
}

// ObjectStoreDriver manages an S3 (or S3-compatible) client lifecycle.
//
// Supported options:
//   - bucket: default bucket (required)
//   - region: AWS region (default "us-east-1")
//   - endpoint: custom endpoint for MinIO/LocalStack style deployments
//   - access_key_id / secret_access_key: static credentials; when absent the
//     default AWS credential chain applies
//   - use_path_style: path-style addressing, required by most S3-compatible
//     servers (default false)
type ObjectStoreDriver struct{}

// NewObjectStoreDriver creates an object storage driver.
func NewObjectStoreDriver() *ObjectStoreDriver {
	return &ObjectStoreDriver{}
}

// Initialize builds the S3 client.
func (d *ObjectStoreDriver) Initialize(ctx context.Context, opts Options) (any, error) {
	bucket := opts.String("bucket", "")
	if bucket == "" {
		return nil, &ConfigError{Driver: "objectstore", Option: "bucket", Reason: "bucket is required"}
	}

	region := opts.String("region", "us-east-1")
	accessKey := opts.String("access_key_id", "")
	secretKey := opts.String("secret_access_key", "")

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := opts.String("endpoint", "")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = opts.Bool("use_path_style", false)
	})

	logger.Info("object store client initialized", "bucket", bucket, "region", region)
	return &ObjectStoreInstance{Client: client, Bucket: bucket}, nil
}

// Cleanup is a no-op: the S3 client holds no persistent connections that
// outlive its HTTP transport's idle pool.
func (d *ObjectStoreDriver) Cleanup(ctx context.Context, instance any) error {
	return nil
}

// Healthcheck verifies the bucket is reachable.
func (d *ObjectStoreDriver) Healthcheck(ctx context.Context, instance any) error {
	inst, ok := instance.(*ObjectStoreInstance)
	if !ok || inst == nil || inst.Client == nil {
		return fmt.Errorf("object store instance not initialized")
	}
	_, err := inst.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(inst.Bucket),
	})
	if err != nil {
		return fmt.Errorf("head bucket %q: %w", inst.Bucket, err)
	}
	return nil
}
