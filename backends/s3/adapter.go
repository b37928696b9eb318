package s3

import (
	"context"
	"fmt"
	"net/http"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/config"
	"github.com/ebogdum/kvtable/kvstore"
)

// BackendType is the name reported in logs, metrics and errors.
const BackendType = "s3"

// S3Adapter implements backends.Storage for an S3-compatible object store.
// Buckets are S3 buckets, keys are object keys and values are object bodies.
type S3Adapter struct {
	client        *s3.S3
	prefix        string
	maxObjectSize uint64
	workers       int
	mem           memory.Allocator
	schema        *arrow.Schema
	logger        *zap.Logger
}

// NewS3Adapter creates a new S3 storage adapter
func NewS3Adapter(cfg config.S3Config, maxObjectSize uint64, workers int, logger *zap.Logger) (*S3Adapter, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	// Set custom endpoint if provided (for MinIO compatibility)
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(cfg.DisableSSL)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &S3Adapter{
		client:        s3.New(sess),
		prefix:        cfg.KeyPrefix,
		maxObjectSize: maxObjectSize,
		workers:       workers,
		mem:           memory.DefaultAllocator,
		schema:        kvstore.StringSchema(),
		logger:        logger.With(zap.String("backend", BackendType)),
	}, nil
}

// Schema returns the (bucket, key, value) string schema
func (a *S3Adapter) Schema() *arrow.Schema {
	return a.schema
}

// BackendType returns "s3"
func (a *S3Adapter) BackendType() string {
	return BackendType
}

func (a *S3Adapter) BucketsToArray(ctx context.Context, buckets kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, buckets)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (a *S3Adapter) KeysToArray(ctx context.Context, keys kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, keys)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

// KeysToPairs downloads the body of every object named by keys
func (a *S3Adapter) KeysToPairs(ctx context.Context, bucket string, keys kvstore.Seq[string]) (arrow.Array, arrow.Array, error) {
	karr, varr, err := kvstore.StringPairs(ctx, a.mem, keys, a.workers, func(ctx context.Context, key string) (string, error) {
		return a.Value(ctx, bucket, key)
	})
	if err != nil {
		return nil, nil, err
	}
	return karr, varr, nil
}

func (a *S3Adapter) BucketArray(bucket string, n int) arrow.Array {
	return kvstore.RepeatString(a.mem, bucket, n)
}

// Close closes any resources used by the S3 adapter
func (a *S3Adapter) Close() error {
	// No resources to close for S3
	return nil
}

// mapS3Error converts S3 "not found" and "access denied" responses into
// the kvstore sentinels. HEAD requests carry no error body, so the HTTP
// status is consulted as well as the error code.
func mapS3Error(err error) error {
	var code string
	var status int
	if aerr, ok := err.(awserr.Error); ok {
		code = aerr.Code()
	}
	if rerr, ok := err.(awserr.RequestFailure); ok {
		status = rerr.StatusCode()
	}

	switch {
	case code == s3.ErrCodeNoSuchKey, code == s3.ErrCodeNoSuchBucket, code == "NotFound", status == http.StatusNotFound:
		return fmt.Errorf("%w: %v", kvstore.ErrNotFound, err)
	case code == "AccessDenied", code == "Forbidden", status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", kvstore.ErrForbidden, err)
	default:
		return err
	}
}

// isInvalidRange reports a 416 answer to a ranged GET
func isInvalidRange(err error) bool {
	if aerr, ok := err.(awserr.Error); ok && aerr.Code() == "InvalidRange" {
		return true
	}
	if rerr, ok := err.(awserr.RequestFailure); ok && rerr.StatusCode() == http.StatusRequestedRangeNotSatisfiable {
		return true
	}
	return false
}
