package s3

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	kvlog "github.com/ebogdum/kvtable/core/log"
	"github.com/ebogdum/kvtable/kvstore"
)

// Buckets lists the buckets visible to the configured credentials
func (a *S3Adapter) Buckets(ctx context.Context) (kvstore.Seq[string], error) {
	result, err := a.client.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets in S3: %w", mapS3Error(err))
	}

	return func(yield func(string, error) bool) {
		for _, b := range result.Buckets {
			if b.Name == nil {
				continue
			}
			if !yield(*b.Name, nil) {
				return
			}
		}
	}, nil
}

// Keys lists object keys under the configured prefix, one page at a time.
// Directory markers (keys ending in "/") are skipped.
func (a *S3Adapter) Keys(ctx context.Context, bucket string) (kvstore.Seq[string], error) {
	if _, err := a.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	}); err != nil {
		return nil, fmt.Errorf("failed to access S3 bucket %s: %w", bucket, mapS3Error(err))
	}

	return func(yield func(string, error) bool) {
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
		}
		if a.prefix != "" {
			input.Prefix = aws.String(a.prefix)
		}

		for {
			result, err := a.client.ListObjectsV2WithContext(ctx, input)
			if err != nil {
				yield("", fmt.Errorf("failed to list objects in S3: %w", mapS3Error(err)))
				return
			}

			for _, object := range result.Contents {
				if object.Key == nil || isDirectoryMarker(*object.Key) {
					continue
				}
				if !yield(*object.Key, nil) {
					return
				}
			}

			// Check if there are more results
			if result.NextContinuationToken == nil {
				return
			}
			input.ContinuationToken = result.NextContinuationToken
		}
	}, nil
}

// Value downloads at most the configured number of bytes of an object.
// A zero-length object answers a ranged GET with InvalidRange; that is an
// empty value, not a failure.
func (a *S3Adapter) Value(ctx context.Context, bucket, key string) (string, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  rangeHeader(a.maxObjectSize),
	}

	result, err := a.client.GetObjectWithContext(ctx, input)
	if err != nil {
		if isInvalidRange(err) {
			a.logger.Debug("Empty object read from S3", kvlog.Bucket(bucket), kvlog.Key(key))
			return "", nil
		}
		return "", fmt.Errorf("failed to get object %s/%s from S3: %w", bucket, key, mapS3Error(err))
	}
	defer result.Body.Close()

	body, err := io.ReadAll(io.LimitReader(result.Body, readLimit(a.maxObjectSize)))
	if err != nil {
		return "", fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}

	value, err := kvstore.CapValue(body, a.maxObjectSize)
	if err != nil {
		return "", fmt.Errorf("object %s/%s: %w", bucket, key, err)
	}

	a.logger.Debug("Object read from S3",
		kvlog.Bucket(bucket),
		kvlog.Key(key),
		zap.Int("size", len(value)))

	return value, nil
}

// rangeHeader asks for the first n bytes only. Zero means unbounded.
func rangeHeader(n uint64) *string {
	if n == 0 {
		return nil
	}
	return aws.String(fmt.Sprintf("bytes=0-%d", n-1))
}

// readLimit bounds the body read independently of the server honoring Range
func readLimit(n uint64) int64 {
	if n == 0 || n >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// isDirectoryMarker reports console-created "folder" placeholders
func isDirectoryMarker(key string) bool {
	return strings.HasSuffix(key, "/")
}
