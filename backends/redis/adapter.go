// Package redis adapts Redis hashes to backends.Storage. Each hash under the
// configured prefix is a bucket; its fields are keys.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/config"
	kvlog "github.com/ebogdum/kvtable/core/log"
	"github.com/ebogdum/kvtable/kvstore"
)

// BackendType is the name reported in logs, metrics and errors.
const BackendType = "redis"

// scanCount is the COUNT hint passed to SCAN and HSCAN.
const scanCount = 128

type RedisAdapter struct {
	client       *redis.Client
	prefix       string
	maxValueSize uint64
	workers      int
	mem          memory.Allocator
	schema       *arrow.Schema
	logger       *zap.Logger
}

func NewRedisAdapter(cfg config.RedisConfig, maxValueSize uint64, workers int, logger *zap.Logger) (*RedisAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisAdapter{
		client:       client,
		prefix:       cfg.KeyPrefix,
		maxValueSize: maxValueSize,
		workers:      workers,
		mem:          memory.DefaultAllocator,
		schema:       kvstore.StringSchema(),
		logger:       logger.With(zap.String("backend", BackendType)),
	}, nil
}

// Buckets scans for hash keys under the prefix
func (a *RedisAdapter) Buckets(ctx context.Context) (kvstore.Seq[string], error) {
	return func(yield func(string, error) bool) {
		seen := make(map[string]struct{})
		iter := a.client.ScanType(ctx, 0, a.prefix+"*", scanCount, "hash").Iterator()
		for iter.Next(ctx) {
			name := iter.Val()
			// SCAN may return an element more than once
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			if !yield(name, nil) {
				return
			}
		}
		if err := iter.Err(); err != nil {
			yield("", fmt.Errorf("failed to scan buckets: %w", err))
		}
	}, nil
}

// Keys scans the fields of a hash bucket
func (a *RedisAdapter) Keys(ctx context.Context, bucket string) (kvstore.Seq[string], error) {
	kind, err := a.client.Type(ctx, bucket).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect bucket %s: %w", bucket, err)
	}
	switch kind {
	case "hash":
	case "none":
		return nil, fmt.Errorf("bucket %s: %w", bucket, kvstore.ErrNotFound)
	default:
		return nil, fmt.Errorf("bucket %s holds a %s, not a hash: %w", bucket, kind, kvstore.ErrNotFound)
	}

	return func(yield func(string, error) bool) {
		seen := make(map[string]struct{})
		iter := a.client.HScan(ctx, bucket, 0, "", scanCount).Iterator()
		// HSCAN returns field and value alternately
		for field := true; iter.Next(ctx); field = !field {
			if !field {
				continue
			}
			key := iter.Val()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if !yield(key, nil) {
				return
			}
		}
		if err := iter.Err(); err != nil {
			yield("", fmt.Errorf("failed to scan keys of %s: %w", bucket, err))
		}
	}, nil
}

// Value reads one hash field, capped to the size ceiling
func (a *RedisAdapter) Value(ctx context.Context, bucket, key string) (string, error) {
	raw, err := a.client.HGet(ctx, bucket, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("key %q in %s: %w", key, bucket, kvstore.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get key %q in %s: %w", key, bucket, err)
	}

	value, err := kvstore.CapValue(raw, a.maxValueSize)
	if err != nil {
		return "", fmt.Errorf("key %q in %s: %w", key, bucket, err)
	}

	a.logger.Debug("Hash field read",
		kvlog.Bucket(bucket),
		kvlog.Key(key),
		zap.Int("size", len(value)))

	return value, nil
}

func (a *RedisAdapter) Schema() *arrow.Schema {
	return a.schema
}

func (a *RedisAdapter) BackendType() string {
	return BackendType
}

func (a *RedisAdapter) BucketsToArray(ctx context.Context, buckets kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, buckets)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (a *RedisAdapter) KeysToArray(ctx context.Context, keys kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, keys)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (a *RedisAdapter) KeysToPairs(ctx context.Context, bucket string, keys kvstore.Seq[string]) (arrow.Array, arrow.Array, error) {
	karr, varr, err := kvstore.StringPairs(ctx, a.mem, keys, a.workers, func(ctx context.Context, key string) (string, error) {
		return a.Value(ctx, bucket, key)
	})
	if err != nil {
		return nil, nil, err
	}
	return karr, varr, nil
}

func (a *RedisAdapter) BucketArray(bucket string, n int) arrow.Array {
	return kvstore.RepeatString(a.mem, bucket, n)
}

func (a *RedisAdapter) Close() error {
	return a.client.Close()
}
