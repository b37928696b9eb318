// Package natskv adapts NATS JetStream key-value buckets to backends.Storage.
package natskv

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/config"
	kvlog "github.com/ebogdum/kvtable/core/log"
	"github.com/ebogdum/kvtable/kvstore"
)

// BackendType is the name reported in logs, metrics and errors.
const BackendType = "nats"

// NATSAdapter reads JetStream KV buckets. Values are the latest revision of
// each key.
type NATSAdapter struct {
	conn         *nats.Conn
	js           jetstream.JetStream
	maxValueSize uint64
	workers      int
	mem          memory.Allocator
	schema       *arrow.Schema
	logger       *zap.Logger
}

// NewNATSAdapter connects to the NATS server and opens a JetStream context
func NewNATSAdapter(cfg config.NATSConfig, maxValueSize uint64, workers int, logger *zap.Logger) (*NATSAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []nats.Option{nats.Name("kvtable")}
	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &NATSAdapter{
		conn:         conn,
		js:           js,
		maxValueSize: maxValueSize,
		workers:      workers,
		mem:          memory.DefaultAllocator,
		schema:       kvstore.StringSchema(),
		logger:       logger.With(zap.String("backend", BackendType)),
	}, nil
}

// Buckets streams the names of every KV bucket
func (a *NATSAdapter) Buckets(ctx context.Context) (kvstore.Seq[string], error) {
	return func(yield func(string, error) bool) {
		lister := a.js.KeyValueStoreNames(ctx)
		for name := range lister.Name() {
			if !yield(name, nil) {
				return
			}
		}
		if err := lister.Error(); err != nil {
			yield("", fmt.Errorf("failed to list KV buckets: %w", err))
		}
	}, nil
}

// Keys streams the keys of one KV bucket
func (a *NATSAdapter) Keys(ctx context.Context, bucket string) (kvstore.Seq[string], error) {
	kv, err := a.keyValue(ctx, bucket)
	if err != nil {
		return nil, err
	}

	return func(yield func(string, error) bool) {
		lister, err := kv.ListKeys(ctx)
		if err != nil {
			if errors.Is(err, jetstream.ErrNoKeysFound) {
				return
			}
			yield("", fmt.Errorf("failed to list keys of %s: %w", bucket, err))
			return
		}
		defer lister.Stop()

		for key := range lister.Keys() {
			if !yield(key, nil) {
				return
			}
		}
		if err := ctx.Err(); err != nil {
			yield("", err)
		}
	}, nil
}

// Value returns the latest revision of bucket/key, capped to the size ceiling
func (a *NATSAdapter) Value(ctx context.Context, bucket, key string) (string, error) {
	kv, err := a.keyValue(ctx, bucket)
	if err != nil {
		return "", err
	}
	return a.get(ctx, kv, bucket, key)
}

// get reads and caps one entry of an already opened bucket
func (a *NATSAdapter) get(ctx context.Context, kv jetstream.KeyValue, bucket, key string) (string, error) {
	entry, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return "", fmt.Errorf("key %q in %s: %w", key, bucket, kvstore.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get key %q in %s: %w", key, bucket, err)
	}

	value, err := kvstore.CapValue(entry.Value(), a.maxValueSize)
	if err != nil {
		return "", fmt.Errorf("key %q in %s: %w", key, bucket, err)
	}

	a.logger.Debug("KV entry read",
		kvlog.Bucket(bucket),
		kvlog.Key(key),
		zap.Uint64("revision", entry.Revision()))

	return value, nil
}

func (a *NATSAdapter) keyValue(ctx context.Context, bucket string) (jetstream.KeyValue, error) {
	kv, err := a.js.KeyValue(ctx, bucket)
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, fmt.Errorf("KV bucket %s: %w", bucket, kvstore.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open KV bucket %s: %w", bucket, err)
	}
	return kv, nil
}

func (a *NATSAdapter) Schema() *arrow.Schema {
	return a.schema
}

func (a *NATSAdapter) BackendType() string {
	return BackendType
}

func (a *NATSAdapter) BucketsToArray(ctx context.Context, buckets kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, buckets)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (a *NATSAdapter) KeysToArray(ctx context.Context, keys kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, keys)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (a *NATSAdapter) KeysToPairs(ctx context.Context, bucket string, keys kvstore.Seq[string]) (arrow.Array, arrow.Array, error) {
	kv, err := a.keyValue(ctx, bucket)
	if err != nil {
		return nil, nil, err
	}

	karr, varr, err := kvstore.StringPairs(ctx, a.mem, keys, a.workers, func(ctx context.Context, key string) (string, error) {
		return a.get(ctx, kv, bucket, key)
	})
	if err != nil {
		return nil, nil, err
	}
	return karr, varr, nil
}

func (a *NATSAdapter) BucketArray(bucket string, n int) arrow.Array {
	return kvstore.RepeatString(a.mem, bucket, n)
}

// Close drains the NATS connection
func (a *NATSAdapter) Close() error {
	return a.conn.Drain()
}
