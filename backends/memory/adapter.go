// Package memory provides an in-memory ordered key-value backend. Buckets
// and keys are enumerated in ascending order. It is filled through Put and
// is not selectable by backend.type.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/tidwall/btree"

	"github.com/ebogdum/kvtable/kvstore"
)

// BackendType is the name reported in logs, metrics and errors.
const BackendType = "memory"

// MemoryAdapter keeps buckets in a B-tree of B-trees.
type MemoryAdapter struct {
	mu           sync.RWMutex
	buckets      btree.Map[string, *btree.Map[string, string]]
	maxValueSize uint64
	mem          memory.Allocator
	schema       *arrow.Schema
}

// NewMemoryAdapter creates an empty store. maxValueSize caps resolved values;
// zero leaves them uncapped.
func NewMemoryAdapter(mem memory.Allocator, maxValueSize uint64) *MemoryAdapter {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &MemoryAdapter{
		maxValueSize: maxValueSize,
		mem:          mem,
		schema:       kvstore.StringSchema(),
	}
}

// CreateBucket adds an empty bucket if it does not exist yet
func (m *MemoryAdapter) CreateBucket(bucket string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets.Get(bucket); !ok {
		m.buckets.Set(bucket, &btree.Map[string, string]{})
	}
}

// Put stores value under bucket/key, creating the bucket when needed
func (m *MemoryAdapter) Put(bucket, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.buckets.Get(bucket)
	if !ok {
		entries = &btree.Map[string, string]{}
		m.buckets.Set(bucket, entries)
	}
	entries.Set(key, value)
}

// Delete removes bucket/key
func (m *MemoryAdapter) Delete(bucket, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entries, ok := m.buckets.Get(bucket); ok {
		entries.Delete(key)
	}
}

// Value returns the stored value, capped to the configured size
func (m *MemoryAdapter) Value(ctx context.Context, bucket, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.buckets.Get(bucket)
	if !ok {
		return "", fmt.Errorf("bucket %q: %w", bucket, kvstore.ErrNotFound)
	}
	v, ok := entries.Get(key)
	if !ok {
		return "", fmt.Errorf("key %q in bucket %q: %w", key, bucket, kvstore.ErrNotFound)
	}
	return kvstore.CapValue([]byte(v), m.maxValueSize)
}

// Buckets enumerates bucket names in ascending order over a snapshot
func (m *MemoryAdapter) Buckets(ctx context.Context) (kvstore.Seq[string], error) {
	// Copy marks the tree copy-on-write, so it needs the write lock
	m.mu.Lock()
	snapshot := m.buckets.Copy()
	m.mu.Unlock()

	return func(yield func(string, error) bool) {
		snapshot.Scan(func(name string, _ *btree.Map[string, string]) bool {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return false
			}
			return yield(name, nil)
		})
	}, nil
}

// Keys enumerates the keys of bucket in ascending order over a snapshot
func (m *MemoryAdapter) Keys(ctx context.Context, bucket string) (kvstore.Seq[string], error) {
	m.mu.Lock()
	entries, ok := m.buckets.Get(bucket)
	var snapshot *btree.Map[string, string]
	if ok {
		snapshot = entries.Copy()
	}
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("bucket %q: %w", bucket, kvstore.ErrNotFound)
	}

	return func(yield func(string, error) bool) {
		snapshot.Scan(func(key, _ string) bool {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return false
			}
			return yield(key, nil)
		})
	}, nil
}

func (m *MemoryAdapter) Schema() *arrow.Schema {
	return m.schema
}

func (m *MemoryAdapter) BackendType() string {
	return BackendType
}

func (m *MemoryAdapter) BucketsToArray(ctx context.Context, buckets kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, m.mem, buckets)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (m *MemoryAdapter) KeysToArray(ctx context.Context, keys kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, m.mem, keys)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (m *MemoryAdapter) KeysToPairs(ctx context.Context, bucket string, keys kvstore.Seq[string]) (arrow.Array, arrow.Array, error) {
	karr, varr, err := kvstore.StringPairs(ctx, m.mem, keys, 1, func(ctx context.Context, key string) (string, error) {
		return m.Value(ctx, bucket, key)
	})
	if err != nil {
		return nil, nil, err
	}
	return karr, varr, nil
}

func (m *MemoryAdapter) BucketArray(bucket string, n int) arrow.Array {
	return kvstore.RepeatString(m.mem, bucket, n)
}

// Close drops every bucket
func (m *MemoryAdapter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buckets = btree.Map[string, *btree.Map[string, string]]{}
	return nil
}
