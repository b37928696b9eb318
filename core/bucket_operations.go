package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"

	kvlog "github.com/ebogdum/kvtable/core/log"
	"github.com/ebogdum/kvtable/kvstore"
	"github.com/ebogdum/kvtable/metrics"
)

// ErrNoBucket is returned when the backend holds no bucket to convert
var ErrNoBucket = errors.New("no bucket found")

const bucketsListing = "buckets"

func keysListing(bucket string) string {
	return "keys/" + bucket
}

// FirstBucket returns the first bucket the backend enumerates. An error on
// the first element is returned as is.
func (e *Engine) FirstBucket(ctx context.Context) (string, error) {
	buckets, err := e.storage.Buckets(ctx)
	if err != nil {
		e.countError(err)
		return "", fmt.Errorf("failed to list buckets: %w", err)
	}

	for bucket, err := range buckets {
		if err != nil {
			e.countError(err)
			return "", fmt.Errorf("failed to read first bucket: %w", err)
		}
		return bucket, nil
	}
	return "", ErrNoBucket
}

// ListBuckets returns every bucket name in backend order
func (e *Engine) ListBuckets(ctx context.Context) ([]string, error) {
	if names, ok := e.cached(bucketsListing); ok {
		return names, nil
	}

	buckets, err := e.storage.Buckets(ctx)
	if err != nil {
		e.countError(err)
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	arr, err := e.storage.BucketsToArray(ctx, buckets)
	if err != nil {
		e.countError(err)
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer arr.Release()

	names, err := stringValues(arr)
	if err != nil {
		return nil, err
	}
	e.store(bucketsListing, names)

	e.logger.Debug("Buckets listed", zap.Int("count", len(names)))
	return names, nil
}

// ListKeys returns every key of bucket in backend order
func (e *Engine) ListKeys(ctx context.Context, bucket string) ([]string, error) {
	if names, ok := e.cached(keysListing(bucket)); ok {
		return names, nil
	}

	keys, err := e.storage.Keys(ctx, bucket)
	if err != nil {
		e.countError(err)
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	arr, err := e.storage.KeysToArray(ctx, keys)
	if err != nil {
		e.countError(err)
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer arr.Release()

	names, err := stringValues(arr)
	if err != nil {
		return nil, err
	}
	e.store(keysListing(bucket), names)

	e.logger.Debug("Keys listed", kvlog.Bucket(bucket), zap.Int("count", len(names)))
	return names, nil
}

// InvalidateListings drops cached bucket and key listings
func (e *Engine) InvalidateListings() {
	if e.listingCache == nil {
		return
	}
	e.listingCache.Invalidate(bucketsListing)
	e.listingCache.InvalidatePrefix(keysListing(""))
}

func (e *Engine) cached(name string) ([]string, bool) {
	if e.listingCache == nil {
		return nil, false
	}
	names, ok := e.listingCache.Get(name)
	if ok {
		metrics.ListingsTotal.WithLabelValues(e.BackendType(), metrics.SourceCache).Inc()
	}
	return names, ok
}

func (e *Engine) store(name string, names []string) {
	metrics.ListingsTotal.WithLabelValues(e.BackendType(), metrics.SourceBackend).Inc()
	if e.listingCache != nil {
		e.listingCache.Set(name, names)
	}
}

func stringValues(arr arrow.Array) ([]string, error) {
	strs, ok := arr.(*array.String)
	if !ok {
		return nil, fmt.Errorf("%w: expected utf8 array, got %s", kvstore.ErrSchemaMismatch, arr.DataType())
	}

	names := make([]string, strs.Len())
	for i := range names {
		names[i] = strs.Value(i)
	}
	return names, nil
}
