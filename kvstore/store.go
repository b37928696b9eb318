// Package kvstore defines the contract a bucket/key/value backend must satisfy
// to be materialized as a columnar record with a (bucket, key, value) schema.
package kvstore

import (
	"context"
	"iter"

	"github.com/apache/arrow-go/v18/arrow"
)

// Seq is a lazy sequence of fallible elements. A failed element is yielded as
// (zero, err); consumers stop at the first error.
type Seq[T any] iter.Seq2[T, error]

// Store is the capability set every key-value backend exposes.
// B, K and V are the backend's bucket, key and value types.
type Store[B comparable, K comparable, V any] interface {
	// Value resolves the value stored for key in bucket.
	Value(ctx context.Context, bucket B, key K) (V, error)

	// Buckets enumerates the bucket identifiers of the backend.
	Buckets(ctx context.Context) (Seq[B], error)

	// Keys enumerates the keys of one bucket. It fails as a whole if the
	// bucket does not exist.
	Keys(ctx context.Context, bucket B) (Seq[K], error)

	// Schema returns the record schema. It is constant for the instance.
	Schema() *arrow.Schema

	// BucketsToArray drains a bucket sequence into an array in encounter order.
	BucketsToArray(ctx context.Context, buckets Seq[B]) (arrow.Array, error)

	// KeysToArray drains a key sequence into an array in encounter order.
	KeysToArray(ctx context.Context, keys Seq[K]) (arrow.Array, error)

	// KeysToPairs resolves every key of the sequence and returns the key and
	// value arrays. Both arrays have the same length and row order.
	KeysToPairs(ctx context.Context, bucket B, keys Seq[K]) (arrow.Array, arrow.Array, error)

	// BucketArray returns an array of n copies of bucket.
	BucketArray(bucket B, n int) arrow.Array

	// BackendType names the backend for logs, metrics and errors.
	BackendType() string
}
