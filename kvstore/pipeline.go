package kvstore

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// BucketToRecord converts one bucket into a record using only the store's
// primitives. On failure no record is returned and every intermediate array
// is released.
func BucketToRecord[B comparable, K comparable, V any](ctx context.Context, s Store[B, K, V], bucket B) (arrow.Record, error) {
	fail := func(stage string, err error) (arrow.Record, error) {
		return nil, &ConversionError{
			Backend: s.BackendType(),
			Bucket:  fmt.Sprint(bucket),
			Stage:   stage,
			Err:     err,
		}
	}

	keys, err := s.Keys(ctx, bucket)
	if err != nil {
		return fail(StageKeys, err)
	}

	karr, varr, err := s.KeysToPairs(ctx, bucket, keys)
	if err != nil {
		return fail(StagePairs, err)
	}
	defer karr.Release()
	defer varr.Release()

	barr := s.BucketArray(bucket, karr.Len())
	defer barr.Release()

	schema := s.Schema()
	if schema == nil {
		return fail(StageSchema, fmt.Errorf("%w: backend declared no schema", ErrSchemaMismatch))
	}

	rec, err := Assemble(schema, barr, karr, varr)
	if err != nil {
		return fail(StageAssemble, fmt.Errorf("unable to create a record, size(bucket/key/value) = %d/%d/%d: %w",
			barr.Len(), karr.Len(), varr.Len(), err))
	}
	return rec, nil
}

// Assemble builds a record from the bucket, key and value columns after
// checking them against schema. The record holds its own references to the
// columns.
func Assemble(schema *arrow.Schema, bucket, key, value arrow.Array) (arrow.Record, error) {
	cols := []arrow.Array{bucket, key, value}
	if schema.NumFields() != len(cols) {
		return nil, fmt.Errorf("%w: schema has %d fields, want %d", ErrSchemaMismatch, schema.NumFields(), len(cols))
	}

	for i, col := range cols {
		field := schema.Field(i)
		if col == nil {
			return nil, fmt.Errorf("%w: column %q is missing", ErrSchemaMismatch, field.Name)
		}
		if !arrow.TypeEqual(field.Type, col.DataType()) {
			return nil, fmt.Errorf("%w: column %q is %s, schema declares %s", ErrSchemaMismatch, field.Name, col.DataType(), field.Type)
		}
		if !field.Nullable && col.NullN() > 0 {
			return nil, fmt.Errorf("%w: column %q is not nullable but has %d nulls", ErrSchemaMismatch, field.Name, col.NullN())
		}
		if col.Len() != cols[0].Len() {
			return nil, fmt.Errorf("%w: column %q has %d rows, column %q has %d",
				ErrLengthMismatch, field.Name, col.Len(), schema.Field(0).Name, cols[0].Len())
		}
	}

	return array.NewRecord(schema, cols, int64(bucket.Len())), nil
}
