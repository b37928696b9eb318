package kvstore

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"
)

// StringsToArray drains seq into a string array, preserving encounter order.
// The first element error aborts the drain and no array is returned.
func StringsToArray(ctx context.Context, mem memory.Allocator, seq Seq[string]) (*array.String, error) {
	b := array.NewStringBuilder(mem)
	defer b.Release()

	for s, err := range seq {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.Append(s)
	}

	return b.NewStringArray(), nil
}

// RepeatString returns an array holding n copies of s.
func RepeatString(mem memory.Allocator, s string, n int) *array.String {
	b := array.NewStringBuilder(mem)
	defer b.Release()

	b.Reserve(n)
	b.ReserveData(len(s) * n)
	for range n {
		b.Append(s)
	}
	return b.NewStringArray()
}

// ResolveFunc resolves the value of one key.
type ResolveFunc func(ctx context.Context, key string) (string, error)

// ResolveValues resolves the value of every key and returns them in key order.
// With workers <= 1 keys are resolved one at a time; otherwise up to workers
// resolutions run at once and results are placed back by index.
func ResolveValues(ctx context.Context, mem memory.Allocator, keys *array.String, workers int, resolve ResolveFunc) (*array.String, error) {
	n := keys.Len()
	vals := make([]string, n)

	if workers <= 1 {
		for i := range n {
			v, err := resolve(ctx, keys.Value(i))
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range n {
			key := keys.Value(i)
			g.Go(func() error {
				v, err := resolve(gctx, key)
				if err != nil {
					return err
				}
				vals[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewStringArray(), nil
}

// StringPairs drains keys and resolves each of them with resolve. It backs the
// KeysToPairs primitive of every string backend.
func StringPairs(ctx context.Context, mem memory.Allocator, keys Seq[string], workers int, resolve ResolveFunc) (*array.String, *array.String, error) {
	karr, err := StringsToArray(ctx, mem, keys)
	if err != nil {
		return nil, nil, err
	}

	varr, err := ResolveValues(ctx, mem, karr, workers, resolve)
	if err != nil {
		karr.Release()
		return nil, nil, err
	}
	return karr, varr, nil
}
