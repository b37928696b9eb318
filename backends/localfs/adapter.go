package localfs

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/kvstore"
)

// BackendType is the name reported in logs, metrics and errors.
const BackendType = "localfs"

// Options configures a LocalFSAdapter.
type Options struct {
	// RootDir holds one directory per bucket.
	RootDir string
	// MaxFileSize caps the number of bytes read from each value file.
	MaxFileSize uint64
	// Workers bounds concurrent value reads. Zero or one reads in key order.
	Workers int

	Allocator memory.Allocator
	Logger    *zap.Logger
}

// LocalFSAdapter implements backends.Storage for a directory tree where
// buckets are directories under the root, keys are regular files in a bucket
// and values are file contents.
type LocalFSAdapter struct {
	rootDir     string
	maxFileSize uint64
	workers     int
	mem         memory.Allocator
	schema      *arrow.Schema
	logger      *zap.Logger
}

// NewLocalFSAdapter creates a new local filesystem adapter
func NewLocalFSAdapter(opts Options) (*LocalFSAdapter, error) {
	if opts.RootDir == "" {
		return nil, fmt.Errorf("root directory is required")
	}

	info, err := os.Stat(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("root path %s is not accessible: %w", opts.RootDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path %s is not a directory", opts.RootDir)
	}

	mem := opts.Allocator
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LocalFSAdapter{
		rootDir:     opts.RootDir,
		maxFileSize: opts.MaxFileSize,
		workers:     opts.Workers,
		mem:         mem,
		schema:      kvstore.StringSchema(),
		logger:      logger.With(zap.String("backend", BackendType)),
	}, nil
}

// Schema returns the (bucket, key, value) string schema
func (a *LocalFSAdapter) Schema() *arrow.Schema {
	return a.schema
}

// BackendType returns "localfs"
func (a *LocalFSAdapter) BackendType() string {
	return BackendType
}

// BucketsToArray drains bucket paths into a string array
func (a *LocalFSAdapter) BucketsToArray(ctx context.Context, buckets kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, buckets)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

// KeysToArray drains file names into a string array
func (a *LocalFSAdapter) KeysToArray(ctx context.Context, keys kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, keys)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

// KeysToPairs reads the content of every file named by keys
func (a *LocalFSAdapter) KeysToPairs(ctx context.Context, bucket string, keys kvstore.Seq[string]) (arrow.Array, arrow.Array, error) {
	karr, varr, err := kvstore.StringPairs(ctx, a.mem, keys, a.workers, func(ctx context.Context, key string) (string, error) {
		return a.Value(ctx, bucket, key)
	})
	if err != nil {
		return nil, nil, err
	}
	return karr, varr, nil
}

// BucketArray repeats the bucket path n times
func (a *LocalFSAdapter) BucketArray(bucket string, n int) arrow.Array {
	return kvstore.RepeatString(a.mem, bucket, n)
}

// Close closes any resources used by the storage backend
func (a *LocalFSAdapter) Close() error {
	// Directory and file handles are scoped to single calls
	return nil
}
