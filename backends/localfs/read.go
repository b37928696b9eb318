package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"

	kvlog "github.com/ebogdum/kvtable/core/log"
	"github.com/ebogdum/kvtable/internal/pathutil"
	"github.com/ebogdum/kvtable/kvstore"
)

// readDirBatch is the number of directory entries fetched per read.
const readDirBatch = 64

// Buckets enumerates the directories under the root. Each bucket is the full
// path of its directory.
func (a *LocalFSAdapter) Buckets(ctx context.Context) (kvstore.Seq[string], error) {
	if err := a.checkDir(a.rootDir); err != nil {
		return nil, err
	}

	return a.entries(ctx, a.rootDir, fs.DirEntry.IsDir, func(e fs.DirEntry) string {
		return filepath.Join(a.rootDir, e.Name())
	}), nil
}

// Keys enumerates the regular files of a bucket directory. The bucket must be
// a directory directly under the root.
func (a *LocalFSAdapter) Keys(ctx context.Context, bucket string) (kvstore.Seq[string], error) {
	bucket, err := a.bucketDir(bucket)
	if err != nil {
		return nil, err
	}

	isFile := func(e fs.DirEntry) bool {
		return e.Type().IsRegular()
	}
	return a.entries(ctx, bucket, isFile, fs.DirEntry.Name), nil
}

// Value reads the content of bucket/key, stopping silently at the size ceiling
func (a *LocalFSAdapter) Value(ctx context.Context, bucket, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := pathutil.BucketWithin(a.rootDir, bucket)
	if err != nil {
		return "", err
	}

	fullPath, err := pathutil.JoinKey(dir, key)
	if err != nil {
		return "", fmt.Errorf("unable to resolve key %q in %s: %w", key, bucket, err)
	}

	// Only regular files are values; links are not followed
	info, err := os.Lstat(fullPath)
	if err != nil {
		return "", fmt.Errorf("unable to open the file %s: %w", fullPath, mapFSError(err))
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("unable to open the file %s: not a regular file: %w", fullPath, kvstore.ErrForbidden)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return "", fmt.Errorf("unable to open the file %s: %w", fullPath, mapFSError(err))
	}
	defer file.Close()

	limit := int64(math.MaxInt64)
	if a.maxFileSize < math.MaxInt64 {
		limit = int64(a.maxFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return "", fmt.Errorf("unable to read the file %s: %w", fullPath, err)
	}

	value, err := kvstore.CapValue(content, a.maxFileSize)
	if err != nil {
		return "", fmt.Errorf("%s: %w", fullPath, err)
	}

	a.logger.Debug("Value read",
		zap.String("path", kvlog.SanitizePath(fullPath)),
		zap.Int("size", len(value)),
		zap.Bool("at_limit", int64(len(content)) == limit))

	return value, nil
}

// bucketDir confines bucket to the root and checks that it is a directory
// itself, not a link to one
func (a *LocalFSAdapter) bucketDir(bucket string) (string, error) {
	dir, err := pathutil.BucketWithin(a.rootDir, bucket)
	if err != nil {
		return "", err
	}

	info, err := os.Lstat(dir)
	if err != nil {
		return "", fmt.Errorf("unable to read the dir %s: %w", dir, mapFSError(err))
	}
	if !info.IsDir() {
		return "", fmt.Errorf("unable to read the dir %s: not a directory: %w", dir, kvstore.ErrNotFound)
	}
	return dir, nil
}

// checkDir fails when dir does not exist or is not a directory
func (a *LocalFSAdapter) checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("unable to read the dir %s: %w", dir, mapFSError(err))
	}
	if !info.IsDir() {
		return fmt.Errorf("unable to read the dir %s: not a directory: %w", dir, kvstore.ErrNotFound)
	}
	return nil
}

// entries lazily lists dir, yielding name(e) for every entry accepted by keep.
// The directory handle is opened on iteration and closed when it ends.
func (a *LocalFSAdapter) entries(ctx context.Context, dir string, keep func(fs.DirEntry) bool, name func(fs.DirEntry) string) kvstore.Seq[string] {
	return func(yield func(string, error) bool) {
		f, err := os.Open(dir)
		if err != nil {
			yield("", fmt.Errorf("unable to read the dir %s: %w", dir, mapFSError(err)))
			return
		}
		defer f.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			batch, err := f.ReadDir(readDirBatch)
			for _, e := range batch {
				if !keep(e) {
					continue
				}
				// Type is checked before the name, so a directory with a bad
				// name fails its own element instead of being skipped.
				if !utf8.ValidString(e.Name()) {
					if !yield("", fmt.Errorf("%w: %q in %s", kvstore.ErrInvalidName, e.Name(), dir)) {
						return
					}
					continue
				}
				if !yield(name(e), nil) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("unable to read the dir %s: %w", dir, err))
				return
			}
		}
	}
}

func mapFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", kvstore.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", kvstore.ErrForbidden, err)
	default:
		return err
	}
}
