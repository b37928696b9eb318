// Package pathutil validates entry names, keeps buckets inside the root
// directory and joins keys to buckets without letting a key escape.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ebogdum/kvtable/kvstore"
)

// ValidateName checks that name can be used as a single directory entry.
// Names that are not UTF-8 fail with kvstore.ErrInvalidName; names that would
// address anything other than one entry fail with kvstore.ErrForbidden.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", kvstore.ErrInvalidName)
	}

	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not valid UTF-8", kvstore.ErrInvalidName, name)
	}

	if name == "." || name == ".." {
		return kvstore.ErrForbidden
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return kvstore.ErrForbidden
	}

	if strings.ContainsRune(name, 0) {
		return kvstore.ErrForbidden
	}

	return nil
}

// BucketWithin checks that bucket is a direct child of root and returns it
// cleaned. Anything else fails with kvstore.ErrForbidden.
func BucketWithin(root, bucket string) (string, error) {
	if bucket == "" {
		return "", fmt.Errorf("%w: empty bucket", kvstore.ErrInvalidName)
	}

	cleanRoot := filepath.Clean(root)
	cleanBucket := filepath.Clean(bucket)
	if filepath.Dir(cleanBucket) != cleanRoot || cleanBucket == cleanRoot {
		return "", fmt.Errorf("%w: bucket %s is outside %s", kvstore.ErrForbidden, bucket, root)
	}

	if err := ValidateName(filepath.Base(cleanBucket)); err != nil {
		return "", err
	}

	return cleanBucket, nil
}

// JoinKey joins a key to its bucket directory. The result is always a direct
// child of bucket.
func JoinKey(bucket, key string) (string, error) {
	if err := ValidateName(key); err != nil {
		return "", err
	}

	cleanBucket := filepath.Clean(bucket)
	joined := filepath.Join(cleanBucket, key)
	if filepath.Dir(joined) != cleanBucket {
		return "", kvstore.ErrForbidden
	}

	return joined, nil
}
