// Package backends provides key-value storage adapters for kvtable.
// Every adapter realizes kvstore.Store over string buckets, keys and values.
package backends

import (
	"github.com/ebogdum/kvtable/kvstore"
)

// Storage is a string-typed kvstore.Store that holds backend resources
// until closed.
type Storage interface {
	kvstore.Store[string, string, string]

	// Close releases any resources used by the storage backend
	Close() error
}
