package core

import (
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/backends"
)

// Engine represents the core kvtable engine that converts buckets of one
// storage backend into records
type Engine struct {
	storage      backends.Storage
	timeout      time.Duration
	listingCache *ListingCache
	logger       *zap.Logger
}

// Options configures an Engine
type Options struct {
	// Timeout bounds a single conversion. Zero disables the bound.
	Timeout time.Duration
	// ListingTTL is how long bucket and key listings are reused. Zero
	// disables the cache.
	ListingTTL time.Duration
}

// NewEngine creates a new core engine instance
func NewEngine(storage backends.Storage, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		storage: storage,
		timeout: opts.Timeout,
		logger:  logger.With(zap.String("backend", storage.BackendType())),
	}
	if opts.ListingTTL > 0 {
		e.listingCache = NewListingCache(opts.ListingTTL, 1000)
	}
	return e
}

// BackendType returns the name of the underlying storage backend
func (e *Engine) BackendType() string {
	return e.storage.BackendType()
}

// Close stops the listing cache and closes the storage backend
func (e *Engine) Close() error {
	if e.listingCache != nil {
		e.listingCache.Stop()
	}
	return e.storage.Close()
}
