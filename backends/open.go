package backends

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ebogdum/kvtable/backends/localfs"
	"github.com/ebogdum/kvtable/backends/memory"
	"github.com/ebogdum/kvtable/backends/natskv"
	"github.com/ebogdum/kvtable/backends/redis"
	"github.com/ebogdum/kvtable/backends/s3"
	"github.com/ebogdum/kvtable/backends/sqlkv"
	"github.com/ebogdum/kvtable/config"
)

var (
	_ Storage = (*localfs.LocalFSAdapter)(nil)
	_ Storage = (*memory.MemoryAdapter)(nil)
	_ Storage = (*natskv.NATSAdapter)(nil)
	_ Storage = (*redis.RedisAdapter)(nil)
	_ Storage = (*s3.S3Adapter)(nil)
	_ Storage = (*sqlkv.SQLAdapter)(nil)
)

// Open creates the storage backend selected by cfg.Type
func Open(cfg config.BackendConfig, logger *zap.Logger) (Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		storage Storage
		err     error
	)
	switch cfg.Type {
	case localfs.BackendType:
		storage, err = openLocalFS(cfg, logger)
	case s3.BackendType:
		storage, err = s3.NewS3Adapter(cfg.S3, cfg.MaxFileSize, cfg.Workers, logger)
	case natskv.BackendType:
		storage, err = natskv.NewNATSAdapter(cfg.NATS, cfg.MaxFileSize, cfg.Workers, logger)
	case redis.BackendType:
		storage, err = redis.NewRedisAdapter(cfg.Redis, cfg.MaxFileSize, cfg.Workers, logger)
	case sqlkv.BackendType:
		storage, err = sqlkv.NewSQLAdapter(cfg.SQL, cfg.MaxFileSize, cfg.Workers, logger)
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Type, err)
	}

	logger.Info("Storage backend initialized",
		zap.String("backend", storage.BackendType()),
		zap.Uint64("max_file_size", cfg.MaxFileSize),
		zap.Int("workers", cfg.Workers))
	return storage, nil
}

func openLocalFS(cfg config.BackendConfig, logger *zap.Logger) (Storage, error) {
	return localfs.NewLocalFSAdapter(localfs.Options{
		RootDir:     cfg.LocalFS.RootDir,
		MaxFileSize: cfg.MaxFileSize,
		Workers:     cfg.Workers,
		Logger:      logger,
	})
}
