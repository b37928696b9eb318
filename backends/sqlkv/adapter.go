// Package sqlkv adapts a SQL table with bucket, key and value columns to
// backends.Storage. The sqlite and postgres drivers are supported.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ebogdum/kvtable/config"
	kvlog "github.com/ebogdum/kvtable/core/log"
	"github.com/ebogdum/kvtable/kvstore"
)

// BackendType is the name reported in logs, metrics and errors.
const BackendType = "sql"

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type queries struct {
	buckets string
	exists  string
	keys    string
	value   string
}

// SQLAdapter reads (bucket, key, value) rows from one table.
type SQLAdapter struct {
	db           *sql.DB
	driver       string
	q            queries
	maxValueSize uint64
	workers      int
	mem          memory.Allocator
	schema       *arrow.Schema
	logger       *zap.Logger
}

// NewSQLAdapter opens the database described by cfg and checks it is reachable
func NewSQLAdapter(cfg config.SQLConfig, maxValueSize uint64, workers int, logger *zap.Logger) (*SQLAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	table := cfg.Table
	if table == "" {
		table = "kv"
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	var dsn string
	switch cfg.Driver {
	case DriverSQLite:
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", cfg.DSN)
	case DriverPostgres:
		dsn = cfg.DSN
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	return &SQLAdapter{
		db:           db,
		driver:       cfg.Driver,
		q:            buildQueries(cfg.Driver, table),
		maxValueSize: maxValueSize,
		workers:      workers,
		mem:          memory.DefaultAllocator,
		schema:       kvstore.StringSchema(),
		logger:       logger.With(zap.String("backend", BackendType), zap.String("driver", cfg.Driver)),
	}, nil
}

func buildQueries(driver, table string) queries {
	p1, p2 := "?", "?"
	if driver == DriverPostgres {
		p1, p2 = "$1", "$2"
	}

	return queries{
		buckets: fmt.Sprintf(`SELECT DISTINCT "bucket" FROM %s ORDER BY "bucket"`, table),
		exists:  fmt.Sprintf(`SELECT 1 FROM %s WHERE "bucket" = %s LIMIT 1`, table, p1),
		keys:    fmt.Sprintf(`SELECT "key" FROM %s WHERE "bucket" = %s ORDER BY "key"`, table, p1),
		value:   fmt.Sprintf(`SELECT "value" FROM %s WHERE "bucket" = %s AND "key" = %s`, table, p1, p2),
	}
}

// Buckets streams the distinct bucket names of the table
func (a *SQLAdapter) Buckets(ctx context.Context) (kvstore.Seq[string], error) {
	return a.rows(ctx, a.q.buckets), nil
}

// Keys streams the keys of one bucket in ascending order. A bucket with no
// rows does not exist.
func (a *SQLAdapter) Keys(ctx context.Context, bucket string) (kvstore.Seq[string], error) {
	var one int
	err := a.db.QueryRowContext(ctx, a.q.exists, bucket).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bucket %q: %w", bucket, kvstore.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up bucket %q: %w", bucket, err)
	}

	return a.rows(ctx, a.q.keys, bucket), nil
}

// Value reads one value, capped to the size ceiling
func (a *SQLAdapter) Value(ctx context.Context, bucket, key string) (string, error) {
	var raw []byte
	err := a.db.QueryRowContext(ctx, a.q.value, bucket, key).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("key %q in bucket %q: %w", key, bucket, kvstore.ErrNotFound)
		}
		return "", fmt.Errorf("failed to get key %q in bucket %q: %w", key, bucket, err)
	}

	value, err := kvstore.CapValue(raw, a.maxValueSize)
	if err != nil {
		return "", fmt.Errorf("key %q in bucket %q: %w", key, bucket, err)
	}

	a.logger.Debug("Row read",
		kvlog.Bucket(bucket),
		kvlog.Key(key),
		zap.Int("size", len(value)))

	return value, nil
}

// rows runs query on iteration and yields its single string column
func (a *SQLAdapter) rows(ctx context.Context, query string, args ...any) kvstore.Seq[string] {
	return func(yield func(string, error) bool) {
		rows, err := a.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield("", fmt.Errorf("failed to query %s database: %w", a.driver, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var s sql.NullString
			if err := rows.Scan(&s); err != nil {
				yield("", fmt.Errorf("failed to scan row: %w", err))
				return
			}
			if !s.Valid {
				if !yield("", fmt.Errorf("%w: NULL identifier", kvstore.ErrInvalidName)) {
					return
				}
				continue
			}
			if !yield(s.String, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", fmt.Errorf("failed to iterate rows: %w", err))
		}
	}
}

func (a *SQLAdapter) Schema() *arrow.Schema {
	return a.schema
}

func (a *SQLAdapter) BackendType() string {
	return BackendType
}

func (a *SQLAdapter) BucketsToArray(ctx context.Context, buckets kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, buckets)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (a *SQLAdapter) KeysToArray(ctx context.Context, keys kvstore.Seq[string]) (arrow.Array, error) {
	arr, err := kvstore.StringsToArray(ctx, a.mem, keys)
	if err != nil {
		return nil, err
	}
	return arr, nil
}

func (a *SQLAdapter) KeysToPairs(ctx context.Context, bucket string, keys kvstore.Seq[string]) (arrow.Array, arrow.Array, error) {
	karr, varr, err := kvstore.StringPairs(ctx, a.mem, keys, a.workers, func(ctx context.Context, key string) (string, error) {
		return a.Value(ctx, bucket, key)
	})
	if err != nil {
		return nil, nil, err
	}
	return karr, varr, nil
}

func (a *SQLAdapter) BucketArray(bucket string, n int) arrow.Array {
	return kvstore.RepeatString(a.mem, bucket, n)
}

// Close closes the database connection pool
func (a *SQLAdapter) Close() error {
	return a.db.Close()
}
