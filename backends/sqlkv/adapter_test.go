package sqlkv

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebogdum/kvtable/config"
	"github.com/ebogdum/kvtable/kvstore"
)

// seedSQLite writes rows into a fresh sqlite database and returns its path.
func seedSQLite(t *testing.T, rows [][3]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kv.sqlite3")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE kv ("bucket" TEXT NOT NULL, "key" TEXT NOT NULL, "value" TEXT, PRIMARY KEY ("bucket", "key"))`)
	require.NoError(t, err)

	for _, r := range rows {
		_, err := db.Exec(`INSERT INTO kv ("bucket", "key", "value") VALUES (?, ?, ?)`, r[0], r[1], r[2])
		require.NoError(t, err)
	}
	return path
}

func newTestAdapter(t *testing.T, path string, maxValueSize uint64) *SQLAdapter {
	t.Helper()
	a, err := NewSQLAdapter(config.SQLConfig{Driver: DriverSQLite, DSN: path, Table: "kv"}, maxValueSize, 1, nil)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewSQLAdapterRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SQLConfig
	}{
		{name: "unknown driver", cfg: config.SQLConfig{Driver: "mysql", DSN: "x"}},
		{name: "injected table", cfg: config.SQLConfig{Driver: DriverSQLite, DSN: "x", Table: "kv; DROP TABLE kv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLAdapter(tt.cfg, 1024, 1, nil)
			assert.Error(t, err)
		})
	}
}

func TestBucketsAndKeys(t *testing.T) {
	path := seedSQLite(t, [][3]string{
		{"beta", "b1", "x"},
		{"alpha", "k2", "v2"},
		{"alpha", "k1", "v1"},
	})
	a := newTestAdapter(t, path, 1024)

	buckets, err := a.Buckets(t.Context())
	require.NoError(t, err)
	var names []string
	for b, err := range buckets {
		require.NoError(t, err)
		names = append(names, b)
	}
	assert.Equal(t, []string{"alpha", "beta"}, names)

	keys, err := a.Keys(t.Context(), "alpha")
	require.NoError(t, err)
	arr, err := a.KeysToArray(t.Context(), keys)
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, "k1", arr.(*array.String).Value(0))
	assert.Equal(t, "k2", arr.(*array.String).Value(1))

	_, err = a.Keys(t.Context(), "missing")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestBucketToRecord(t *testing.T) {
	path := seedSQLite(t, [][3]string{
		{"alpha", "k1", "v1"},
		{"alpha", "k2", "hello"},
	})
	a := newTestAdapter(t, path, 2)

	rec, err := kvstore.BucketToRecord[string, string, string](t.Context(), a, "alpha")
	require.NoError(t, err)
	defer rec.Release()

	require.EqualValues(t, 2, rec.NumRows())
	buckets := rec.Column(0).(*array.String)
	keys := rec.Column(1).(*array.String)
	vals := rec.Column(2).(*array.String)
	for i := range 2 {
		assert.Equal(t, "alpha", buckets.Value(i))
	}
	assert.Equal(t, "k1", keys.Value(0))
	assert.Equal(t, "v1", vals.Value(0))
	assert.Equal(t, "k2", keys.Value(1))
	assert.Equal(t, "he", vals.Value(1))
}

func TestValueMissingKey(t *testing.T) {
	path := seedSQLite(t, [][3]string{{"alpha", "k1", "v1"}})
	a := newTestAdapter(t, path, 1024)

	_, err := a.Value(t.Context(), "alpha", "nope")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestBuildQueriesPlaceholders(t *testing.T) {
	sqlite := buildQueries(DriverSQLite, "kv")
	assert.Equal(t, `SELECT "value" FROM kv WHERE "bucket" = ? AND "key" = ?`, sqlite.value)

	pg := buildQueries(DriverPostgres, "entries")
	assert.Equal(t, `SELECT "value" FROM entries WHERE "bucket" = $1 AND "key" = $2`, pg.value)
	assert.Equal(t, `SELECT "key" FROM entries WHERE "bucket" = $1 ORDER BY "key"`, pg.keys)
}
