package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks the variables read by the loader so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvRootDir, "")
	t.Setenv(EnvMaxFileSize, "")
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		errContains string
		check       func(t *testing.T, cfg AppConfig)
	}{
		{
			name: "root dir and size",
			env:  map[string]string{EnvRootDir: "/data/buckets", EnvMaxFileSize: "1024"},
			check: func(t *testing.T, cfg AppConfig) {
				assert.Equal(t, "localfs", cfg.Backend.Type)
				assert.Equal(t, "/data/buckets", cfg.Backend.LocalFS.RootDir)
				assert.Equal(t, uint64(1024), cfg.Backend.MaxFileSize)
				assert.Equal(t, 1, cfg.Backend.Workers)
				assert.Equal(t, "table", cfg.Convert.Format)
			},
		},
		{
			name:        "missing size",
			env:         map[string]string{EnvRootDir: "/data/buckets"},
			errContains: EnvMaxFileSize,
		},
		{
			name:        "missing root dir",
			env:         map[string]string{EnvMaxFileSize: "1024"},
			errContains: EnvRootDir,
		},
		{
			name:        "unparsable size",
			env:         map[string]string{EnvRootDir: "/data", EnvMaxFileSize: "lots"},
			errContains: "unmarshal",
		},
		{
			name:        "negative size",
			env:         map[string]string{EnvRootDir: "/data", EnvMaxFileSize: "-1"},
			errContains: "unmarshal",
		},
		{
			name: "prefixed overrides",
			env: map[string]string{
				EnvRootDir:                           "/data",
				EnvMaxFileSize:                       "64",
				"KVTABLE_BACKEND__WORKERS":           "4",
				"KVTABLE_CONVERT__FORMAT":            "json",
				"KVTABLE_CONVERT__TIMEOUT":           "30s",
				"KVTABLE_BACKEND__LOCALFS__ROOT_DIR": "/ignored",
			},
			check: func(t *testing.T, cfg AppConfig) {
				assert.Equal(t, 4, cfg.Backend.Workers)
				assert.Equal(t, "json", cfg.Convert.Format)
				assert.Equal(t, 30*time.Second, cfg.Convert.Timeout)
				assert.Equal(t, "/data", cfg.Backend.LocalFS.RootDir)
			},
		},
		{
			name: "unknown backend",
			env: map[string]string{
				EnvMaxFileSize:          "64",
				"KVTABLE_BACKEND__TYPE": "ftp",
			},
			errContains: "unknown backend.type",
		},
		{
			name: "sql backend needs dsn",
			env: map[string]string{
				EnvMaxFileSize:          "64",
				"KVTABLE_BACKEND__TYPE": "sql",
			},
			errContains: "backend.sql.dsn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfigFromFile("")
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "kvtable.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  format: json
backend:
  type: redis
  max_file_size: 4096
  redis:
    addr: redis:6379
    key_prefix: "app:"
`), 0644))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "redis", cfg.Backend.Type)
	assert.Equal(t, uint64(4096), cfg.Backend.MaxFileSize)
	assert.Equal(t, "redis:6379", cfg.Backend.Redis.Addr)
	assert.Equal(t, "app:", cfg.Backend.Redis.KeyPrefix)

	// Environment wins over the file
	t.Setenv(EnvMaxFileSize, "8")
	cfg, err = LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), cfg.Backend.MaxFileSize)
}

func TestLoadConfigFromJSONFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "kvtable.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend": {"type": "sql", "max_file_size": 10, "sql": {"driver": "postgres", "dsn": "postgres://localhost/kv"}}}`), 0644))

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Backend.SQL.Driver)
	assert.Equal(t, "kv", cfg.Backend.SQL.Table)
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
