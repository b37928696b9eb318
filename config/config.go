// Package config provides configuration management for kvtable.
// It handles loading and validating configuration from YAML/JSON files and environment variables.
package config

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Log     LogConfig     `koanf:"log"`
	Backend BackendConfig `koanf:"backend"`
	Convert ConvertConfig `koanf:"convert"`
	Server  ServerConfig  `koanf:"server"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "json" or "console"
}

// BackendConfig selects the key-value backend and holds its settings
type BackendConfig struct {
	Type        string        `koanf:"type"`          // "localfs", "s3", "nats", "redis" or "sql"
	MaxFileSize uint64        `koanf:"max_file_size"` // Byte ceiling applied to every value
	Workers     int           `koanf:"workers"`       // Concurrent value reads; 1 reads in key order
	LocalFS     LocalFSConfig `koanf:"localfs"`
	S3          S3Config      `koanf:"s3"`
	NATS        NATSConfig    `koanf:"nats"`
	Redis       RedisConfig   `koanf:"redis"`
	SQL         SQLConfig     `koanf:"sql"`
}

// LocalFSConfig holds the filesystem backend settings
type LocalFSConfig struct {
	RootDir string `koanf:"root_dir"`
}

// S3Config holds the S3 backend settings
type S3Config struct {
	AccessKey  string `koanf:"access_key"`
	SecretKey  string `koanf:"secret_key"`
	Region     string `koanf:"region"`
	Endpoint   string `koanf:"endpoint"`    // Custom S3 endpoint (e.g., for MinIO)
	DisableSSL bool   `koanf:"disable_ssl"` // Only used with a custom endpoint
	KeyPrefix  string `koanf:"key_prefix"`  // Restricts keys to objects under this prefix
}

// NATSConfig holds the JetStream KV backend settings
type NATSConfig struct {
	URL       string `koanf:"url"`
	CredsFile string `koanf:"creds_file"`
	Token     string `koanf:"token"`
}

// RedisConfig holds the Redis hash backend settings
type RedisConfig struct {
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// SQLConfig holds the SQL table backend settings
type SQLConfig struct {
	Driver string `koanf:"driver"` // "sqlite" or "postgres"
	DSN    string `koanf:"dsn"`
	Table  string `koanf:"table"`
}

// ConvertConfig holds settings of a single conversion
type ConvertConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Format  string        `koanf:"format"` // "table" or "json"
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr     string        `koanf:"listen_addr"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	RateLimit      float64       `koanf:"rate_limit"` // Requests per second
	RateBurst      int           `koanf:"rate_burst"`
	APIKeys        []string      `koanf:"api_keys"`         // Bearer tokens accepted on /v1; empty disables auth
	BucketCacheTTL time.Duration `koanf:"bucket_cache_ttl"` // How long a bucket listing is reused
}
