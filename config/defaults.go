package config

import "time"

// DefaultAppConfig returns an AppConfig struct with sensible default values
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Backend: BackendConfig{
			Type:        "localfs",
			MaxFileSize: 0, // Required, no default
			Workers:     1,
			S3: S3Config{
				Region: "us-east-1",
			},
			NATS: NATSConfig{
				URL: "nats://127.0.0.1:4222",
			},
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "kvtable:",
			},
			SQL: SQLConfig{
				Driver: "sqlite",
				Table:  "kv",
			},
		},
		Convert: ConvertConfig{
			Timeout: 5 * time.Minute,
			Format:  "table",
		},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   5 * time.Minute,
			RequestTimeout: 2 * time.Minute,
			RateLimit:      10,
			RateBurst:      20,
			BucketCacheTTL: 30 * time.Second,
		},
	}
}
