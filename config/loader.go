package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every kvtable environment variable. A double underscore
// separates nesting levels: KVTABLE_BACKEND__MAX_FILE_SIZE sets
// backend.max_file_size.
const EnvPrefix = "KVTABLE_"

// Environment variables read without the prefix
const (
	EnvRootDir     = "BUCKETS_ROOT_DIR"
	EnvMaxFileSize = "MAX_FILE_SIZE"
)

var legacyEnv = map[string]string{
	EnvRootDir:     "backend.localfs.root_dir",
	EnvMaxFileSize: "backend.max_file_size",
}

// LoadConfig loads configuration from defaults, default config files and the environment
func LoadConfig() (AppConfig, error) {
	return LoadConfigFromFile("")
}

// LoadConfigFromFile loads configuration from multiple sources with strict priority:
// 1. BUCKETS_ROOT_DIR and MAX_FILE_SIZE (highest priority)
// 2. KVTABLE_ environment variables
// 3. Specified config file or default config files
// 4. Defaults (lowest priority)
func LoadConfigFromFile(configFilePath string) (AppConfig, error) {
	k := koanf.New(".")

	// Load default configuration first
	if err := k.Load(structs.Provider(DefaultAppConfig(), "koanf"), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load default config: %w", err)
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return AppConfig{}, fmt.Errorf("specified config file %s not found: %w", configFilePath, err)
		}
		if err := loadFile(k, configFilePath); err != nil {
			return AppConfig{}, err
		}
	} else {
		for _, configFile := range []string{"kvtable.yaml", "kvtable.yml", "kvtable.json"} {
			if _, err := os.Stat(configFile); err == nil {
				if err := loadFile(k, configFile); err != nil {
					return AppConfig{}, err
				}
				break
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Empty legacy variables count as unset
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if value == "" {
			return "", nil
		}
		return legacyEnv[key], value
	}), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch {
	case strings.HasSuffix(path, ".yaml"), strings.HasSuffix(path, ".yml"):
		parser = yaml.Parser()
	case strings.HasSuffix(path, ".json"):
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return nil
}

// validateConfig validates that required configuration fields are set
func validateConfig(cfg *AppConfig) error {
	if cfg.Backend.MaxFileSize == 0 {
		return fmt.Errorf("backend.max_file_size is required (set %s)", EnvMaxFileSize)
	}

	if cfg.Backend.Workers < 0 {
		return fmt.Errorf("backend.workers must not be negative")
	}

	switch cfg.Backend.Type {
	case "localfs":
		if cfg.Backend.LocalFS.RootDir == "" {
			return fmt.Errorf("backend.localfs.root_dir is required (set %s)", EnvRootDir)
		}
	case "s3":
		if cfg.Backend.S3.Region == "" {
			return fmt.Errorf("backend.s3.region is required")
		}
	case "nats":
		if cfg.Backend.NATS.URL == "" {
			return fmt.Errorf("backend.nats.url is required")
		}
	case "redis":
		if cfg.Backend.Redis.Addr == "" {
			return fmt.Errorf("backend.redis.addr is required")
		}
	case "sql":
		if cfg.Backend.SQL.Driver != "sqlite" && cfg.Backend.SQL.Driver != "postgres" {
			return fmt.Errorf("backend.sql.driver must be sqlite or postgres, got %q", cfg.Backend.SQL.Driver)
		}
		if cfg.Backend.SQL.DSN == "" {
			return fmt.Errorf("backend.sql.dsn is required")
		}
	default:
		return fmt.Errorf("unknown backend.type %q", cfg.Backend.Type)
	}

	if cfg.Convert.Format != "table" && cfg.Convert.Format != "json" {
		return fmt.Errorf("convert.format must be table or json, got %q", cfg.Convert.Format)
	}

	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		return fmt.Errorf("log.format must be json or console, got %q", cfg.Log.Format)
	}

	return nil
}
