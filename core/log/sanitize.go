// Package log provides log-field sanitization for bucket and key names.
package log

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// SanitizationMode controls how bucket and key names appear in logs
type SanitizationMode int32

const (
	// ProductionMode hashes names
	ProductionMode SanitizationMode = iota
	// DevelopmentMode shows truncated names
	DevelopmentMode
	// DebugMode shows full names
	DebugMode
)

// EnvLogMode selects the sanitization mode at startup
const EnvLogMode = "KVTABLE_LOG_MODE"

var currentMode atomic.Int32

func init() {
	if mode, ok := ParseMode(os.Getenv(EnvLogMode)); ok {
		SetMode(mode)
	}
}

// ParseMode maps "production", "development" or "debug" to a mode
func ParseMode(s string) (SanitizationMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production":
		return ProductionMode, true
	case "development":
		return DevelopmentMode, true
	case "debug":
		return DebugMode, true
	}
	return ProductionMode, false
}

// SetMode replaces the process-wide sanitization mode
func SetMode(mode SanitizationMode) {
	currentMode.Store(int32(mode))
}

// Mode returns the process-wide sanitization mode
func Mode() SanitizationMode {
	return SanitizationMode(currentMode.Load())
}

// SanitizePath sanitizes a bucket path or key for logging based on the current mode
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}

	switch Mode() {
	case DevelopmentMode:
		if len(path) <= 20 {
			return path
		}
		return path[:10] + "..." + path[len(path)-7:]
	case DebugMode:
		return path
	default:
		hash := sha256.Sum256([]byte(path))
		return fmt.Sprintf("hash:%x", hash[:8])
	}
}

// SanitizeSize rounds byte counts to the nearest KiB in production mode
func SanitizeSize(size int64) int64 {
	if Mode() == ProductionMode {
		return (size + 512) / 1024 * 1024
	}
	return size
}

// Bucket returns a zap field carrying the sanitized bucket name
func Bucket(bucket string) zap.Field {
	return zap.String("bucket", SanitizePath(bucket))
}

// Key returns a zap field carrying the sanitized key
func Key(key string) zap.Field {
	return zap.String("key", SanitizePath(key))
}
