package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/homedash/internal/security"
)

// Config captures environment driven configuration values for the dashboard
// service.
type Config struct {
	HTTPPort         int
	SQLiteDSN        string
	SessionTTL       time.Duration
	SessionRetention time.Duration

	// ConfigEncryptionKey is the optional AES-256 key for integration
	// configs, decoded from 64 hex characters. Nil means configs are stored
	// as plaintext JSON.
	ConfigEncryptionKey []byte

	LogLevel string
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields and accumulates every
// invalid value before reporting, so one run surfaces all problems at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:homedash.db?_foreign_keys=on",
		SessionTTL:       24 * time.Hour,
		SessionRetention: 90 * 24 * time.Hour,
		LogLevel:         "info",
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("HOMEDASH_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "HOMEDASH_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("HOMEDASH_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(os.Getenv("HOMEDASH_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "HOMEDASH_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if retentionValue := strings.TrimSpace(os.Getenv("HOMEDASH_SESSION_RETENTION")); retentionValue != "" {
		retention, err := time.ParseDuration(retentionValue)
		if err != nil || retention <= 0 {
			invalid = append(invalid, "HOMEDASH_SESSION_RETENTION")
		} else {
			cfg.SessionRetention = retention
		}
	}

	// A missing key is a supported state (plaintext storage), a malformed
	// key is not.
	if keyValue := os.Getenv("HOMEDASH_CONFIG_ENC_KEY"); strings.TrimSpace(keyValue) != "" {
		key, err := security.ParseKey(keyValue)
		if err != nil {
			invalid = append(invalid, "HOMEDASH_CONFIG_ENC_KEY")
		} else {
			cfg.ConfigEncryptionKey = key
		}
	}

	if levelValue := strings.TrimSpace(os.Getenv("HOMEDASH_LOG_LEVEL")); levelValue != "" {
		switch strings.ToLower(levelValue) {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = strings.ToLower(levelValue)
		default:
			invalid = append(invalid, "HOMEDASH_LOG_LEVEL")
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
