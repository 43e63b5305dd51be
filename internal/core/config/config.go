// Package config provides configuration management for flowkeeper services.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/solatis/flowkeeper/internal/types"
)

// AdminAPIConfig holds configuration for the HTTP admin API service.
type AdminAPIConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	MaxBatchSize   int           // group names accepted per request
	AuthCacheTTL   time.Duration // lifetime of a verified modification token
	DigestCron     string        // schedule of the rule digest job, empty disables it
}

// DefaultAdminAPIConfig returns configuration with default values.
func DefaultAdminAPIConfig() *AdminAPIConfig {
	return &AdminAPIConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		RequestTimeout: 30 * time.Second,
		MaxBatchSize:   types.DefaultMaxBatchGroups,
		AuthCacheTTL:   time.Minute,
		DigestCron:     "@every 5m",
	}
}

// Addr returns host:port.
func (c *AdminAPIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports FK_HMAC_SECRET (single) and FK_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv("FK_HMAC_SECRET"); val != "" {
		if err := addSecret(secrets, "FK_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation
	for i := 1; ; i++ {
		key := fmt.Sprintf("FK_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := addSecret(secrets, key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

func addSecret(secrets map[string][]byte, envKey, val string) error {
	secretID, decoded, err := ParseHMACSecretWithID(val)
	if err != nil {
		return fmt.Errorf("%s: %w", envKey, err)
	}
	if _, exists := secrets[secretID]; exists {
		return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check FK_HMAC_SECRET and FK_HMAC_SECRET_* for conflicts)", secretID)
	}
	secrets[secretID] = decoded
	return nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return secretID, secret, nil
}
