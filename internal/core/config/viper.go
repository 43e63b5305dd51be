package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*AdminAPIConfig, error) {
	v := viper.New()

	def := DefaultAdminAPIConfig()
	v.SetDefault("admin_api.host", def.Host)
	v.SetDefault("admin_api.port", def.Port)
	v.SetDefault("admin_api.request_timeout", def.RequestTimeout.String())
	v.SetDefault("admin_api.max_batch_size", def.MaxBatchSize)
	v.SetDefault("auth.cache_ttl", def.AuthCacheTTL.String())
	v.SetDefault("digest.cron", def.DigestCron)

	// FK_ADMIN_API_PORT overrides admin_api.port
	v.SetEnvPrefix("FK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets are environment-only
	if err := validateNoSecretsInConfig(configPath); err != nil {
		return nil, err
	}

	cfg := &AdminAPIConfig{
		Host:           v.GetString("admin_api.host"),
		Port:           v.GetInt("admin_api.port"),
		RequestTimeout: v.GetDuration("admin_api.request_timeout"),
		MaxBatchSize:   v.GetInt("admin_api.max_batch_size"),
		AuthCacheTTL:   v.GetDuration("auth.cache_ttl"),
		DigestCron:     strings.TrimSpace(v.GetString("digest.cron")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range, positive limits and the digest schedule.
func validateConfig(cfg *AdminAPIConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", cfg.MaxBatchSize)
	}
	if cfg.AuthCacheTTL < 0 {
		return fmt.Errorf("auth.cache_ttl must not be negative, got %v", cfg.AuthCacheTTL)
	}
	if cfg.DigestCron != "" {
		if _, err := cron.ParseStandard(cfg.DigestCron); err != nil {
			return fmt.Errorf("invalid digest.cron %q: %w", cfg.DigestCron, err)
		}
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
// The file is read without env binding: FK_HMAC_SECRET itself must not trip the check.
func validateNoSecretsInConfig(configPath string) error {
	if configPath == "" {
		return nil
	}
	fileOnly := viper.New()
	fileOnly.SetConfigFile(configPath)
	if err := fileOnly.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	for _, key := range []string{"hmac_secret", "admin_api.hmac_secret", "auth.hmac_secret"} {
		if fileOnly.IsSet(key) {
			return fmt.Errorf("HMAC secrets not allowed in config files (use FK_HMAC_SECRET environment variable)")
		}
	}
	return nil
}
