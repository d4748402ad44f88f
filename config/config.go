// Package config loads service configuration from defaults, an optional yaml
// file, and CASEFORGE_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	// HTTP listener
	ListenAddr string `mapstructure:"listen-addr"`

	// Blob storage
	StorageType    string `mapstructure:"storage-type"`
	LocalStorePath string `mapstructure:"local-store-path"`
	SQLitePath     string `mapstructure:"sqlite-path"`
	S3Bucket       string `mapstructure:"s3-bucket"`
	PublicBaseURL  string `mapstructure:"public-base-url"`

	// Commerce Backend
	CommerceBaseURL string        `mapstructure:"commerce-base-url"`
	CommerceAPIKey  string        `mapstructure:"commerce-api-key"`
	CommerceTimeout time.Duration `mapstructure:"commerce-timeout"`

	// Device overlay fetching
	OverlayTimeout time.Duration `mapstructure:"overlay-timeout"`
}

// Load reads configuration from environment, config file, and defaults.
func Load() (*Config, error) {
	viper.SetDefault("listen-addr", ":3002")
	viper.SetDefault("storage-type", "memory")
	viper.SetDefault("local-store-path", "./data")
	viper.SetDefault("sqlite-path", "caseforge.db")
	viper.SetDefault("commerce-timeout", 10*time.Second)
	viper.SetDefault("overlay-timeout", 5*time.Second)

	// Environment variables (CASEFORGE_LISTEN_ADDR, etc.). Unmarshal only
	// sees keys with a default, a binding, or a file value, so every key is
	// bound explicitly; defaults alone would drop env-only settings like
	// commerce-base-url.
	viper.SetEnvPrefix("CASEFORGE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range []string{
		"listen-addr",
		"storage-type",
		"local-store-path",
		"sqlite-path",
		"s3-bucket",
		"public-base-url",
		"commerce-base-url",
		"commerce-api-key",
		"commerce-timeout",
		"overlay-timeout",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	viper.SetConfigName("caseforge")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/caseforge")

	// Config file is optional.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks configuration for errors. Failures here are fatal at
// startup.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen-addr cannot be empty")
	}
	switch c.StorageType {
	case "memory", "filesystem", "sqlite", "s3":
	default:
		return fmt.Errorf("unknown storage-type %q", c.StorageType)
	}
	if c.StorageType == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("s3-bucket is required for s3 storage")
	}
	if c.CommerceBaseURL == "" {
		return fmt.Errorf("commerce-base-url cannot be empty")
	}
	if c.CommerceTimeout <= 0 {
		return fmt.Errorf("commerce-timeout must be positive")
	}
	return nil
}
