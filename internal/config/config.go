package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/email-analytics/")
	v.AddConfigPath("$HOME/.email-analytics")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	bindEnv(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("EMAIL_ANALYTICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// The admin list keeps its historical unprefixed name.
	_ = v.BindEnv("auth.allowed_users", "EMAIL_ANALYTICS_AUTH_ALLOWED_USERS", "ALLOWED_USERS")
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.type", "local")
	v.SetDefault("source.local_dir", "./data")
	v.SetDefault("source.http_base_url", "")
	v.SetDefault("source.http_index_url", "")
	v.SetDefault("source.http_retries", 2)
	v.SetDefault("source.s3.bucket", "")
	v.SetDefault("source.s3.region", "us-east-1")
	v.SetDefault("source.s3.prefix", "")
	v.SetDefault("source.max_concurrency", 4)
	v.SetDefault("source.fetch_timeout", "30s")
	v.SetDefault("source.max_file_size", 10*1024*1024)

	// Text decoding defaults
	v.SetDefault("text.fallback_charset", "windows-1252")

	// Auth defaults
	v.SetDefault("auth.allowed_users", "")

	// Permission defaults
	v.SetDefault("permissions.match_fields", []string{"sender", "recipient", "email"})
	v.SetDefault("permissions.domain_match", true)

	// Dedup defaults
	v.SetDefault("dedup.debug", false)

	// Analytics defaults
	v.SetDefault("analytics.timezone", "Local")
	v.SetDefault("analytics.top_senders", 10)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/file_summary_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/email_analytics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

// Load creates a configuration instance from an explicit config file
func Load(path string) (*Config, error) {
	v := NewEmptyViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}
