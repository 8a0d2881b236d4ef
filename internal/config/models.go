package config

import (
	"fmt"
	"strings"
	"time"
)

// SourceConfig represents the configuration of the CSV file source
type SourceConfig struct {
	Type           string
	LocalDir       string
	HTTPBaseURL    string
	HTTPIndexURL   string
	HTTPRetries    int
	S3             S3Config
	MaxConcurrency int
	FetchTimeout   time.Duration
	MaxFileSize    int64
}

// S3Config represents the configuration for the S3 file source
type S3Config struct {
	Bucket string
	Region string
	Prefix string
}

// CacheConfig represents the configuration for the file summary cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// PermissionsConfig represents the configuration of the row filter
type PermissionsConfig struct {
	MatchFields []string
	DomainMatch bool
}

// AnalyticsConfig represents the configuration of the aggregation views
type AnalyticsConfig struct {
	Location   *time.Location
	TopSenders int
	DedupDebug bool
}

// GetSource returns the source configuration
func (c *Config) GetSource() (SourceConfig, error) {
	timeout, err := c.GetDuration("source.fetch_timeout")
	if err != nil {
		return SourceConfig{}, fmt.Errorf("invalid source.fetch_timeout: %w", err)
	}
	return SourceConfig{
		Type:         c.GetString("source.type"),
		LocalDir:     c.GetString("source.local_dir"),
		HTTPBaseURL:  c.GetString("source.http_base_url"),
		HTTPIndexURL: c.GetString("source.http_index_url"),
		HTTPRetries:  c.GetInt("source.http_retries"),
		S3: S3Config{
			Bucket: c.GetString("source.s3.bucket"),
			Region: c.GetString("source.s3.region"),
			Prefix: c.GetString("source.s3.prefix"),
		},
		MaxConcurrency: c.GetInt("source.max_concurrency"),
		FetchTimeout:   timeout,
		MaxFileSize:    c.GetInt64("source.max_file_size"),
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache.ttl: %w", err)
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache.cleanup_frequency: %w", err)
	}
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}

// GetPermissions returns the permission filter configuration
func (c *Config) GetPermissions() PermissionsConfig {
	return PermissionsConfig{
		MatchFields: c.GetStringSlice("permissions.match_fields"),
		DomainMatch: c.GetBool("permissions.domain_match"),
	}
}

// GetAnalytics returns the analytics configuration
func (c *Config) GetAnalytics() (AnalyticsConfig, error) {
	loc, err := time.LoadLocation(c.GetString("analytics.timezone"))
	if err != nil {
		return AnalyticsConfig{}, fmt.Errorf("invalid analytics.timezone: %w", err)
	}
	return AnalyticsConfig{
		Location:   loc,
		TopSenders: c.GetInt("analytics.top_senders"),
		DedupDebug: c.GetBool("dedup.debug"),
	}, nil
}

// GetAdmins returns the configured administrator emails. The value is a
// comma-separated list, as in ALLOWED_USERS.
func (c *Config) GetAdmins() []string {
	var admins []string
	for _, raw := range c.GetStringSlice("auth.allowed_users") {
		for _, part := range strings.Split(raw, ",") {
			if email := strings.TrimSpace(part); email != "" {
				admins = append(admins, email)
			}
		}
	}
	return admins
}
