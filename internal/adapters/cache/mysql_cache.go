package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the SummaryCache interface
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS file_summary_cache (
			cache_key    VARCHAR(512) PRIMARY KEY,
			file_name    VARCHAR(255) NOT NULL,
			record_count INT NOT NULL,
			earliest     VARCHAR(40),
			latest       VARCHAR(40),
			cached_at    VARCHAR(40) NOT NULL,
			expires_at   VARCHAR(40) NOT NULL,
			expires_unix BIGINT NOT NULL,
			INDEX idx_expires_unix (expires_unix)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	// Start background cleanup
	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves a cached summary
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var r summaryRow
	err := c.db.QueryRowContext(ctx, `
		SELECT cache_key, file_name, record_count, earliest, latest, cached_at, expires_at
		FROM file_summary_cache
		WHERE cache_key = ? AND expires_unix > ?
	`, key, c.now().Unix()).Scan(&r.key, &r.name, &r.recordCount, &r.earliest, &r.latest, &r.cachedAt, &r.expiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return r.entry()
}

// Set stores a summary
func (c *MySQLCache) Set(ctx context.Context, key string, summary core.FileSummary, ttl time.Duration) error {
	now := c.now()
	r := toSummaryRow(key, summary, now, now.Add(ttl))

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO file_summary_cache
			(cache_key, file_name, record_count, earliest, latest, cached_at, expires_at, expires_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			file_name = VALUES(file_name),
			record_count = VALUES(record_count),
			earliest = VALUES(earliest),
			latest = VALUES(latest),
			cached_at = VALUES(cached_at),
			expires_at = VALUES(expires_at),
			expires_unix = VALUES(expires_unix)
	`, r.key, r.name, r.recordCount, r.earliest, r.latest, r.cachedAt, r.expiresAt, r.expiresUnix)

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM file_summary_cache
		WHERE cache_key = ?
	`, key)

	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}

	return nil
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM file_summary_cache
		WHERE expires_unix <= ?
	`, c.now().Unix())

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MySQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *MySQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close MySQL database", zap.Error(err))
		}
	})
}
