package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the SummaryCache interface
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS file_summary_cache (
			cache_key    TEXT PRIMARY KEY,
			file_name    TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			earliest     TEXT,
			latest       TEXT,
			cached_at    TEXT NOT NULL,
			expires_at   TEXT NOT NULL,
			expires_unix INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_unix for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_file_summary_expires ON file_summary_cache(expires_unix)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves a cached summary
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
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
func (c *SQLiteCache) Set(ctx context.Context, key string, summary core.FileSummary, ttl time.Duration) error {
	now := c.now()
	r := toSummaryRow(key, summary, now, now.Add(ttl))

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO file_summary_cache
			(cache_key, file_name, record_count, earliest, latest, cached_at, expires_at, expires_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.key, r.name, r.recordCount, r.earliest, r.latest, r.cachedAt, r.expiresAt, r.expiresUnix)

	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}

	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
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
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
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
func (c *SQLiteCache) startCleanupTask() {
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
func (c *SQLiteCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close SQLite database", zap.Error(err))
		}
	})
}
