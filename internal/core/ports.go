package core

import (
	"context"
	"io"
	"time"
)

// FileSource defines the interface for retrieving uploaded CSV files
type FileSource interface {
	// List returns the CSV files available from the source
	List(ctx context.Context) ([]FileInfo, error)

	// Fetch retrieves the raw content of a file
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FileStore is a file source that also accepts uploads
type FileStore interface {
	FileSource

	// Save stores an uploaded file and returns the name it was stored under
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)

	// Delete removes a stored file
	Delete(ctx context.Context, name string) error
}

// SummaryCache defines the interface for caching file summaries
type SummaryCache interface {
	// Get retrieves a cached summary
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a summary for the given TTL
	Set(ctx context.Context, key string, summary FileSummary, ttl time.Duration) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
