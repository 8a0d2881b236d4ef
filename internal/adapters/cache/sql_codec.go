package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mikey/email-analytics/internal/core"
)

const timeLayout = time.RFC3339Nano

// summaryRow is the column layout shared by the SQL caches
type summaryRow struct {
	key         string
	name        string
	recordCount int
	earliest    sql.NullString
	latest      sql.NullString
	cachedAt    string
	expiresAt   string
	expiresUnix int64
}

func toSummaryRow(key string, s core.FileSummary, cachedAt, expiresAt time.Time) summaryRow {
	return summaryRow{
		key:         key,
		name:        s.Name,
		recordCount: s.RecordCount,
		earliest:    nullTime(s.Earliest),
		latest:      nullTime(s.Latest),
		cachedAt:    cachedAt.UTC().Format(timeLayout),
		expiresAt:   expiresAt.UTC().Format(timeLayout),
		expiresUnix: expiresAt.Unix(),
	}
}

func (r summaryRow) entry() (*core.CacheEntry, error) {
	entry := &core.CacheEntry{
		Key: r.key,
		Summary: core.FileSummary{
			Name:        r.name,
			RecordCount: r.recordCount,
		},
	}

	var err error
	if entry.Summary.Earliest, err = parseNullTime(r.earliest); err != nil {
		return nil, fmt.Errorf("failed to parse earliest timestamp: %w", err)
	}
	if entry.Summary.Latest, err = parseNullTime(r.latest); err != nil {
		return nil, fmt.Errorf("failed to parse latest timestamp: %w", err)
	}
	if entry.CachedAt, err = time.Parse(timeLayout, r.cachedAt); err != nil {
		return nil, fmt.Errorf("failed to parse cached_at timestamp: %w", err)
	}
	if entry.ExpiresAt, err = time.Parse(timeLayout, r.expiresAt); err != nil {
		return nil, fmt.Errorf("failed to parse expires_at timestamp: %w", err)
	}
	return entry, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
