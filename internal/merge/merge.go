// Package merge combines the datasets of several uploads into one.
package merge

import (
	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

// RowDeduplicator removes repeated rows
type RowDeduplicator interface {
	Deduplicate(rows []core.Row, debug bool) core.DeduplicationResult
}

// Merger unions per-file datasets
type Merger struct {
	dedup  RowDeduplicator
	logger *zap.Logger
	debug  bool
}

// NewMerger creates a new merger
func NewMerger(dedup RowDeduplicator, logger *zap.Logger, debug bool) *Merger {
	return &Merger{
		dedup:  dedup,
		logger: logger,
		debug:  debug,
	}
}

// Merge unions the datasets and removes duplicates across them. All datasets
// must have been parsed for the same caller. A single dataset is passed
// through as-is, without a deduplication pass.
func (m *Merger) Merge(datasets []*core.Dataset) *core.MergedDataset {
	switch len(datasets) {
	case 0:
		return nil
	case 1:
		d := datasets[0]
		return &core.MergedDataset{
			Dataset:      d,
			FileCount:    1,
			TotalRecords: len(d.Rows),
			SourceFiles:  []string{d.SourceFile},
		}
	}

	seenHeaders := make(map[string]struct{})
	var (
		headers     []string
		rows        []core.Row
		allRows     []core.Row
		sourceFiles = make([]string, 0, len(datasets))
	)
	for _, d := range datasets {
		for _, h := range d.Headers {
			if _, ok := seenHeaders[h]; ok {
				continue
			}
			seenHeaders[h] = struct{}{}
			headers = append(headers, h)
		}
		rows = append(rows, d.Rows...)
		allRows = append(allRows, d.AllRows...)
		sourceFiles = append(sourceFiles, d.SourceFile)
	}

	m.logger.Info("Deduplicating emails across files", zap.Int("files", len(datasets)))

	// filtered and unfiltered sets can have different duplicate patterns
	filtered := m.dedup.Deduplicate(rows, m.debug)
	unfiltered := m.dedup.Deduplicate(allRows, m.debug)

	stats := &core.DeduplicationStats{
		Filtered: core.DeduplicationCounts{
			OriginalCount:     len(rows),
			UniqueCount:       filtered.UniqueCount,
			DuplicatesRemoved: filtered.DuplicatesRemoved,
		},
		Unfiltered: core.DeduplicationCounts{
			OriginalCount:     len(allRows),
			UniqueCount:       unfiltered.UniqueCount,
			DuplicatesRemoved: unfiltered.DuplicatesRemoved,
		},
	}

	m.logger.Info("Merged datasets",
		zap.Int("files", len(datasets)),
		zap.Int("unique_rows", stats.Filtered.UniqueCount),
		zap.Int("duplicates_removed", stats.Filtered.DuplicatesRemoved),
		zap.Int("unfiltered_duplicates_removed", stats.Unfiltered.DuplicatesRemoved))

	first := datasets[0]
	return &core.MergedDataset{
		Dataset: &core.Dataset{
			Headers:    headers,
			Rows:       filtered.Rows,
			AllRows:    unfiltered.Rows,
			IsFiltered: first.IsFiltered,
			UserRole:   first.UserRole,
		},
		FileCount:    len(datasets),
		TotalRecords: filtered.UniqueCount,
		SourceFiles:  sourceFiles,
		Stats:        stats,
	}
}
