package ports

import (
	"github.com/mikey/email-analytics/internal/analytics"
	"github.com/mikey/email-analytics/internal/core"
)

// Reporter defines the interface for presenting results to the user
type Reporter interface {
	// ReportFiles shows the available files and their summaries
	ReportFiles(files []core.FileListing) error

	// ReportDataset shows what was loaded and how many duplicates were removed
	ReportDataset(merged *core.MergedDataset) error

	// ReportView shows the aggregates, limiting the leaderboard to top entries
	ReportView(view analytics.View, top int) error
}
