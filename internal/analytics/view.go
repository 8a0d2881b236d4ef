package analytics

import (
	"github.com/mikey/email-analytics/internal/core"
)

// View bundles every aggregate the dashboard shows for one query
type View struct {
	Query          Query
	Heatmap        Heatmap
	Leaderboard    Leaderboard
	YearComparison YearComparison
}

// Build computes all aggregates over permission-filtered rows
func Build(rows []core.Row, q Query) View {
	if q.Now.IsZero() {
		q.Now = q.now()
	}
	return View{
		Query:          q,
		Heatmap:        BuildHeatmap(rows, q),
		Leaderboard:    BuildLeaderboard(rows, q),
		YearComparison: BuildYearComparison(rows, q.Now, q.location()),
	}
}
