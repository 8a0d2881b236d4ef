package analytics

import (
	"strings"

	"github.com/mikey/email-analytics/internal/core"
)

// FilterByTimeRange keeps the rows whose timestamp falls inside the query's
// time range. With RangeAll every row is kept and nothing is skipped;
// otherwise rows with unparseable timestamps are dropped and counted.
func FilterByTimeRange(rows []core.Row, q Query) (kept []core.Row, skipped int) {
	start, end, ok := ResolveRange(q.TimeRange, q.now(), q.location())
	if !ok {
		return rows, 0
	}

	kept = make([]core.Row, 0, len(rows))
	for _, row := range rows {
		t, ok := core.ParseTimestamp(row.Timestamp, q.location())
		if !ok {
			skipped++
			continue
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		kept = append(kept, row)
	}
	return kept, skipped
}

// FilterByDirection keeps sent or received rows relative to email. Without
// an email, or for DirectionBoth, the rows are returned unchanged.
func FilterByDirection(rows []core.Row, dir Direction, email string) []core.Row {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || dir == DirectionBoth || dir == "" {
		return rows
	}

	kept := make([]core.Row, 0, len(rows))
	for _, row := range rows {
		var field string
		switch dir {
		case DirectionSent:
			field = row.Sender
		case DirectionReceived:
			field = row.Recipient
		default:
			return rows
		}
		if strings.Contains(strings.ToLower(field), email) {
			kept = append(kept, row)
		}
	}
	return kept
}

// applyFilters runs the time range and direction filters
func applyFilters(rows []core.Row, q Query) ([]core.Row, int) {
	kept, skipped := FilterByTimeRange(rows, q)
	return FilterByDirection(kept, q.Direction, q.CallerEmail), skipped
}
