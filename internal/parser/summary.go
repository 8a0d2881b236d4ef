package parser

import (
	"time"

	"github.com/mikey/email-analytics/internal/core"
)

// Summarize counts the records of a CSV file and finds the range of its
// parseable timestamps. No permission filtering is applied.
func Summarize(csvText, fileName string) core.FileSummary {
	summary := core.FileSummary{Name: fileName}

	lines := nonBlankLines(csvText)
	if len(lines) < 2 {
		return summary
	}

	tsIndex := TimestampIndex(SplitLine(lines[0]))
	for _, line := range lines[1:] {
		summary.RecordCount++
		if tsIndex < 0 {
			continue
		}
		values := SplitLine(line)
		if tsIndex >= len(values) {
			continue
		}
		t, ok := core.ParseTimestamp(values[tsIndex], time.UTC)
		if !ok {
			continue
		}
		if summary.Earliest == nil || t.Before(*summary.Earliest) {
			earliest := t
			summary.Earliest = &earliest
		}
		if summary.Latest == nil || t.After(*summary.Latest) {
			latest := t
			summary.Latest = &latest
		}
	}
	return summary
}
