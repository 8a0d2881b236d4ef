package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mikey/email-analytics/internal/analytics"
	"github.com/mikey/email-analytics/internal/core"
)

// JSONReporter writes results as indented JSON documents
type JSONReporter struct {
	enc *json.Encoder
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(out io.Writer) *JSONReporter {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return &JSONReporter{enc: enc}
}

type fileJSON struct {
	Name        string     `json:"name"`
	Size        int64      `json:"size"`
	Modified    time.Time  `json:"modified"`
	RecordCount *int       `json:"recordCount,omitempty"`
	Earliest    *time.Time `json:"earliest,omitempty"`
	Latest      *time.Time `json:"latest,omitempty"`
}

// ReportFiles writes the file listing
func (r *JSONReporter) ReportFiles(files []core.FileListing) error {
	out := make([]fileJSON, 0, len(files))
	for _, f := range files {
		entry := fileJSON{Name: f.Name, Size: f.Size, Modified: f.Modified}
		if f.Summary != nil {
			count := f.Summary.RecordCount
			entry.RecordCount = &count
			entry.Earliest = f.Summary.Earliest
			entry.Latest = f.Summary.Latest
		}
		out = append(out, entry)
	}
	return r.enc.Encode(map[string]any{"files": out})
}

// ReportDataset writes the load summary
func (r *JSONReporter) ReportDataset(merged *core.MergedDataset) error {
	if merged == nil {
		return fmt.Errorf("no dataset to report")
	}
	doc := map[string]any{
		"fileCount":    merged.FileCount,
		"totalRecords": merged.TotalRecords,
		"sourceFiles":  merged.SourceFiles,
		"isFiltered":   merged.IsFiltered,
		"userRole":     merged.UserRole,
	}
	if merged.Stats != nil {
		doc["deduplicationStats"] = map[string]any{
			"filtered":   countsJSON(merged.Stats.Filtered),
			"unfiltered": countsJSON(merged.Stats.Unfiltered),
		}
	}
	return r.enc.Encode(doc)
}

func countsJSON(c core.DeduplicationCounts) map[string]int {
	return map[string]int{
		"originalCount":     c.OriginalCount,
		"uniqueCount":       c.UniqueCount,
		"duplicatesRemoved": c.DuplicatesRemoved,
	}
}

// ReportView writes the aggregates
func (r *JSONReporter) ReportView(view analytics.View, top int) error {
	h := view.Heatmap
	var entries []map[string]any
	for _, e := range view.Leaderboard.Top(top) {
		entries = append(entries, map[string]any{
			"sender":      e.Sender,
			"displayName": e.DisplayName,
			"count":       e.Count,
			"share":       e.Share,
			"selected":    e.Selected,
		})
	}
	var activity []map[string]any
	for i, sender := range h.SendersByVolume() {
		if top > 0 && i == top {
			break
		}
		stats := h.Senders[sender]
		activity = append(activity, map[string]any{
			"sender": sender,
			"total":  stats.Total,
			"byDay":  stats.ByDay,
			"byHour": stats.ByHour,
		})
	}
	return r.enc.Encode(map[string]any{
		"timeRange": view.Query.TimeRange,
		"direction": view.Query.Direction,
		"quickStats": map[string]any{
			"totalEmails":      h.TotalEmails,
			"activeSenders":    h.ActiveSenders(),
			"averagePerSender": h.AveragePerSender(),
			"peakHourVolume":   h.Peak(),
			"dayTotals":        h.Matrix.DayTotals(),
			"hourTotals":       h.Matrix.HourTotals(),
		},
		"heatmap": map[string]any{
			"matrix":    h.Matrix,
			"hourRange": h.HourRange,
			"skipped":   h.Skipped,
		},
		"hourlySeries":   h.HourlySeries(view.Query.SelectedSenders),
		"leaderboard":    entries,
		"senderActivity": activity,
		"yearComparison": map[string]any{
			"year":   view.YearComparison.Year,
			"months": view.YearComparison.Months,
		},
	})
}
