package merge

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/dedup"
	"go.uber.org/zap"
)

// countingDedup records how often it was called
type countingDedup struct {
	inner *dedup.Deduplicator
	calls int
}

func (c *countingDedup) Deduplicate(rows []core.Row, debug bool) core.DeduplicationResult {
	c.calls++
	return c.inner.Deduplicate(rows, debug)
}

func newTestMerger() (*Merger, *countingDedup) {
	d := &countingDedup{inner: dedup.NewDeduplicator(zap.NewNop())}
	return NewMerger(d, zap.NewNop(), false), d
}

func dataset(file string, headers []string, rows ...core.Row) *core.Dataset {
	for i := range rows {
		rows[i].SourceFile = file
	}
	return &core.Dataset{
		Headers:    headers,
		Rows:       rows,
		AllRows:    rows,
		IsFiltered: true,
		UserRole:   "user",
		SourceFile: file,
	}
}

func TestMerge_Empty(t *testing.T) {
	m, d := newTestMerger()
	if got := m.Merge(nil); got != nil {
		t.Errorf("Merge(nil) = %+v, want nil", got)
	}
	if d.calls != 0 {
		t.Errorf("deduplicator called %d times", d.calls)
	}
}

func TestMerge_SingleDatasetPassesThrough(t *testing.T) {
	m, d := newTestMerger()
	// duplicates inside one file are kept as-is
	in := dataset("a.csv", []string{"message_id"}, core.Row{MessageID: "1"}, core.Row{MessageID: "1"})

	got := m.Merge([]*core.Dataset{in})
	if got.Dataset != in {
		t.Error("single dataset should be returned unchanged")
	}
	if got.Stats != nil {
		t.Errorf("Stats = %+v, want nil", got.Stats)
	}
	if got.FileCount != 1 || got.TotalRecords != 2 {
		t.Errorf("FileCount=%d TotalRecords=%d", got.FileCount, got.TotalRecords)
	}
	if d.calls != 0 {
		t.Errorf("deduplicator called %d times", d.calls)
	}
}

func TestMerge_TwoFilesSharedMessage(t *testing.T) {
	m, d := newTestMerger()
	a := dataset("a.csv", []string{"date_time_utc", "message_id"},
		core.Row{MessageID: "shared"}, core.Row{MessageID: "only-a"})
	b := dataset("b.csv", []string{"message_id", "sender_address"},
		core.Row{MessageID: "shared"}, core.Row{MessageID: "only-b"})

	got := m.Merge([]*core.Dataset{a, b})
	if d.calls != 2 {
		t.Errorf("deduplicator called %d times, want once per row set", d.calls)
	}
	if len(got.Rows) != 3 || got.TotalRecords != 3 {
		t.Errorf("Rows=%d TotalRecords=%d, want 3", len(got.Rows), got.TotalRecords)
	}
	want := core.DeduplicationStats{
		Filtered:   core.DeduplicationCounts{OriginalCount: 4, UniqueCount: 3, DuplicatesRemoved: 1},
		Unfiltered: core.DeduplicationCounts{OriginalCount: 4, UniqueCount: 3, DuplicatesRemoved: 1},
	}
	if diff := cmp.Diff(want, *got.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if got.Rows[0].SourceFile != "a.csv" {
		t.Errorf("first occurrence should be kept, got row from %s", got.Rows[0].SourceFile)
	}
	if got.FileCount != 2 {
		t.Errorf("FileCount = %d", got.FileCount)
	}
	if diff := cmp.Diff([]string{"a.csv", "b.csv"}, got.SourceFiles); diff != "" {
		t.Errorf("SourceFiles mismatch (-want +got):\n%s", diff)
	}

	headers := append([]string(nil), got.Headers...)
	sort.Strings(headers)
	if diff := cmp.Diff([]string{"date_time_utc", "message_id", "sender_address"}, headers); diff != "" {
		t.Errorf("header union mismatch (-want +got):\n%s", diff)
	}
	if !got.IsFiltered || got.UserRole != "user" {
		t.Errorf("caller context not copied: filtered=%t role=%q", got.IsFiltered, got.UserRole)
	}
}

func TestMerge_FilteredAndUnfilteredCountedSeparately(t *testing.T) {
	m, _ := newTestMerger()
	a := &core.Dataset{
		Rows:       []core.Row{{MessageID: "1"}},
		AllRows:    []core.Row{{MessageID: "1"}, {MessageID: "hidden"}},
		SourceFile: "a.csv",
	}
	b := &core.Dataset{
		Rows:       []core.Row{},
		AllRows:    []core.Row{{MessageID: "hidden"}},
		SourceFile: "b.csv",
	}

	got := m.Merge([]*core.Dataset{a, b})
	if got.Stats.Filtered.DuplicatesRemoved != 0 {
		t.Errorf("filtered duplicates = %d, want 0", got.Stats.Filtered.DuplicatesRemoved)
	}
	if got.Stats.Unfiltered.DuplicatesRemoved != 1 {
		t.Errorf("unfiltered duplicates = %d, want 1", got.Stats.Unfiltered.DuplicatesRemoved)
	}
	if len(got.AllRows) != 2 || len(got.Rows) != 1 {
		t.Errorf("AllRows=%d Rows=%d", len(got.AllRows), len(got.Rows))
	}
}
