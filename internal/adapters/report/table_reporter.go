package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mikey/email-analytics/internal/analytics"
	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/utils"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

var dayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// maxCellChars bounds free-text cells such as addresses and file names
const maxCellChars = 40

// TableReporter renders results as terminal tables
type TableReporter struct {
	out           io.Writer
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
}

// NewTableReporter creates a new table reporter
func NewTableReporter(out io.Writer, textProcessor *utils.TextProcessor, logger *zap.Logger) *TableReporter {
	return &TableReporter{
		out:           out,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

func (r *TableReporter) cell(s string) string {
	return r.textProcessor.TruncateText(s, maxCellChars)
}

func (r *TableReporter) table(headers ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(r.out)
	t.SetHeader(headers)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

func (r *TableReporter) section(title string) {
	fmt.Fprintf(r.out, "\n=== %s ===\n", title)
}

// ReportFiles prints one row per file
func (r *TableReporter) ReportFiles(files []core.FileListing) error {
	r.section("Files")
	if len(files) == 0 {
		fmt.Fprintln(r.out, "No CSV files found")
		return nil
	}

	t := r.table("File", "Size", "Modified", "Records", "Earliest", "Latest")
	for _, f := range files {
		row := []string{r.cell(f.Name), humanize.Bytes(uint64(f.Size)), f.Modified.Format(time.RFC3339), "-", "-", "-"}
		if f.Summary != nil {
			row[3] = strconv.Itoa(f.Summary.RecordCount)
			row[4] = formatDate(f.Summary.Earliest)
			row[5] = formatDate(f.Summary.Latest)
		}
		t.Append(row)
	}
	t.Render()
	return nil
}

// ReportDataset prints the load summary
func (r *TableReporter) ReportDataset(merged *core.MergedDataset) error {
	if merged == nil {
		return fmt.Errorf("no dataset to report")
	}
	r.section("Dataset")
	fmt.Fprintf(r.out, "Files: %d (%s)\n", merged.FileCount, strings.Join(merged.SourceFiles, ", "))
	fmt.Fprintf(r.out, "Visible records: %d\n", len(merged.Rows))
	fmt.Fprintf(r.out, "Role: %s (filtered: %t)\n", merged.UserRole, merged.IsFiltered)

	if merged.Stats != nil {
		t := r.table("Rows", "Original", "Unique", "Duplicates removed")
		t.Append(countsRow("visible", merged.Stats.Filtered))
		t.Append(countsRow("all", merged.Stats.Unfiltered))
		t.Render()
	}
	return nil
}

// ReportView prints the quick stats, leaderboard, heatmap, per-sender activity
// and year comparison
func (r *TableReporter) ReportView(view analytics.View, top int) error {
	h := view.Heatmap
	r.section("Quick Stats")
	fmt.Fprintf(r.out, "Time range: %s, direction: %s\n", orDefault(string(view.Query.TimeRange), "all"), orDefault(string(view.Query.Direction), "both"))
	fmt.Fprintf(r.out, "Total emails: %d\n", h.TotalEmails)
	fmt.Fprintf(r.out, "Active senders: %d\n", h.ActiveSenders())
	fmt.Fprintf(r.out, "Average per sender: %d\n", h.AveragePerSender())
	fmt.Fprintf(r.out, "Peak hour volume: %d\n", h.Peak())
	if h.Skipped > 0 {
		fmt.Fprintf(r.out, "Rows without a usable timestamp: %d\n", h.Skipped)
	}

	r.section("Leaderboard")
	lb := r.table("#", "Sender", "Name", "Emails", "Share")
	for i, e := range view.Leaderboard.Top(top) {
		sender := r.cell(e.Sender)
		if e.Selected {
			sender = "* " + sender
		}
		lb.Append([]string{strconv.Itoa(i + 1), sender, r.cell(e.DisplayName), strconv.Itoa(e.Count), fmt.Sprintf("%.1f%%", e.Share*100)})
	}
	lb.Render()

	r.section("Activity Heatmap")
	from, to := h.HourRange[0], h.HourRange[1]
	headers := []string{"Day"}
	for hour := from; hour <= to; hour++ {
		headers = append(headers, fmt.Sprintf("%02d", hour))
	}
	headers = append(headers, "Total")
	hm := r.table(headers...)
	dayTotals := h.Matrix.DayTotals()
	for day, name := range dayNames {
		row := []string{name}
		for hour := from; hour <= to; hour++ {
			row = append(row, strconv.Itoa(h.Matrix[day][hour]))
		}
		row = append(row, strconv.Itoa(dayTotals[day]))
		hm.Append(row)
	}
	hm.Render()

	r.section("Sender Activity")
	st := r.table(append([]string{"Sender", "Total"}, dayNames[:]...)...)
	senders := h.SendersByVolume()
	if top > 0 && len(senders) > top {
		senders = senders[:top]
	}
	for _, sender := range senders {
		stats := h.Senders[sender]
		row := []string{r.cell(sender), strconv.Itoa(stats.Total)}
		for _, n := range stats.ByDay {
			row = append(row, strconv.Itoa(n))
		}
		st.Append(row)
	}
	st.Render()

	yc := view.YearComparison
	r.section("Year Comparison")
	yt := r.table("Month", strconv.Itoa(yc.Year-1), strconv.Itoa(yc.Year))
	for _, m := range yc.Months {
		yt.Append([]string{m.Month, strconv.Itoa(m.LastYear), strconv.Itoa(m.ThisYear)})
	}
	yt.Render()

	r.logger.Debug("Rendered view",
		zap.Int("total_emails", h.TotalEmails),
		zap.Int("leaderboard_entries", len(view.Leaderboard.Entries)))
	return nil
}

func countsRow(label string, c core.DeduplicationCounts) []string {
	return []string{label, strconv.Itoa(c.OriginalCount), strconv.Itoa(c.UniqueCount), strconv.Itoa(c.DuplicatesRemoved)}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
