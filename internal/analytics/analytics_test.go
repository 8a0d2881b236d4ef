package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/parser"
	"github.com/mikey/email-analytics/internal/permissions"
	"go.uber.org/zap"
)

// Wednesday
var testNow = time.Date(2024, time.June, 12, 15, 0, 0, 0, time.UTC)

func utcQuery(tr TimeRange) Query {
	return Query{TimeRange: tr, Direction: DirectionBoth, Now: testNow, Location: time.UTC}
}

func row(ts, sender, recipient string) core.Row {
	return core.Row{Timestamp: ts, Sender: sender, Recipient: recipient}
}

func TestResolveRange(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	last := func(t time.Time) time.Time { return t.Add(-time.Nanosecond) }

	tests := []struct {
		tr         TimeRange
		start, end time.Time
	}{
		{RangeThisWeek, day(time.June, 9), last(day(time.June, 16))},
		{RangeLastWeek, day(time.June, 2), last(day(time.June, 9))},
		{RangeThisMonth, day(time.June, 1), last(day(time.July, 1))},
		{RangeLastMonth, day(time.May, 1), last(day(time.June, 1))},
		{RangeYTD, day(time.January, 1), testNow},
		{RangeLastYear, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), last(day(time.January, 1))},
	}
	for _, tt := range tests {
		t.Run(string(tt.tr), func(t *testing.T) {
			start, end, ok := ResolveRange(tt.tr, testNow, time.UTC)
			if !ok {
				t.Fatal("expected a bounded range")
			}
			if !start.Equal(tt.start) || !end.Equal(tt.end) {
				t.Errorf("got [%s, %s], want [%s, %s]", start, end, tt.start, tt.end)
			}
		})
	}

	if _, _, ok := ResolveRange(RangeAll, testNow, time.UTC); ok {
		t.Error("RangeAll should not be bounded")
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeRange
		wantErr bool
	}{
		{"", RangeAll, false},
		{"all", RangeAll, false},
		{"Last-Month", RangeLastMonth, false},
		{"year-to-date", RangeYTD, false},
		{"ytd", RangeYTD, false},
		{"fortnight", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTimeRange(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTimeRange(%q) = %q, %v", tt.in, got, err)
		}
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected an error for an unknown direction")
	}
	if d, _ := ParseDirection(""); d != DirectionBoth {
		t.Errorf("ParseDirection(\"\") = %q", d)
	}
}

func TestFilterByTimeRange(t *testing.T) {
	rows := []core.Row{
		row("2024-06-09T00:00:00Z", "a@x.com", ""),      // start of this week
		row("2024-06-15T23:59:59Z", "a@x.com", ""),      // end of this week
		row("2024-06-08T23:59:59Z", "a@x.com", ""),      // last week
		row("garbage", "a@x.com", ""),                   // unparseable
		row("2024-06-10 08:30:00", "a@x.com", ""),       // zone-less
		row("2024-06-16T00:00:00+00:00", "a@x.com", ""), // next week
	}

	kept, skipped := FilterByTimeRange(rows, utcQuery(RangeThisWeek))
	if len(kept) != 3 {
		t.Errorf("kept %d rows, want 3: %+v", len(kept), kept)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}

	all, skipped := FilterByTimeRange(rows, utcQuery(RangeAll))
	if len(all) != len(rows) || skipped != 0 {
		t.Errorf("RangeAll kept %d skipped %d", len(all), skipped)
	}
}

func TestFilterByDirection(t *testing.T) {
	rows := []core.Row{
		row("", "Me@Acme.com", "a@x.com"),
		row("", "a@x.com", "b@x.com; me@acme.com"),
		row("", "a@x.com", "b@x.com"),
	}

	tests := []struct {
		dir   Direction
		email string
		want  int
	}{
		{DirectionBoth, "me@acme.com", 3},
		{DirectionSent, "me@acme.com", 1},
		{DirectionReceived, "ME@ACME.COM", 1},
		{DirectionSent, "", 3},
	}
	for _, tt := range tests {
		if got := FilterByDirection(rows, tt.dir, tt.email); len(got) != tt.want {
			t.Errorf("FilterByDirection(%s, %q) kept %d, want %d", tt.dir, tt.email, len(got), tt.want)
		}
	}
}

func TestBuildHeatmap_LateEmailWidensHours(t *testing.T) {
	f, err := permissions.NewFilter(nil, true)
	if err != nil {
		t.Fatal(err)
	}
	text := "date_time_utc,sender_address\n2024-01-01T09:00:00Z,a@x.com\n2024-01-01T23:00:00Z,b@x.com\n"
	d := parser.NewParser(f, zap.NewNop()).Parse(text, "scenario.csv",
		core.Caller{Email: "daniel@wolthers.com", IsAdmin: true})
	if d == nil {
		t.Fatal("expected a dataset")
	}

	h := BuildHeatmap(d.Rows, utcQuery(RangeAll))
	if h.HourRange != [2]int{0, 23} {
		t.Errorf("HourRange = %v, want [0 23]", h.HourRange)
	}
	// 2024-01-01 is a Monday
	if h.Matrix[1][9] != 1 || h.Matrix[1][23] != 1 {
		t.Errorf("unexpected cells: 09h=%d 23h=%d", h.Matrix[1][9], h.Matrix[1][23])
	}
	if h.Matrix.Sum() != 2 {
		t.Errorf("Sum = %d, want 2", h.Matrix.Sum())
	}
}

func TestBuildHeatmap_BusinessHours(t *testing.T) {
	rows := []core.Row{
		row("2024-06-10T06:00:00Z", "a@x.com", ""),
		row("2024-06-10T22:59:00Z", "b@x.com", ""),
	}
	h := BuildHeatmap(rows, utcQuery(RangeAll))
	if h.HourRange != [2]int{6, 22} {
		t.Errorf("HourRange = %v, want [6 22]", h.HourRange)
	}
	series := h.HourlySeries(nil)
	if got := len(series[""]); got != 17 {
		t.Errorf("global series has %d hours, want 17", got)
	}
}

func TestBuildHeatmap_SumInvariant(t *testing.T) {
	rows := []core.Row{
		row("2024-06-10T09:00:00Z", "a@x.com", ""),
		row("2024-06-11T10:00:00Z", "a@x.com", ""),
		row("2024-06-11T10:30:00Z", "b@x.com", ""),
		row("2024-06-12T11:00:00Z", "", ""),
		row("", "c@x.com", ""),
		row("yesterday", "c@x.com", ""),
	}
	h := BuildHeatmap(rows, utcQuery(RangeAll))

	if h.Matrix.Sum() != 4 {
		t.Errorf("Sum = %d, want the 4 parseable rows", h.Matrix.Sum())
	}
	if h.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", h.Skipped)
	}
	if h.TotalEmails != len(rows) {
		t.Errorf("TotalEmails = %d", h.TotalEmails)
	}
	if h.ActiveSenders() != 2 {
		t.Errorf("ActiveSenders = %d, want 2", h.ActiveSenders())
	}
	if got := h.Senders["a@x.com"]; got.Total != 2 || got.ByDay[1] != 1 || got.ByHour[10] != 1 {
		t.Errorf("a@x.com stats = %+v", got)
	}
	if h.SenderMatrices["b@x.com"].Sum() != 1 {
		t.Error("per-sender matrix not updated")
	}
	if diff := cmp.Diff([]string{"a@x.com", "b@x.com"}, h.SendersByVolume()); diff != "" {
		t.Errorf("SendersByVolume mismatch (-want +got):\n%s", diff)
	}
	// two emails on Tuesday at 10h
	if h.Peak() != 2 {
		t.Errorf("Peak = %d, want 2", h.Peak())
	}
}

func TestBuildHeatmap_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	rows := []core.Row{row("2024-06-10T23:30:00Z", "a@x.com", "")}

	q := utcQuery(RangeAll)
	q.Location = loc
	h := BuildHeatmap(rows, q)
	// Monday 23:30 UTC is Tuesday 01:30 at +02:00
	if h.Matrix[2][1] != 1 {
		t.Errorf("expected the row in Tuesday 01h, matrix: %v", h.Matrix)
	}
}

func TestAveragePerSender(t *testing.T) {
	empty := BuildHeatmap([]core.Row{row("2024-06-10T09:00:00Z", "", "")}, utcQuery(RangeAll))
	if empty.AveragePerSender() != 0 {
		t.Errorf("AveragePerSender without senders = %d", empty.AveragePerSender())
	}

	h := BuildHeatmap([]core.Row{
		row("2024-06-10T09:00:00Z", "a@x.com", ""),
		row("2024-06-10T10:00:00Z", "a@x.com", ""),
		row("2024-06-10T11:00:00Z", "b@x.com", ""),
	}, utcQuery(RangeAll))
	if h.AveragePerSender() != 2 {
		t.Errorf("AveragePerSender = %d, want 2", h.AveragePerSender())
	}
}

func TestBuildLeaderboard(t *testing.T) {
	rows := []core.Row{
		row("2024-06-10T09:00:00Z", "zed@x.com", ""),
		row("2024-06-10T09:00:00Z", "amy@x.com", ""),
		row("2024-06-10T09:00:00Z", "amy@x.com", ""),
		row("2024-06-10T09:00:00Z", "bob@x.com", ""),
		row("2024-06-10T09:00:00Z", "", ""),
	}
	q := utcQuery(RangeAll)
	q.SelectedSenders = []string{"BOB@x.com"}

	lb := BuildLeaderboard(rows, q)
	want := []SenderCount{
		{Sender: "amy@x.com", DisplayName: "amy", Count: 2, Share: 0.4},
		{Sender: "zed@x.com", DisplayName: "zed", Count: 1, Share: 0.2},
		{Sender: "bob@x.com", DisplayName: "bob", Count: 1, Share: 0.2, Selected: true},
	}
	if diff := cmp.Diff(want, lb.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if lb.Total != 5 || lb.Skipped != 1 {
		t.Errorf("Total=%d Skipped=%d", lb.Total, lb.Skipped)
	}
	if got := lb.Top(1); len(got) != 1 || got[0].Sender != "amy@x.com" {
		t.Errorf("Top(1) = %+v", got)
	}
	if got := lb.Top(0); len(got) != 3 {
		t.Errorf("Top(0) should return everything, got %d", len(got))
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("jane.doe@example.com"); got != "jane.doe" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := DisplayName("no-at-sign"); got != "no-at-sign" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestBuildYearComparison(t *testing.T) {
	rows := []core.Row{
		row("2024-03-05T10:00:00Z", "a@x.com", ""),
		row("2024-03-20T10:00:00Z", "a@x.com", ""),
		row("2023-03-01T10:00:00Z", "a@x.com", ""),
		row("2023-12-31T23:00:00Z", "a@x.com", ""),
		row("2022-01-01T10:00:00Z", "a@x.com", ""),
		row("n/a", "a@x.com", ""),
	}
	yc := BuildYearComparison(rows, testNow, time.UTC)

	if yc.Year != 2024 {
		t.Errorf("Year = %d", yc.Year)
	}
	if m := yc.Months[time.March-1]; m.Month != "Mar" || m.ThisYear != 2 || m.LastYear != 1 {
		t.Errorf("March = %+v", m)
	}
	if m := yc.Months[time.December-1]; m.ThisYear != 0 || m.LastYear != 1 {
		t.Errorf("December = %+v", m)
	}
	if yc.Months[0].LastYear != 0 {
		t.Errorf("rows older than last year should be ignored, January = %+v", yc.Months[0])
	}
	if yc.Skipped != 1 {
		t.Errorf("Skipped = %d", yc.Skipped)
	}
}

func TestBuild_YearComparisonIgnoresFilters(t *testing.T) {
	rows := []core.Row{
		row("2023-03-01T10:00:00Z", "a@x.com", ""),
		row("2024-06-11T10:00:00Z", "me@acme.com", ""),
	}
	q := utcQuery(RangeThisWeek)
	q.Direction = DirectionSent
	q.CallerEmail = "me@acme.com"

	v := Build(rows, q)
	if v.Heatmap.TotalEmails != 1 || v.Leaderboard.Total != 1 {
		t.Errorf("filtered views: heatmap %d leaderboard %d", v.Heatmap.TotalEmails, v.Leaderboard.Total)
	}
	if v.YearComparison.Months[time.March-1].LastYear != 1 || v.YearComparison.Months[time.June-1].ThisYear != 1 {
		t.Errorf("year comparison should see every row: %+v", v.YearComparison.Months)
	}
}
