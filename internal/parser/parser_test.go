package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mikey/email-analytics/internal/core"
	"github.com/mikey/email-analytics/internal/permissions"
	"go.uber.org/zap"
)

func testParser(t *testing.T) *Parser {
	t.Helper()
	f, err := permissions.NewFilter(nil, true)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	return NewParser(f, zap.NewNop())
}

var admin = core.Caller{Email: "daniel@wolthers.com", IsAdmin: true, Role: permissions.RoleAdmin}

func TestParse_TrafficExport(t *testing.T) {
	text := "date_time_utc,sender_address,recipient_address,message_subject,network_message_id,message_id,direction\n" +
		"2024-01-01T09:00:00Z,a@x.com,b@y.com,\"Hello, world\",net-1,msg-1,Outbound\n" +
		"\n" +
		"  \n" +
		"2024-01-01T23:00:00Z,b@x.com,a@y.com,Re: hi,net-2,msg-2,Inbound\n"

	d := testParser(t).Parse(text, "jan.csv", admin)
	if d == nil {
		t.Fatal("expected a dataset")
	}

	want := []core.Row{
		{
			Timestamp:        "2024-01-01T09:00:00Z",
			Sender:           "a@x.com",
			Recipient:        "b@y.com",
			Subject:          "Hello, world",
			NetworkMessageID: "net-1",
			MessageID:        "msg-1",
			Extra:            map[string]string{"direction": "Outbound"},
			SourceFile:       "jan.csv",
		},
		{
			Timestamp:        "2024-01-01T23:00:00Z",
			Sender:           "b@x.com",
			Recipient:        "a@y.com",
			Subject:          "Re: hi",
			NetworkMessageID: "net-2",
			MessageID:        "msg-2",
			Extra:            map[string]string{"direction": "Inbound"},
			SourceFile:       "jan.csv",
		},
	}
	if diff := cmp.Diff(want, d.AllRows, cmpopts.IgnoreUnexported(core.Row{})); diff != "" {
		t.Errorf("AllRows mismatch (-want +got):\n%s", diff)
	}
	if len(d.Rows) != 2 {
		t.Errorf("admin should see all rows, got %d", len(d.Rows))
	}
	if d.IsFiltered {
		t.Error("admin dataset should not be filtered")
	}
	if d.UserRole != permissions.RoleAdmin {
		t.Errorf("UserRole = %q, want admin", d.UserRole)
	}
	if d.SourceFile != "jan.csv" {
		t.Errorf("SourceFile = %q", d.SourceFile)
	}
	if got := d.AllRows[0].Get("message_subject"); got != "Hello, world" {
		t.Errorf("Get(message_subject) = %q", got)
	}
	if got := d.AllRows[0].Get("direction"); got != "Outbound" {
		t.Errorf("Get(direction) = %q", got)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "  \n\t\n"},
		{"no traffic headers", "name,amount\nalice,10\n"},
		{"header only without known columns", "id\n"},
	}
	p := testParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := p.Parse(tt.text, "x.csv", admin); d != nil {
				t.Errorf("expected nil dataset, got %+v", d)
			}
		})
	}
}

func TestParse_MissingTrailingValues(t *testing.T) {
	text := "date_time_utc,sender_address,message_subject,notes\n2024-03-01T10:00:00Z,a@x.com\n"
	d := testParser(t).Parse(text, "short.csv", admin)
	if d == nil {
		t.Fatal("expected a dataset")
	}
	row := d.AllRows[0]
	if row.Subject != "" {
		t.Errorf("Subject = %q, want empty", row.Subject)
	}
	if v, ok := row.Extra["notes"]; !ok || v != "" {
		t.Errorf("notes = %q (present %t), want empty and present", v, ok)
	}
}

func TestParse_TimestampColumnPreference(t *testing.T) {
	text := "origin_timestamp_utc,date_time_utc,sender_address\n2024-01-01T01:00:00Z,2024-02-02T02:00:00Z,a@x.com\n"
	d := testParser(t).Parse(text, "ts.csv", admin)
	if d == nil {
		t.Fatal("expected a dataset")
	}
	if got := d.AllRows[0].Timestamp; got != "2024-02-02T02:00:00Z" {
		t.Errorf("Timestamp = %q, want the date_time_utc value", got)
	}
	if got := d.AllRows[0].Extra["origin_timestamp_utc"]; got != "2024-01-01T01:00:00Z" {
		t.Errorf("secondary timestamp column should pass through as an extra, got %q", got)
	}
}

func TestParse_BlankTimestampFallsBack(t *testing.T) {
	text := "date_time_utc,origin_timestamp_utc,sender_address\n" +
		"2024-02-02T02:00:00Z,2024-01-01T01:00:00Z,a@x.com\n" +
		",2024-01-03T03:00:00Z,b@x.com\n" +
		",,c@x.com\n"
	d := testParser(t).Parse(text, "ts.csv", admin)
	if d == nil {
		t.Fatal("expected a dataset")
	}
	var got []string
	for _, row := range d.AllRows {
		got = append(got, row.Timestamp)
	}
	want := []string{"2024-02-02T02:00:00Z", "2024-01-03T03:00:00Z", ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("timestamps mismatch (-want +got):\n%s", diff)
	}
	if v := d.AllRows[1].Extra["origin_timestamp_utc"]; v != "2024-01-03T03:00:00Z" {
		t.Errorf("secondary column should stay in Extra, got %q", v)
	}
}

func TestParse_RowsSubsetOfAllRows(t *testing.T) {
	text := "date_time_utc,sender_address,recipient_address,message_id\n" +
		"2024-01-01T09:00:00Z,u@acme.com,z@other.com,1\n" +
		"2024-01-01T10:00:00Z,x@other.com,y@other.com,2\n" +
		"2024-01-01T11:00:00Z,x@other.com,peer@acme.com,3\n"

	d := testParser(t).Parse(text, "mixed.csv", core.Caller{Email: "u@acme.com", Role: permissions.RoleUser})
	if d == nil {
		t.Fatal("expected a dataset")
	}
	if !d.IsFiltered {
		t.Error("non-admin dataset should be filtered")
	}

	all := make(map[string]bool)
	for _, r := range d.AllRows {
		all[r.MessageID] = true
	}
	for _, r := range d.Rows {
		if !all[r.MessageID] {
			t.Errorf("row %s is not in AllRows", r.MessageID)
		}
	}
	var ids []string
	for _, r := range d.Rows {
		ids = append(ids, r.MessageID)
	}
	if diff := cmp.Diff([]string{"1", "3"}, ids); diff != "" {
		t.Errorf("visible rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NoIdentitySeesNothing(t *testing.T) {
	text := "date_time_utc,sender_address\n2024-01-01T09:00:00Z,a@x.com\n"
	d := testParser(t).Parse(text, "a.csv", core.Caller{})
	if d == nil {
		t.Fatal("expected a dataset")
	}
	if len(d.Rows) != 0 || len(d.AllRows) != 1 {
		t.Errorf("Rows=%d AllRows=%d, want 0 and 1", len(d.Rows), len(d.AllRows))
	}
	if d.UserRole != permissions.RoleUser {
		t.Errorf("UserRole = %q, want user", d.UserRole)
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`a,b,c`, []string{"a", "b", "c"}},
		{` a , b ,c `, []string{"a", "b", "c"}},
		{`"x, y",z`, []string{"x, y", "z"}},
		{`a,,c,`, []string{"a", "", "c", ""}},
		{`"quoted"`, []string{"quoted"}},
		{"a,b\r", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SplitLine(tt.line)); diff != "" {
				t.Errorf("SplitLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestIsEmailTrafficHeader(t *testing.T) {
	tests := []struct {
		headers []string
		want    bool
	}{
		{[]string{"Date_Time_UTC", "subject"}, true},
		{[]string{"original_sender_address"}, true},
		{[]string{"origin_timestamp_utc", "recipients"}, false},
		{[]string{"foo", "bar"}, false},
	}
	for _, tt := range tests {
		if got := IsEmailTrafficHeader(tt.headers); got != tt.want {
			t.Errorf("IsEmailTrafficHeader(%v) = %t, want %t", tt.headers, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	text := "origin_timestamp_utc,sender_address\n" +
		"2024-03-05T10:00:00Z,a@x.com\n" +
		"not a date,b@x.com\n" +
		"2024-01-02T08:00:00Z,c@x.com\n"

	s := Summarize(text, "q1.csv")
	if s.Name != "q1.csv" || s.RecordCount != 3 {
		t.Fatalf("got name %q count %d", s.Name, s.RecordCount)
	}
	if s.Earliest == nil || s.Latest == nil {
		t.Fatal("expected a date range")
	}
	if got := s.Earliest.Format("2006-01-02"); got != "2024-01-02" {
		t.Errorf("Earliest = %s", got)
	}
	if got := s.Latest.Format("2006-01-02"); got != "2024-03-05" {
		t.Errorf("Latest = %s", got)
	}

	empty := Summarize("", "empty.csv")
	if empty.RecordCount != 0 || empty.Earliest != nil {
		t.Errorf("empty summary = %+v", empty)
	}
}
