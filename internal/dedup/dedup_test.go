package dedup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/mikey/email-analytics/internal/core"
	"go.uber.org/zap"
)

func TestComputeIdentity(t *testing.T) {
	tests := []struct {
		name string
		row  core.Row
		want string
	}{
		{
			name: "message id wins",
			row:  core.Row{MessageID: "m1", NetworkMessageID: "n1", Timestamp: "t", Sender: "s"},
			want: "msg_m1",
		},
		{
			name: "network message id",
			row:  core.Row{NetworkMessageID: "n1", Timestamp: "t", Sender: "s"},
			want: "net_n1",
		},
		{
			name: "composite",
			row:  core.Row{Timestamp: "2024-01-01T09:00:00Z", Sender: "a@x.com", Subject: "  hello  "},
			want: "composite_2024-01-01T09:00:00Z_a@x.com_99162322",
		},
		{
			name: "fallback without sender",
			row:  core.Row{Timestamp: "2024-01-01T09:00:00Z", Subject: "hi"},
			want: "fallback_2024-01-01T09:00:00Z__hi__",
		},
		{
			name: "fallback on empty row",
			row:  core.Row{},
			want: "fallback_____",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeIdentity(tt.row); got != tt.want {
				t.Errorf("ComputeIdentity() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComputeIdentity_FallbackTruncatesSubject(t *testing.T) {
	row := core.Row{Sender: "", Subject: strings.Repeat("é", 80)}
	got := ComputeIdentity(row)
	want := "fallback___" + strings.Repeat("é", 50) + "__"
	if got != want {
		t.Errorf("ComputeIdentity() = %q, want %q", got, want)
	}
}

func TestComputeIdentity_IgnoresSourceFile(t *testing.T) {
	rows := []core.Row{
		{MessageID: "m1"},
		{NetworkMessageID: "n1"},
		{Timestamp: "t", Sender: "s", Subject: "x"},
		{Subject: "only"},
	}
	for _, r := range rows {
		a, b := r, r
		a.SourceFile = "a.csv"
		b.SourceFile = "b.csv"
		if ComputeIdentity(a) != ComputeIdentity(b) {
			t.Errorf("identity depends on source file for %+v", r)
		}
		if ComputeIdentity(a) != ComputeIdentity(a) {
			t.Errorf("identity is not deterministic for %+v", r)
		}
	}
}

func TestSubjectHash(t *testing.T) {
	tests := []struct {
		subject string
		want    int32
	}{
		{"", 0},
		{"a", 97},
		{"hello", 99162322},
		{"polygenelubricants", -2147483648},
	}
	for _, tt := range tests {
		if got := SubjectHash(tt.subject); got != tt.want {
			t.Errorf("SubjectHash(%q) = %d, want %d", tt.subject, got, tt.want)
		}
	}
}

func TestDeduplicate(t *testing.T) {
	rows := []core.Row{
		{MessageID: "1", Subject: "first", SourceFile: "a.csv"},
		{MessageID: "2", SourceFile: "a.csv"},
		{MessageID: "1", Subject: "second copy", SourceFile: "b.csv"},
		{NetworkMessageID: "n", SourceFile: "b.csv"},
		{MessageID: "2", SourceFile: "c.csv"},
		{NetworkMessageID: "n", SourceFile: "c.csv"},
	}
	d := NewDeduplicator(zap.NewNop())

	result := d.Deduplicate(rows, false)
	if len(result.Rows)+result.DuplicatesRemoved != len(rows) {
		t.Fatalf("unique %d + removed %d != input %d", len(result.Rows), result.DuplicatesRemoved, len(rows))
	}
	if result.UniqueCount != 3 || result.DuplicatesRemoved != 3 {
		t.Errorf("UniqueCount=%d DuplicatesRemoved=%d, want 3 and 3", result.UniqueCount, result.DuplicatesRemoved)
	}
	want := []core.Row{rows[0], rows[1], rows[3]}
	if diff := cmp.Diff(want, result.Rows, cmpopts.IgnoreUnexported(core.Row{})); diff != "" {
		t.Errorf("kept rows mismatch (-want +got):\n%s", diff)
	}
	if result.Details != nil {
		t.Errorf("details should only be collected in debug mode, got %d", len(result.Details))
	}
}

func TestDeduplicate_DebugDetails(t *testing.T) {
	long := strings.Repeat("s", 150)
	rows := []core.Row{
		{MessageID: "1", SourceFile: "a.csv"},
		{MessageID: "1", Timestamp: "ts", Sender: "x@y.com", Subject: long, SourceFile: "b.csv"},
	}
	result := NewDeduplicator(zap.NewNop()).Deduplicate(rows, true)

	want := []core.DuplicateDetail{{
		Key:           "msg_1",
		FirstFile:     "a.csv",
		DuplicateFile: "b.csv",
		Timestamp:     "ts",
		Sender:        "x@y.com",
		Subject:       strings.Repeat("s", 100),
	}}
	if diff := cmp.Diff(want, result.Details); diff != "" {
		t.Errorf("details mismatch (-want +got):\n%s", diff)
	}
}

func TestDeduplicate_Empty(t *testing.T) {
	result := NewDeduplicator(zap.NewNop()).Deduplicate(nil, true)
	if len(result.Rows) != 0 || result.DuplicatesRemoved != 0 || result.UniqueCount != 0 {
		t.Errorf("got %+v", result)
	}
}
