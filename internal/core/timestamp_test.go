package core

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-05T09:30:00Z", time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC), true},
		{"2024-03-05T09:30:00.123+02:00", time.Date(2024, 3, 5, 7, 30, 0, 123000000, time.UTC), true},
		{"2024-03-05 09:30", time.Date(2024, 3, 5, 9, 30, 0, 0, berlin), true},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, berlin), true},
		{"03/05/2024 09:30:15", time.Date(2024, 3, 5, 9, 30, 15, 0, berlin), true},
		{"3/5/2024 9:30:15", time.Date(2024, 3, 5, 9, 30, 15, 0, berlin), true},
		{"1/2/2024 9:00", time.Date(2024, 1, 2, 9, 0, 0, 0, berlin), true},
		{"12/31/2024 23:59", time.Date(2024, 12, 31, 23, 59, 0, 0, berlin), true},
		{"1/2/2024", time.Date(2024, 1, 2, 0, 0, 0, 0, berlin), true},
		{"  01/02/2024  ", time.Date(2024, 1, 2, 0, 0, 0, 0, berlin), true},
		{"", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"13/45/2024", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in, berlin)
		if ok != tt.ok {
			t.Errorf("ParseTimestamp(%q) ok = %t, want %t", tt.in, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
