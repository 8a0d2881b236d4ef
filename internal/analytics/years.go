package analytics

import (
	"time"

	"github.com/mikey/email-analytics/internal/core"
)

// MonthBucket compares one calendar month across two years
type MonthBucket struct {
	Month    string
	ThisYear int
	LastYear int
}

// YearComparison is the month by month comparison of the current and previous year
type YearComparison struct {
	Year    int
	Months  [12]MonthBucket
	Skipped int
}

// BuildYearComparison buckets rows by month for the year of now and the year
// before. Time range and direction filters do not apply.
func BuildYearComparison(rows []core.Row, now time.Time, loc *time.Location) YearComparison {
	if loc == nil {
		loc = time.Local
	}
	if now.IsZero() {
		now = time.Now()
	}
	thisYear := now.In(loc).Year()

	yc := YearComparison{Year: thisYear}
	for m := range yc.Months {
		yc.Months[m].Month = time.Month(m + 1).String()[:3]
	}

	for _, row := range rows {
		t, ok := core.ParseTimestamp(row.Timestamp, loc)
		if !ok {
			yc.Skipped++
			continue
		}
		t = t.In(loc)
		switch t.Year() {
		case thisYear:
			yc.Months[t.Month()-1].ThisYear++
		case thisYear - 1:
			yc.Months[t.Month()-1].LastYear++
		}
	}
	return yc
}
