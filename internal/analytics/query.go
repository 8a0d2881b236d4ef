// Package analytics computes heatmaps, leaderboards and year-over-year
// trends over merged email traffic rows. Every function is pure: results are
// built fresh from the rows and the Query passed in.
package analytics

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange is a named time window relative to the query's Now
type TimeRange string

const (
	RangeAll       TimeRange = "all"
	RangeThisWeek  TimeRange = "this-week"
	RangeLastWeek  TimeRange = "last-week"
	RangeThisMonth TimeRange = "this-month"
	RangeLastMonth TimeRange = "last-month"
	RangeYTD       TimeRange = "ytd"
	RangeLastYear  TimeRange = "last-year"
)

// TimeRanges lists the supported ranges in display order
var TimeRanges = []TimeRange{
	RangeAll, RangeThisWeek, RangeLastWeek, RangeThisMonth, RangeLastMonth, RangeYTD, RangeLastYear,
}

// Direction selects sent or received mail relative to the caller
type Direction string

const (
	DirectionBoth     Direction = "both"
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Query holds the parameters of one aggregation run
type Query struct {
	TimeRange       TimeRange
	Direction       Direction
	CallerEmail     string
	SelectedSenders []string

	// Now anchors the relative time ranges; zero means time.Now()
	Now time.Time
	// Location is the calendar used for day and hour buckets; nil means time.Local
	Location *time.Location
}

// ParseTimeRange validates a time range name
func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", string(RangeAll):
		return RangeAll, nil
	case "year-to-date":
		return RangeYTD, nil
	}
	for _, tr := range TimeRanges {
		if string(tr) == s {
			return tr, nil
		}
	}
	return "", fmt.Errorf("unsupported time range: %s", s)
}

// ParseDirection validates a direction name
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DirectionBoth, nil
	case DirectionBoth, DirectionSent, DirectionReceived:
		return d, nil
	}
	return "", fmt.Errorf("unsupported direction: %s", s)
}

func (q Query) now() time.Time {
	if q.Now.IsZero() {
		return time.Now().In(q.location())
	}
	return q.Now.In(q.location())
}

func (q Query) location() *time.Location {
	if q.Location == nil {
		return time.Local
	}
	return q.Location
}

// ResolveRange returns the inclusive [start, end] of a time range. ok is false
// for RangeAll and for unknown ranges, meaning no filtering.
func ResolveRange(tr TimeRange, now time.Time, loc *time.Location) (start, end time.Time, ok bool) {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	weekStart := today.AddDate(0, 0, -int(now.Weekday()))
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	yearStart := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)

	switch tr {
	case RangeThisWeek:
		return weekStart, endOfDay(weekStart.AddDate(0, 0, 6)), true
	case RangeLastWeek:
		return weekStart.AddDate(0, 0, -7), weekStart.Add(-time.Nanosecond), true
	case RangeThisMonth:
		return monthStart, monthStart.AddDate(0, 1, 0).Add(-time.Nanosecond), true
	case RangeLastMonth:
		return monthStart.AddDate(0, -1, 0), monthStart.Add(-time.Nanosecond), true
	case RangeYTD:
		return yearStart, now, true
	case RangeLastYear:
		return yearStart.AddDate(-1, 0, 0), yearStart.Add(-time.Nanosecond), true
	}
	return time.Time{}, time.Time{}, false
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
