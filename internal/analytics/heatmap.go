package analytics

import (
	"math"
	"sort"

	"github.com/mikey/email-analytics/internal/core"
)

const (
	businessHourStart = 6
	businessHourEnd   = 22
)

// Matrix counts emails by day of week (0 = Sunday) and hour of day
type Matrix [7][24]int

// Sum returns the total over all cells
func (m *Matrix) Sum() int {
	total := 0
	for _, day := range m {
		for _, v := range day {
			total += v
		}
	}
	return total
}

// Max returns the largest cell
func (m *Matrix) Max() int {
	peak := 0
	for _, day := range m {
		for _, v := range day {
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}

// DayTotals sums each day over all hours
func (m *Matrix) DayTotals() [7]int {
	var totals [7]int
	for d, day := range m {
		for _, v := range day {
			totals[d] += v
		}
	}
	return totals
}

// HourTotals sums each hour over all days
func (m *Matrix) HourTotals() [24]int {
	var totals [24]int
	for _, day := range m {
		for h, v := range day {
			totals[h] += v
		}
	}
	return totals
}

// SenderStats holds per-sender running totals
type SenderStats struct {
	Total  int
	ByDay  [7]int
	ByHour [24]int
}

// Heatmap is the day by hour activity view
type Heatmap struct {
	Matrix         Matrix
	Senders        map[string]*SenderStats
	SenderMatrices map[string]*Matrix

	// TotalEmails counts rows that passed the filters
	TotalEmails int
	// HourRange is the inclusive range of hours worth displaying
	HourRange [2]int
	// Skipped counts rows without a parseable timestamp
	Skipped int
}

// BuildHeatmap aggregates the rows passing the query's filters. Rows without
// a parseable timestamp are skipped; rows without a sender only count in the
// global matrix.
func BuildHeatmap(rows []core.Row, q Query) Heatmap {
	filtered, skipped := applyFilters(rows, q)

	h := Heatmap{
		Senders:        make(map[string]*SenderStats),
		SenderMatrices: make(map[string]*Matrix),
		TotalEmails:    len(filtered),
		Skipped:        skipped,
	}

	offHours := false
	for _, row := range filtered {
		t, ok := core.ParseTimestamp(row.Timestamp, q.location())
		if !ok {
			h.Skipped++
			continue
		}
		t = t.In(q.location())
		day, hour := int(t.Weekday()), t.Hour()
		if hour < businessHourStart || hour > businessHourEnd {
			offHours = true
		}

		h.Matrix[day][hour]++

		if row.Sender == "" {
			continue
		}
		stats, ok := h.Senders[row.Sender]
		if !ok {
			stats = &SenderStats{}
			h.Senders[row.Sender] = stats
			h.SenderMatrices[row.Sender] = &Matrix{}
		}
		stats.Total++
		stats.ByDay[day]++
		stats.ByHour[hour]++
		h.SenderMatrices[row.Sender][day][hour]++
	}

	if offHours {
		h.HourRange = [2]int{0, 23}
	} else {
		h.HourRange = [2]int{businessHourStart, businessHourEnd}
	}
	return h
}

// ActiveSenders returns the number of senders with at least one email
func (h Heatmap) ActiveSenders() int {
	return len(h.Senders)
}

// AveragePerSender returns the rounded average emails per active sender, 0 without senders
func (h Heatmap) AveragePerSender() int {
	if len(h.Senders) == 0 {
		return 0
	}
	return int(math.Round(float64(h.TotalEmails) / float64(len(h.Senders))))
}

// Peak returns the busiest cell of the global matrix
func (h Heatmap) Peak() int {
	return h.Matrix.Max()
}

// SendersByVolume returns the senders ordered by total, busiest first
func (h Heatmap) SendersByVolume() []string {
	senders := make([]string, 0, len(h.Senders))
	for s := range h.Senders {
		senders = append(senders, s)
	}
	sort.Slice(senders, func(i, j int) bool {
		a, b := h.Senders[senders[i]].Total, h.Senders[senders[j]].Total
		if a != b {
			return a > b
		}
		return senders[i] < senders[j]
	})
	return senders
}

// HourlySeries returns per-hour totals inside HourRange for the given senders,
// or for all traffic when senders is empty
func (h Heatmap) HourlySeries(senders []string) map[string][]int {
	from, to := h.HourRange[0], h.HourRange[1]
	series := make(map[string][]int)

	slice := func(totals [24]int) []int {
		out := make([]int, 0, to-from+1)
		for hour := from; hour <= to; hour++ {
			out = append(out, totals[hour])
		}
		return out
	}

	if len(senders) == 0 {
		series[""] = slice(h.Matrix.HourTotals())
		return series
	}
	for _, s := range senders {
		if m, ok := h.SenderMatrices[s]; ok {
			series[s] = slice(m.HourTotals())
		}
	}
	return series
}
