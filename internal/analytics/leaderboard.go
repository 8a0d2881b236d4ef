package analytics

import (
	"sort"
	"strings"

	"github.com/mikey/email-analytics/internal/core"
)

// SenderCount is one leaderboard entry
type SenderCount struct {
	Sender      string
	DisplayName string
	Count       int
	Share       float64
	Selected    bool
}

// Leaderboard ranks senders by volume
type Leaderboard struct {
	Entries []SenderCount
	Total   int
	// Skipped counts filtered rows without a sender
	Skipped int
	// SkippedTimestamps counts rows dropped by the time range for an unparseable timestamp
	SkippedTimestamps int
}

// BuildLeaderboard counts the rows passing the query's filters per sender.
// Entries are sorted by count, ties keep first-seen order.
func BuildLeaderboard(rows []core.Row, q Query) Leaderboard {
	filtered, skippedTS := applyFilters(rows, q)

	selected := make(map[string]bool, len(q.SelectedSenders))
	for _, s := range q.SelectedSenders {
		selected[strings.ToLower(s)] = true
	}

	lb := Leaderboard{Total: len(filtered), SkippedTimestamps: skippedTS}
	index := make(map[string]int)
	for _, row := range filtered {
		if row.Sender == "" {
			lb.Skipped++
			continue
		}
		i, ok := index[row.Sender]
		if !ok {
			i = len(lb.Entries)
			index[row.Sender] = i
			lb.Entries = append(lb.Entries, SenderCount{
				Sender:      row.Sender,
				DisplayName: DisplayName(row.Sender),
				Selected:    selected[strings.ToLower(row.Sender)],
			})
		}
		lb.Entries[i].Count++
	}

	sort.SliceStable(lb.Entries, func(i, j int) bool {
		return lb.Entries[i].Count > lb.Entries[j].Count
	})

	for i := range lb.Entries {
		if lb.Total > 0 {
			lb.Entries[i].Share = float64(lb.Entries[i].Count) / float64(lb.Total)
		}
	}
	return lb
}

// Top returns at most n entries
func (lb Leaderboard) Top(n int) []SenderCount {
	if n <= 0 || n >= len(lb.Entries) {
		return lb.Entries
	}
	return lb.Entries[:n]
}

// DisplayName returns the local part of an email address
func DisplayName(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
