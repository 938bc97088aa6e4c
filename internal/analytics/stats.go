// Package analytics derives dashboard figures and exports from record
// snapshots. Every function is pure over the records it is given; callers
// pass the newest-first snapshot delivered by the sync feed.
package analytics

import (
	"cmp"
	"slices"
	"strings"

	"roomcheck/internal/inspection"
)

// TopN is how many defect titles the ranking keeps.
const TopN = 5

// TitleCount is one row of the defect ranking.
type TitleCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// Stats summarizes one month of inspections.
type Stats struct {
	Month        string       `json:"month"`
	Inspected    int          `json:"inspectedCount"`
	TotalDefects int          `json:"totalDefects"`
	FailedRooms  int          `json:"failedRooms"`
	AnomalyRate  float64      `json:"anomalyRate"`
	TopDefects   []TitleCount `json:"topDefects"`
}

// InMonth reports whether r counts toward monthKey. Records written before
// month keys existed count toward every month.
func InMonth(r inspection.Record, monthKey string) bool {
	return r.MonthKey == "" || r.MonthKey == monthKey
}

// MonthlyStats aggregates the records of monthKey. An empty monthKey selects
// every record.
func MonthlyStats(records []inspection.Record, monthKey string) Stats {
	stats := Stats{Month: monthKey, TopDefects: []TitleCount{}}

	counts := make(map[string]int)
	var order []string
	withDefects := 0
	for _, r := range records {
		if monthKey != "" && !InMonth(r, monthKey) {
			continue
		}
		stats.Inspected++
		defects := r.DefectCount()
		stats.TotalDefects += defects
		if defects > 0 {
			withDefects++
		}
		if r.HasGradeA || inspection.Summarize(r.Issues).HasSevere {
			stats.FailedRooms++
		}
		for _, e := range r.Issues {
			title := strings.TrimSpace(e.Title)
			if title == "" {
				continue
			}
			if _, seen := counts[title]; !seen {
				order = append(order, title)
			}
			counts[title]++
		}
	}

	if stats.Inspected > 0 {
		stats.AnomalyRate = float64(withDefects) / float64(stats.Inspected)
	}
	stats.TopDefects = rank(counts, order, TopN)
	return stats
}

// rank orders titles by count, keeping first-seen order among equals.
func rank(counts map[string]int, order []string, limit int) []TitleCount {
	ranked := make([]TitleCount, 0, len(order))
	for _, title := range order {
		ranked = append(ranked, TitleCount{Title: title, Count: counts[title]})
	}
	slices.SortStableFunc(ranked, func(a, b TitleCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
