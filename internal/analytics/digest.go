package analytics

import (
	"fmt"
	"strings"

	"roomcheck/internal/inspection"
)

// DigestEntry is one line of the compact summary fed to the daily report.
type DigestEntry struct {
	Room   string `json:"room"`
	Issues string `json:"issues"`
}

// RecentDigest summarizes the first n records as "title(grade)" lists, or
// PASS for clean rooms.
func RecentDigest(records []inspection.Record, n int) []DigestEntry {
	if n > 0 && len(records) > n {
		records = records[:n]
	}
	out := make([]DigestEntry, 0, len(records))
	for _, r := range records {
		issues := "PASS"
		if len(r.Issues) > 0 {
			parts := make([]string, 0, len(r.Issues))
			for _, e := range r.Issues {
				parts = append(parts, fmt.Sprintf("%s(%s)", e.Title, e.Grade))
			}
			issues = strings.Join(parts, ", ")
		}
		out = append(out, DigestEntry{Room: r.RoomID, Issues: issues})
	}
	return out
}
