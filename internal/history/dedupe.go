package history

import (
	"sort"
	"time"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// Entry is one URL's collapsed history.
type Entry struct {
	URL           string
	Title         string
	LastVisitTime time.Time
	Count         int
}

// Dedupe collapses records into one Entry per URL. Count is the number of
// records merged; Title and LastVisitTime come from the newest record.
// URLs are compared verbatim.
func Dedupe(records []browser.VisitRecord) map[string]Entry {
	entries := make(map[string]Entry, len(records))
	for _, r := range records {
		e, ok := entries[r.URL]
		if !ok {
			entries[r.URL] = Entry{
				URL:           r.URL,
				Title:         r.Title,
				LastVisitTime: r.LastVisitTime,
				Count:         1,
			}
			continue
		}
		e.Count++
		if r.LastVisitTime.After(e.LastVisitTime) {
			e.LastVisitTime = r.LastVisitTime
			e.Title = r.Title
		}
		entries[r.URL] = e
	}
	return entries
}

// SortedEntries returns the entries newest first, ties broken by URL.
func SortedEntries(entries map[string]Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastVisitTime.Equal(out[j].LastVisitTime) {
			return out[i].LastVisitTime.After(out[j].LastVisitTime)
		}
		return out[i].URL < out[j].URL
	})
	return out
}
