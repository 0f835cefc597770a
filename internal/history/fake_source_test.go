package history

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// memSource is an in-memory HistorySource that behaves like the SQLite store:
// oldest-first from StartTime unless NewestFirst is set.
type memSource struct {
	mu      sync.Mutex
	records []browser.VisitRecord
	queries []browser.HistoryQuery
	failURL map[string]bool
}

func newMemSource(records ...browser.VisitRecord) *memSource {
	return &memSource{records: records, failURL: map[string]bool{}}
}

func (m *memSource) Search(_ context.Context, q browser.HistoryQuery) ([]browser.VisitRecord, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if q.URL != "" && m.failURL[q.URL] {
		return nil, errors.New("unsupported scheme")
	}

	var out []browser.VisitRecord
	for _, r := range m.records {
		if r.LastVisitTime.Before(q.StartTime) {
			continue
		}
		if q.URL != "" && r.URL != q.URL {
			continue
		}
		if q.Text != "" && !strings.Contains(r.URL, q.Text) && !strings.Contains(r.Title, q.Text) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.NewestFirst {
			return out[i].LastVisitTime.After(out[j].LastVisitTime)
		}
		return out[i].LastVisitTime.Before(out[j].LastVisitTime)
	})
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

func (m *memSource) startTimes() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts []time.Time
	for _, q := range m.queries {
		ts = append(ts, q.StartTime)
	}
	return ts
}

func visit(url string, ms int64) browser.VisitRecord {
	return browser.VisitRecord{URL: url, Title: "title " + url, LastVisitTime: time.UnixMilli(ms), VisitCount: 1}
}

type errSource struct{ err error }

func (e errSource) Search(context.Context, browser.HistoryQuery) ([]browser.VisitRecord, error) {
	return nil, e.err
}
