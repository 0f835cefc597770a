package export

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/runnerr0/tabsnap/internal/browser"
)

var exportTime = time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return exportTime }

// fakeHistory answers searches the way the SQLite store does.
type fakeHistory struct {
	records []browser.VisitRecord
	failURL map[string]bool
	err     error
}

func (f *fakeHistory) Search(ctx context.Context, q browser.HistoryQuery) ([]browser.VisitRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if q.URL != "" && f.failURL[q.URL] {
		return nil, errors.New("lookup failed")
	}

	var out []browser.VisitRecord
	for _, r := range f.records {
		if q.URL != "" && r.URL != q.URL {
			continue
		}
		if !q.StartTime.IsZero() && r.LastVisitTime.Before(q.StartTime) {
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

type fakeTabs struct {
	windows []browser.Window
	err     error
}

func (f *fakeTabs) Windows(ctx context.Context) ([]browser.Window, error) {
	return f.windows, f.err
}

type fakeBookmarks struct {
	forest []browser.BookmarkNode
	err    error
}

func (f *fakeBookmarks) Tree(ctx context.Context) ([]browser.BookmarkNode, error) {
	return f.forest, f.err
}

type fakeDownloads struct {
	list []browser.Download
	err  error
}

func (f *fakeDownloads) Downloads(ctx context.Context) ([]browser.Download, error) {
	return f.list, f.err
}

// memEmitter records emitted files.
type memEmitter struct {
	files map[string][]byte
	err   error
}

func (m *memEmitter) Emit(ctx context.Context, name, contentType string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[name] = data
	return nil
}

// blockingEmitter holds Emit until release is closed.
type blockingEmitter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingEmitter) Emit(ctx context.Context, name, contentType string, data []byte) error {
	close(b.started)
	<-b.release
	return nil
}

func at(minutes int) time.Time {
	return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func visit(url, title string, minutes, count int) browser.VisitRecord {
	return browser.VisitRecord{URL: url, Title: title, LastVisitTime: at(minutes), VisitCount: count}
}

func sampleHistory() *fakeHistory {
	return &fakeHistory{records: []browser.VisitRecord{
		visit("https://go.dev/", "Go (old)", 0, 2),
		visit("https://pkg.go.dev/", "", 10, 1),
		visit("https://go.dev/", "The Go Programming Language", 20, 2),
		visit("https://bank.example.com/login", "Bank", 30, 1),
	}}
}

func sampleWindows() []browser.Window {
	return []browser.Window{
		{ID: 1, Type: "normal", Focused: true, State: "maximized", Tabs: []browser.Tab{
			{ID: 11, Index: 0, WindowID: 1, URL: "https://go.dev/", Title: "Go", Active: true},
			{ID: 12, Index: 1, WindowID: 1, URL: "https://news.example/?a=1&b=<2>", Title: "News"},
		}},
		{ID: 2, Type: "popup", State: "normal", Tabs: []browser.Tab{
			{ID: 21, Index: 0, WindowID: 2, URL: "https://pkg.go.dev/", Title: "Packages", Pinned: true},
		}},
		{ID: 3, Type: "normal", State: "minimized", Tabs: []browser.Tab{}},
	}
}

func sampleBookmarks() []browser.BookmarkNode {
	added := time.UnixMilli(1700000000000)
	return []browser.BookmarkNode{{
		ID: "0",
		Children: []browser.BookmarkNode{
			{ID: "1", ParentID: "0", Title: "Bookmarks bar", Children: []browser.BookmarkNode{
				{ID: "5", ParentID: "1", Title: "Go", URL: "https://go.dev/", DateAdded: added},
			}},
			{ID: "2", ParentID: "0", Title: "Loose", URL: "https://example.org/"},
		},
	}}
}

func newTestComposer() *Composer {
	c := NewComposer(&fakeTabs{windows: sampleWindows()}, sampleHistory(), &fakeBookmarks{forest: sampleBookmarks()}, nil)
	c.Now = fixedNow
	return c
}
