package browser

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by optional collaborators (downloads) when the
// underlying data is absent or access is denied.
var ErrUnavailable = errors.New("source unavailable")

// VisitRecord is one visit returned by a history search.
type VisitRecord struct {
	URL           string
	Title         string
	LastVisitTime time.Time
	VisitCount    int
}

// HistoryQuery defines filters for a history search.
type HistoryQuery struct {
	Text        string // substring match on URL or title; empty matches all
	URL         string // exact URL match; empty matches all
	StartTime   time.Time
	MaxResults  int
	NewestFirst bool
}

// MutedInfo mirrors the tab's mute state.
type MutedInfo struct {
	Muted  bool   `json:"muted"`
	Reason string `json:"reason,omitempty"`
}

// Tab holds the raw attributes of an open tab.
type Tab struct {
	ID              int        `json:"id"`
	Index           int        `json:"index"`
	WindowID        int        `json:"windowId"`
	TargetID        string     `json:"targetId,omitempty"`
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	FavIconURL      string     `json:"favIconUrl,omitempty"`
	Active          bool       `json:"active"`
	Pinned          bool       `json:"pinned"`
	Highlighted     bool       `json:"highlighted"`
	Incognito       bool       `json:"incognito"`
	Audible         bool       `json:"audible"`
	Discarded       bool       `json:"discarded"`
	AutoDiscardable bool       `json:"autoDiscardable"`
	MutedInfo       *MutedInfo `json:"mutedInfo,omitempty"`
	Status          string     `json:"status,omitempty"`
}

// Window is a browser window and the tabs it contains.
type Window struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Incognito bool   `json:"incognito"`
	Focused   bool   `json:"focused"`
	State     string `json:"state"`
	Tabs      []Tab  `json:"tabs"`
}

// BookmarkNode is a node of the bookmark forest. Folders have no URL.
type BookmarkNode struct {
	ID        string
	ParentID  string
	Title     string
	URL       string
	DateAdded time.Time
	Children  []BookmarkNode
}

// Download is one past download.
type Download struct {
	Filename  string
	URL       string
	StartTime time.Time
}

// HistorySource searches recorded visits.
type HistorySource interface {
	Search(ctx context.Context, q HistoryQuery) ([]VisitRecord, error)
}

// TabSource enumerates open tabs grouped by window.
type TabSource interface {
	Windows(ctx context.Context) ([]Window, error)
}

// BookmarkSource returns the full bookmark forest.
type BookmarkSource interface {
	Tree(ctx context.Context) ([]BookmarkNode, error)
}

// DownloadSource lists past downloads. Implementations return
// ErrUnavailable when downloads cannot be read.
type DownloadSource interface {
	Downloads(ctx context.Context) ([]Download, error)
}

// FileEmitter hands a finished export to the user.
type FileEmitter interface {
	Emit(ctx context.Context, name, contentType string, data []byte) error
}

// AllTabs flattens windows into a single tab list, preserving order.
func AllTabs(windows []Window) []Tab {
	var n int
	for _, w := range windows {
		n += len(w.Tabs)
	}
	tabs := make([]Tab, 0, n)
	for _, w := range windows {
		tabs = append(tabs, w.Tabs...)
	}
	return tabs
}

// chromeEpochOffset is the number of microseconds between 1601-01-01 and
// 1970-01-01, the epochs of Chromium and Unix timestamps.
const chromeEpochOffset = 11644473600000000

// FromChromeTime converts a Chromium timestamp (microseconds since
// 1601-01-01 UTC) to a time.Time. Zero maps to the zero time.
func FromChromeTime(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us - chromeEpochOffset).UTC()
}

// ToChromeTime converts t to a Chromium timestamp. The zero time maps to 0.
func ToChromeTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro() + chromeEpochOffset
}
