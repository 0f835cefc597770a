package export

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/runnerr0/tabsnap/internal/bookmarks"
	"github.com/runnerr0/tabsnap/internal/browser"
	"github.com/runnerr0/tabsnap/internal/history"
)

// tabsNote explains lastVisitTime in the windows export.
const tabsNote = "lastVisitTime represents the most recent visit to the URL, which is typically close to when the tab was opened"

// isoLayout is the JavaScript toISOString layout: UTC with milliseconds.
const isoLayout = "2006-01-02T15:04:05.000Z"

func isoTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// TabRecord is the JSON form of a joined tab.
type TabRecord struct {
	ID              int                `json:"id"`
	Index           int                `json:"index"`
	WindowID        int                `json:"windowId"`
	URL             string             `json:"url"`
	Title           string             `json:"title"`
	FavIconURL      string             `json:"favIconUrl,omitempty"`
	Active          bool               `json:"active"`
	Pinned          bool               `json:"pinned"`
	Highlighted     bool               `json:"highlighted"`
	Incognito       bool               `json:"incognito"`
	Audible         bool               `json:"audible"`
	Discarded       bool               `json:"discarded"`
	AutoDiscardable bool               `json:"autoDiscardable"`
	MutedInfo       *browser.MutedInfo `json:"mutedInfo,omitempty"`
	Status          string             `json:"status,omitempty"`
	LastVisitTime   *int64             `json:"lastVisitTime"`
	LastVisitDate   *string            `json:"lastVisitDate"`
	VisitCount      int                `json:"visitCount"`
	OpenedAt        string             `json:"openedAt"`
	State           string             `json:"state,omitempty"`
}

func newTabRecord(t history.EnrichedTab) TabRecord {
	r := TabRecord{
		ID:              t.ID,
		Index:           t.Index,
		WindowID:        t.WindowID,
		URL:             t.URL,
		Title:           t.Title,
		FavIconURL:      t.FavIconURL,
		Active:          t.Active,
		Pinned:          t.Pinned,
		Highlighted:     t.Highlighted,
		Incognito:       t.Incognito,
		Audible:         t.Audible,
		Discarded:       t.Discarded,
		AutoDiscardable: t.AutoDiscardable,
		MutedInfo:       t.MutedInfo,
		Status:          t.Status,
		VisitCount:      t.VisitCount,
		OpenedAt:        t.OpenedAt,
	}
	if t.LastVisitTime != nil {
		ms := t.LastVisitTime.UnixMilli()
		date := isoTime(*t.LastVisitTime)
		r.LastVisitTime = &ms
		r.LastVisitDate = &date
	}
	return r
}

// WindowRecord is one window of the windows export.
type WindowRecord struct {
	WindowID   int         `json:"windowId"`
	WindowType string      `json:"windowType"`
	Incognito  bool        `json:"incognito"`
	Focused    bool        `json:"focused"`
	State      string      `json:"state"`
	TabCount   int         `json:"tabCount"`
	Tabs       []TabRecord `json:"tabs"`
}

// WindowsDocument is the nested-by-window JSON export.
type WindowsDocument struct {
	ExportDate      string         `json:"exportDate"`
	ExportTimestamp int64          `json:"exportTimestamp"`
	TotalWindows    int            `json:"totalWindows"`
	TotalTabs       int            `json:"totalTabs"`
	Note            string         `json:"note"`
	Windows         []WindowRecord `json:"windows"`
}

// HistoryRecord is the JSON form of a deduplicated history entry.
type HistoryRecord struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	LastVisitTime int64  `json:"lastVisitTime"`
	Count         int    `json:"count"`
}

// BookmarkRecord is the JSON form of a flattened bookmark.
type BookmarkRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	DateAdded *int64 `json:"dateAdded"`
	ParentID  string `json:"parentId,omitempty"`
}

// BundleDocument is the flat JSON export.
type BundleDocument struct {
	ExportDate      string           `json:"exportDate"`
	ExportTimestamp int64            `json:"exportTimestamp"`
	TotalWindows    int              `json:"totalWindows"`
	TotalTabs       int              `json:"totalTabs"`
	Tabs            []TabRecord      `json:"tabs"`
	History         []HistoryRecord  `json:"history"`
	Bookmarks       []BookmarkRecord `json:"bookmarks"`
}

// enrichedTotals returns the window count and the sum of per-window tab
// counts.
func enrichedTotals(windows []history.EnrichedWindow) (int, int) {
	tabs := 0
	for _, w := range windows {
		tabs += len(w.Tabs)
	}
	return len(windows), tabs
}

func rawTotals(windows []browser.Window) (int, int) {
	tabs := 0
	for _, w := range windows {
		tabs += len(w.Tabs)
	}
	return len(windows), tabs
}

// NewWindowsDocument builds the windows export taken at now.
func NewWindowsDocument(now time.Time, windows []history.EnrichedWindow) WindowsDocument {
	doc := WindowsDocument{
		ExportDate:      isoTime(now),
		ExportTimestamp: now.UnixMilli(),
		Note:            tabsNote,
		Windows:         make([]WindowRecord, 0, len(windows)),
	}
	doc.TotalWindows, doc.TotalTabs = enrichedTotals(windows)

	for _, w := range windows {
		rec := WindowRecord{
			WindowID:   w.ID,
			WindowType: w.Type,
			Incognito:  w.Incognito,
			Focused:    w.Focused,
			State:      w.State,
			TabCount:   len(w.Tabs),
			Tabs:       make([]TabRecord, 0, len(w.Tabs)),
		}
		for _, t := range w.Tabs {
			rec.Tabs = append(rec.Tabs, newTabRecord(t))
		}
		doc.Windows = append(doc.Windows, rec)
	}
	return doc
}

// NewBundleDocument builds the flat export taken at now. Every tab is
// marked with state "open".
func NewBundleDocument(now time.Time, windows []history.EnrichedWindow, entries []history.Entry, marks []bookmarks.Entry) BundleDocument {
	doc := BundleDocument{
		ExportDate:      isoTime(now),
		ExportTimestamp: now.UnixMilli(),
		Tabs:            []TabRecord{},
		History:         make([]HistoryRecord, 0, len(entries)),
		Bookmarks:       make([]BookmarkRecord, 0, len(marks)),
	}
	doc.TotalWindows, doc.TotalTabs = enrichedTotals(windows)

	for _, w := range windows {
		for _, t := range w.Tabs {
			rec := newTabRecord(t)
			rec.State = "open"
			doc.Tabs = append(doc.Tabs, rec)
		}
	}
	for _, e := range entries {
		doc.History = append(doc.History, HistoryRecord{
			URL:           e.URL,
			Title:         e.Title,
			LastVisitTime: e.LastVisitTime.UnixMilli(),
			Count:         e.Count,
		})
	}
	for _, b := range marks {
		rec := BookmarkRecord{ID: b.ID, Title: b.Title, URL: b.URL, ParentID: b.ParentID}
		if b.DateAdded != nil {
			ms := b.DateAdded.UnixMilli()
			rec.DateAdded = &ms
		}
		doc.Bookmarks = append(doc.Bookmarks, rec)
	}
	return doc
}

// marshalIndent encodes v with two-space indentation and no HTML escaping,
// so URLs keep their & and < characters.
func marshalIndent(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
