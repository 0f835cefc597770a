package history

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// DefaultLookupConcurrency bounds concurrent per-tab history lookups.
const DefaultLookupConcurrency = 16

// OpenedAtUnknown is the OpenedAt value for tabs with no matching visit.
const OpenedAtUnknown = "Unknown"

// OpenedAtLayout formats the human-readable OpenedAt field in local time.
const OpenedAtLayout = "1/2/2006, 3:04:05 PM"

// EnrichedTab is a tab joined with the most recent visit to its URL.
// LastVisitTime is nil when no visit was found.
type EnrichedTab struct {
	browser.Tab
	LastVisitTime *time.Time
	VisitCount    int
	OpenedAt      string
}

// EnrichedWindow is a window whose tabs have been joined against history.
type EnrichedWindow struct {
	browser.Window
	Tabs []EnrichedTab
}

// Joiner attaches the most recent visit to open tabs. The visit is the most
// recent one to the URL overall, not necessarily the one that opened the tab.
type Joiner struct {
	Source      browser.HistorySource
	Concurrency int
	Logger      *slog.Logger
}

// NewJoiner returns a Joiner with the default lookup concurrency.
func NewJoiner(src browser.HistorySource, logger *slog.Logger) *Joiner {
	return &Joiner{Source: src, Concurrency: DefaultLookupConcurrency, Logger: logger}
}

func (j *Joiner) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}

// JoinTab looks up the newest visit to tab.URL. Lookup failures are logged
// and yield the same result as a tab with no history. A tab without a URL
// never matches.
func (j *Joiner) JoinTab(ctx context.Context, tab browser.Tab) EnrichedTab {
	out := EnrichedTab{Tab: tab, OpenedAt: OpenedAtUnknown}
	if tab.URL == "" {
		return out
	}

	visits, err := j.Source.Search(ctx, browser.HistoryQuery{
		URL:         tab.URL,
		MaxResults:  1,
		NewestFirst: true,
	})
	if err != nil {
		j.logger().Warn("history lookup failed", "url", tab.URL, "tab", tab.ID, "error", err)
		return out
	}
	if len(visits) == 0 {
		return out
	}

	last := visits[0].LastVisitTime
	out.LastVisitTime = &last
	out.VisitCount = visits[0].VisitCount
	out.OpenedAt = last.Local().Format(OpenedAtLayout)
	return out
}

// JoinWindows joins every tab of every window. Lookups run concurrently and
// all complete before JoinWindows returns; window and tab order is kept.
func (j *Joiner) JoinWindows(ctx context.Context, windows []browser.Window) []EnrichedWindow {
	out := make([]EnrichedWindow, len(windows))
	for wi, w := range windows {
		out[wi] = EnrichedWindow{Window: w, Tabs: make([]EnrichedTab, len(w.Tabs))}
	}

	limit := j.Concurrency
	if limit <= 0 {
		limit = DefaultLookupConcurrency
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for wi, w := range windows {
		for ti, tab := range w.Tabs {
			wi, ti, tab := wi, ti, tab
			g.Go(func() error {
				out[wi].Tabs[ti] = j.JoinTab(ctx, tab)
				return nil
			})
		}
	}
	_ = g.Wait() // JoinTab never fails

	return out
}
