package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/runnerr0/tabsnap/internal/bookmarks"
	"github.com/runnerr0/tabsnap/internal/browser"
	"github.com/runnerr0/tabsnap/internal/history"
)

// Artifact is a finished export ready for emission.
type Artifact struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
}

// Counts is the summary shown before exporting.
type Counts struct {
	Tabs      int `json:"tabs"`
	History   int `json:"history"`
	Bookmarks int `json:"bookmarks"`
}

// Composer gathers data from the browser sources and renders exports.
// Tabs, Bookmarks and Downloads may be nil; their sections are then empty
// (Downloads: omitted).
type Composer struct {
	Tabs      browser.TabSource
	History   browser.HistorySource
	Bookmarks browser.BookmarkSource
	Downloads browser.DownloadSource

	Pager          *history.Pager
	Joiner         *history.Joiner
	ExcludeDomains []string

	Emitter browser.FileEmitter
	Tracker *Tracker
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewComposer returns a Composer with a default pager, joiner and tracker
// over hist.
func NewComposer(tabs browser.TabSource, hist browser.HistorySource, marks browser.BookmarkSource, logger *slog.Logger) *Composer {
	return &Composer{
		Tabs:      tabs,
		History:   hist,
		Bookmarks: marks,
		Pager:     history.NewPager(hist, logger),
		Joiner:    history.NewJoiner(hist, logger),
		Tracker:   &Tracker{},
		Logger:    logger,
		Now:       time.Now,
	}
}

func (c *Composer) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Composer) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Composer) tracker() *Tracker {
	if c.Tracker == nil {
		c.Tracker = &Tracker{}
	}
	return c.Tracker
}

func (c *Composer) pager() *history.Pager {
	if c.Pager == nil {
		c.Pager = history.NewPager(c.History, c.Logger)
	}
	return c.Pager
}

func (c *Composer) joiner() *history.Joiner {
	if c.Joiner == nil {
		c.Joiner = history.NewJoiner(c.History, c.Logger)
	}
	return c.Joiner
}

// Status reports the state of the most recent export.
func (c *Composer) Status() State {
	return c.tracker().Snapshot()
}

func (c *Composer) windows(ctx context.Context) ([]browser.Window, error) {
	if c.Tabs == nil {
		return []browser.Window{}, nil
	}
	windows, err := c.Tabs.Windows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tabs: %w", err)
	}
	return windows, nil
}

func (c *Composer) joinedWindows(ctx context.Context) ([]history.EnrichedWindow, error) {
	windows, err := c.windows(ctx)
	if err != nil {
		return nil, err
	}
	if c.History == nil {
		return nil, errors.New("no history source configured")
	}
	return c.joiner().JoinWindows(ctx, windows), nil
}

// visits returns the full, filtered visit list.
func (c *Composer) visits(ctx context.Context) ([]browser.VisitRecord, error) {
	if c.History == nil {
		return nil, errors.New("no history source configured")
	}
	records, err := c.pager().FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	kept := history.ExcludeDomains(records, c.ExcludeDomains)
	if dropped := len(records) - len(kept); dropped > 0 {
		c.logger().Debug("excluded history records", "count", dropped)
	}
	return kept, nil
}

func (c *Composer) historyEntries(ctx context.Context) ([]history.Entry, error) {
	records, err := c.visits(ctx)
	if err != nil {
		return nil, err
	}
	return history.SortedEntries(history.Dedupe(records)), nil
}

func (c *Composer) bookmarkEntries(ctx context.Context) ([]bookmarks.Entry, error) {
	if c.Bookmarks == nil {
		return []bookmarks.Entry{}, nil
	}
	forest, err := c.Bookmarks.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}
	entries := bookmarks.Flatten(forest)
	if entries == nil {
		entries = []bookmarks.Entry{}
	}
	return entries, nil
}

// downloads returns nil when downloads cannot be read. Failures here never
// fail the export.
func (c *Composer) downloads(ctx context.Context) []browser.Download {
	if c.Downloads == nil {
		c.logger().Info("downloads section skipped", "reason", "no download source")
		return nil
	}
	list, err := c.Downloads.Downloads(ctx)
	if err != nil {
		if errors.Is(err, browser.ErrUnavailable) {
			c.logger().Info("downloads section skipped", "reason", err)
		} else {
			c.logger().Warn("downloads section skipped", "error", err)
		}
		return nil
	}
	if list == nil {
		list = []browser.Download{}
	}
	return list
}

// Compose gathers what format f needs and renders it. Nothing is emitted.
func (c *Composer) Compose(ctx context.Context, f Format) (*Artifact, error) {
	if _, ok := formats[f]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	now := c.now()

	var data []byte
	var err error
	switch f {
	case FormatMarkdown:
		data, err = c.composeReport(ctx, now)
	case FormatWindowsJSON:
		data, err = c.composeWindows(ctx, now)
	case FormatBundleJSON:
		data, err = c.composeBundle(ctx, now)
	case FormatTabsMarkdown:
		var windows []browser.Window
		if windows, err = c.windows(ctx); err == nil {
			data = RenderTabs(now, windows)
		}
	case FormatHistoryParquet:
		var entries []history.Entry
		if entries, err = c.historyEntries(ctx); err == nil {
			data, err = RenderHistoryParquet(entries)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("compose %s: %w", f, err)
	}

	return &Artifact{
		Format:      f,
		Filename:    f.Filename(now),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

func (c *Composer) composeReport(ctx context.Context, now time.Time) ([]byte, error) {
	windows, err := c.windows(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.historyEntries(ctx)
	if err != nil {
		return nil, err
	}
	marks, err := c.bookmarkEntries(ctx)
	if err != nil {
		return nil, err
	}
	return RenderReport(Report{
		Generated: now,
		Windows:   windows,
		Downloads: c.downloads(ctx),
		History:   entries,
		Bookmarks: marks,
	}), nil
}

func (c *Composer) composeWindows(ctx context.Context, now time.Time) ([]byte, error) {
	windows, err := c.joinedWindows(ctx)
	if err != nil {
		return nil, err
	}
	return marshalIndent(NewWindowsDocument(now, windows))
}

func (c *Composer) composeBundle(ctx context.Context, now time.Time) ([]byte, error) {
	windows, err := c.joinedWindows(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := c.historyEntries(ctx)
	if err != nil {
		return nil, err
	}
	marks, err := c.bookmarkEntries(ctx)
	if err != nil {
		return nil, err
	}
	return marshalIndent(NewBundleDocument(now, windows, entries, marks))
}

// Export composes f and hands it to c.Emitter.
func (c *Composer) Export(ctx context.Context, f Format) (*Artifact, error) {
	return c.ExportTo(ctx, f, c.Emitter)
}

// ExportTo composes f and hands it to em. Only one export runs at a time;
// a second call fails with ErrExportInProgress. The tracker always leaves
// the running state before ExportTo returns.
func (c *Composer) ExportTo(ctx context.Context, f Format, em browser.FileEmitter) (art *Artifact, err error) {
	t := c.tracker()
	if err := t.Begin(f); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export %s: panic: %v", f, r)
			art = nil
		}
		t.Finish(err)
		if err != nil {
			c.logger().Error("export failed", "format", f, "error", err)
		}
	}()

	if em == nil {
		return nil, errors.New("no file emitter configured")
	}

	art, err = c.Compose(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := em.Emit(ctx, art.Filename, art.ContentType, art.Data); err != nil {
		return nil, fmt.Errorf("emit %s: %w", art.Filename, err)
	}

	c.logger().Info("export written", "format", f, "file", art.Filename, "bytes", len(art.Data))
	return art, nil
}

// Counts returns the number of open tabs, raw history records and
// bookmarks.
func (c *Composer) Counts(ctx context.Context) (Counts, error) {
	var counts Counts

	windows, err := c.windows(ctx)
	if err != nil {
		return counts, err
	}
	counts.Tabs = len(browser.AllTabs(windows))

	records, err := c.visits(ctx)
	if err != nil {
		return counts, err
	}
	counts.History = len(records)

	if c.Bookmarks != nil {
		forest, err := c.Bookmarks.Tree(ctx)
		if err != nil {
			return counts, fmt.Errorf("read bookmarks: %w", err)
		}
		counts.Bookmarks = bookmarks.Count(forest)
	}
	return counts, nil
}
