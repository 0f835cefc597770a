package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/tabsnap/internal/bookmarks"
	"github.com/runnerr0/tabsnap/internal/browser"
	"github.com/runnerr0/tabsnap/internal/history"
)

// Report is the input of the Markdown report. A nil Downloads omits the
// section; an empty non-nil slice renders an empty section.
type Report struct {
	Generated time.Time
	Windows   []browser.Window
	Downloads []browser.Download
	History   []history.Entry
	Bookmarks []bookmarks.Entry
}

// localTime formats t the way the popup shows dates.
func localTime(t time.Time) string {
	return t.Local().Format(history.OpenedAtLayout)
}

// baseName strips both Windows and POSIX directories from a download path.
func baseName(path string) string {
	if i := strings.LastIndex(path, `\`); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return path
}

// RenderReport writes the full Markdown report.
func RenderReport(r Report) []byte {
	var b strings.Builder

	windows, tabs := rawTotals(r.Windows)
	b.WriteString("# Browser Data Export\n\n")
	fmt.Fprintf(&b, "Generated on: %s\n\n", localTime(r.Generated))
	fmt.Fprintf(&b, "Windows: %d, Tabs: %d\n\n", windows, tabs)

	b.WriteString("## Open Tabs\n\n")
	for _, t := range browser.AllTabs(r.Windows) {
		fmt.Fprintf(&b, "- %s (%s)\n", t.Title, t.URL)
	}

	if r.Downloads != nil {
		b.WriteString("\n## Downloads\n\n")
		for _, d := range r.Downloads {
			fmt.Fprintf(&b, "- [%s](%s) - Downloaded on %s\n", baseName(d.Filename), d.URL, localTime(d.StartTime))
		}
	}

	b.WriteString("\n## History\n\n")
	for _, e := range r.History {
		label := e.Title
		if label == "" {
			label = e.URL
		}
		fmt.Fprintf(&b, "- [%s](%s) - %s\n", label, e.URL, localTime(e.LastVisitTime))
	}

	b.WriteString("\n## Bookmarks\n\n")
	for _, bm := range r.Bookmarks {
		fmt.Fprintf(&b, "- [%s](%s)\n", bm.Title, bm.URL)
	}

	return []byte(b.String())
}

// RenderTabs writes the open tabs as a numbered Markdown list.
func RenderTabs(generated time.Time, windows []browser.Window) []byte {
	var b strings.Builder

	nw, nt := rawTotals(windows)
	b.WriteString("# Open Tabs\n\n")
	fmt.Fprintf(&b, "Exported on: %s\n\n", localTime(generated))
	fmt.Fprintf(&b, "Windows: %d, Tabs: %d\n\n", nw, nt)

	for i, t := range browser.AllTabs(windows) {
		title := t.Title
		if title == "" {
			title = t.URL
		}
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, title, t.URL)
	}
	return []byte(b.String())
}
