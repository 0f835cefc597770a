package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/runnerr0/tabsnap/internal/export"
	"github.com/runnerr0/tabsnap/internal/storage"
)

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#00A97A", Dark: "#6FC28E"})

// countsJSON is the JSON output structure for the counts command.
type countsJSON struct {
	Version   string `json:"version"`
	Tabs      int    `json:"tabs"`
	History   int    `json:"history"`
	Bookmarks int    `json:"bookmarks"`

	URLs        int64  `json:"urls"`
	Visits      int64  `json:"visits"`
	Downloads   int64  `json:"downloads"`
	OldestVisit string `json:"oldest_visit,omitempty"`
	NewestVisit string `json:"newest_visit,omitempty"`
}

// Execute implements the go-flags Commander interface for CountsCommand.
func (c *CountsCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext()
	defer cancel()

	return c.executeWithComposer(ctx, s.composer, s.history.Store)
}

// executeWithComposer prints counts from comp, plus database totals when
// store is non-nil (for testing).
func (c *CountsCommand) executeWithComposer(ctx context.Context, comp *export.Composer, store *storage.HistoryStore) error {
	counts, err := comp.Counts(ctx)
	if err != nil {
		return fmt.Errorf("get counts: %w", err)
	}

	var stats *storage.Stats
	if store != nil {
		stats, err = store.GetStats(ctx)
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(counts, stats)
	}
	c.printHuman(counts, stats)
	return nil
}

func (c *CountsCommand) printHuman(counts export.Counts, stats *storage.Stats) {
	fmt.Println(headingStyle.Render("Browser Snapshot"))
	fmt.Printf("Open tabs:     %s\n", humanize.Comma(int64(counts.Tabs)))
	fmt.Printf("History:       %s\n", humanize.Comma(int64(counts.History)))
	fmt.Printf("Bookmarks:     %s\n", humanize.Comma(int64(counts.Bookmarks)))

	if stats == nil {
		return
	}
	fmt.Println()
	fmt.Println(headingStyle.Render("History Database"))
	fmt.Printf("URLs:          %s\n", humanize.Comma(stats.TotalURLs))
	fmt.Printf("Visits:        %s\n", humanize.Comma(stats.TotalVisits))
	fmt.Printf("Downloads:     %s\n", humanize.Comma(stats.TotalDownloads))
	if stats.TotalVisits > 0 {
		fmt.Printf("Oldest:        %s (%s)\n", stats.OldestVisit.Local().Format("2006-01-02"), humanize.Time(stats.OldestVisit))
		fmt.Printf("Newest:        %s (%s)\n", stats.NewestVisit.Local().Format("2006-01-02"), humanize.Time(stats.NewestVisit))
	}
}

func (c *CountsCommand) printJSON(counts export.Counts, stats *storage.Stats) error {
	out := countsJSON{
		Version:   c.version,
		Tabs:      counts.Tabs,
		History:   counts.History,
		Bookmarks: counts.Bookmarks,
	}
	if stats != nil {
		out.URLs = stats.TotalURLs
		out.Visits = stats.TotalVisits
		out.Downloads = stats.TotalDownloads
		if stats.TotalVisits > 0 {
			out.OldestVisit = stats.OldestVisit.UTC().Format(time.RFC3339)
			out.NewestVisit = stats.NewestVisit.UTC().Format(time.RFC3339)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
