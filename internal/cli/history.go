package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/tabsnap/internal/browser"
	"github.com/runnerr0/tabsnap/internal/history"
)

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext()
	defer cancel()

	return c.executeWithSource(ctx, s.history.Store, s.cfg.ExcludedDomains(), args)
}

// executeWithSource runs the search against a provided source (for testing).
// Visits to excluded domains are dropped after the limit is applied.
func (c *HistoryCommand) executeWithSource(ctx context.Context, src browser.HistorySource, exclude []string, args []string) error {
	if c.Limit <= 0 {
		return fmt.Errorf("invalid --limit value %d: must be positive", c.Limit)
	}

	query := c.Query
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}

	var since time.Time
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		since = time.Now().Add(-dur)
	}

	results, err := src.Search(ctx, browser.HistoryQuery{
		Text:        query,
		StartTime:   since,
		MaxResults:  c.Limit,
		NewestFirst: true,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results = history.ExcludeDomains(results, exclude)

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(query, results)
	}
	c.printHuman(query, results)
	return nil
}

func (c *HistoryCommand) sinceLabel() string {
	if c.Since == "" {
		return "all time"
	}
	return "since " + c.Since
}

func (c *HistoryCommand) printHuman(query string, results []browser.VisitRecord) {
	if len(results) == 0 {
		if query != "" {
			fmt.Printf("No results found for %q (%s)\n", query, c.sinceLabel())
		} else {
			fmt.Printf("No results found (%s)\n", c.sinceLabel())
		}
		return
	}

	resultWord := "results"
	if len(results) == 1 {
		resultWord = "result"
	}
	if query != "" {
		fmt.Printf("Found %d %s for %q (%s)\n\n", len(results), resultWord, query, c.sinceLabel())
	} else {
		fmt.Printf("Found %d %s (%s)\n\n", len(results), resultWord, c.sinceLabel())
	}

	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Printf("%d. %s\n", i+1, title)
		fmt.Printf("   %s\n", r.URL)

		visits := "visits"
		if r.VisitCount == 1 {
			visits = "visit"
		}
		fmt.Printf("   %s · %s · %d %s\n",
			r.LastVisitTime.Local().Format("2006-01-02 15:04"),
			humanize.Time(r.LastVisitTime), r.VisitCount, visits)

		if i < len(results)-1 {
			fmt.Println()
		}
	}
}

type jsonResult struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	VisitTime  string `json:"visit_time"`
	VisitCount int    `json:"visit_count"`
}

type jsonHistoryOutput struct {
	Count   int          `json:"count"`
	Query   string       `json:"query"`
	Results []jsonResult `json:"results"`
}

func (c *HistoryCommand) printJSON(query string, results []browser.VisitRecord) error {
	out := jsonHistoryOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		out.Results[i] = jsonResult{
			URL:        r.URL,
			Title:      r.Title,
			VisitTime:  r.LastVisitTime.UTC().Format(time.RFC3339),
			VisitCount: r.VisitCount,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
