package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/tabsnap/internal/config"
	"github.com/runnerr0/tabsnap/internal/export"
)

// pruneCandidate is an export file old enough to remove.
type pruneCandidate struct {
	Path   string    `json:"path"`
	Format string    `json:"format"`
	Day    time.Time `json:"-"`
	Bytes  int64     `json:"bytes"`
}

type pruneJSON struct {
	Directory string           `json:"directory"`
	OlderThan string           `json:"older_than"`
	DryRun    bool             `json:"dry_run"`
	Removed   int              `json:"removed"`
	Files     []pruneCandidate `json:"files"`
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithConfig(cfg, time.Now())
}

// executeWithConfig prunes relative to now (for testing).
func (c *PruneCommand) executeWithConfig(cfg *config.Config, now time.Time) error {
	dur, err := parseDuration(c.OlderThan)
	if err != nil {
		return fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
	}

	dir := c.OutputDir
	if dir == "" {
		dir = cfg.Export.OutputDir
	}
	dir, err = config.ExpandPath(dir)
	if err != nil {
		return err
	}

	candidates, err := findOldExports(dir, now.Add(-dur))
	if err != nil {
		return err
	}

	jsonOut := c.globals != nil && c.globals.JSON
	if len(candidates) == 0 {
		if jsonOut {
			return c.printJSON(dir, 0, []pruneCandidate{})
		}
		fmt.Printf("No exports older than %s in %s\n", formatDurationHuman(dur), dir)
		return nil
	}

	if c.DryRun {
		if jsonOut {
			return c.printJSON(dir, 0, candidates)
		}
		fmt.Printf("Would remove %d %s older than %s:\n", len(candidates), pluralFiles(len(candidates)), formatDurationHuman(dur))
		printCandidates(candidates)
		return nil
	}

	if !c.Force && !jsonOut {
		fmt.Printf("About to remove %d %s older than %s:\n", len(candidates), pluralFiles(len(candidates)), formatDurationHuman(dur))
		printCandidates(candidates)
		fmt.Println()
		fmt.Print("Continue? [y/N]: ")

		if !confirm(c.input()) {
			return fmt.Errorf("aborted: not confirmed")
		}
	}

	removed := 0
	for _, cand := range candidates {
		if err := os.Remove(cand.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", cand.Path, err)
		}
		removed++
	}

	if jsonOut {
		return c.printJSON(dir, removed, candidates)
	}
	fmt.Printf("Removed %d %s.\n", removed, pluralFiles(removed))
	return nil
}

func (c *PruneCommand) input() io.Reader {
	if c.stdin != nil {
		return c.stdin
	}
	return os.Stdin
}

func (c *PruneCommand) printJSON(dir string, removed int, files []pruneCandidate) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pruneJSON{
		Directory: dir,
		OlderThan: c.OlderThan,
		DryRun:    c.DryRun,
		Removed:   removed,
		Files:     files,
	})
}

// findOldExports lists files in dir named like an export whose day is
// before cutoff, oldest first. Other files are never touched.
func findOldExports(dir string, cutoff time.Time) ([]pruneCandidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output directory: %w", err)
	}

	var out []pruneCandidate
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		f, day, ok := export.ParseFilename(e.Name())
		if !ok || !day.Before(cutoff) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, pruneCandidate{
			Path:   filepath.Join(dir, e.Name()),
			Format: f.String(),
			Day:    day,
			Bytes:  info.Size(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

func printCandidates(candidates []pruneCandidate) {
	for _, cand := range candidates {
		fmt.Printf("  %s  %s (%s)\n", cand.Day.Format("2006-01-02"), filepath.Base(cand.Path), humanize.Bytes(uint64(cand.Bytes)))
	}
}

func confirm(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	}
	return false
}

func pluralFiles(n int) string {
	if n == 1 {
		return "file"
	}
	return "files"
}
