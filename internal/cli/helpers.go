package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	webbrowser "github.com/cli/browser"

	"github.com/runnerr0/tabsnap/internal/bookmarks"
	"github.com/runnerr0/tabsnap/internal/browser"
	"github.com/runnerr0/tabsnap/internal/config"
	"github.com/runnerr0/tabsnap/internal/export"
	"github.com/runnerr0/tabsnap/internal/logging"
	"github.com/runnerr0/tabsnap/internal/storage"
	"github.com/runnerr0/tabsnap/internal/tabs"
)

// Overridable in tests.
var (
	openFile = webbrowser.OpenFile
	openURL  = webbrowser.OpenURL
)

// commandContext returns a context cancelled by Ctrl-C.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadConfig reads the config named by --config, or the default config
// (created on first use), and applies global flag overrides.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if globals != nil && globals.Config != "" {
		cfg, err = config.Load(globals.Config)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, err
	}

	if globals != nil {
		if globals.Profile != "" {
			cfg.Profile.Dir = globals.Profile
		}
		if globals.Verbose {
			cfg.Logging.Level = "debug"
		}
	}
	return cfg, nil
}

// session holds everything a command needs to read the browser profile.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	history  *storage.Handle
	composer *export.Composer

	closers []io.Closer
}

// openSession loads config, sets up logging and opens the profile sources.
func openSession(globals *GlobalFlags) (*session, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	s := &session{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	historyPath, err := cfg.HistoryPath()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.history, err = storage.OpenHistory(historyPath, cfg.Profile.CopyHistory)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, s.history)

	marks, err := bookmarkSource(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.composer = newComposer(cfg, tabSource(cfg, logger), s.history.Store, marks, logger)
	if cfg.Export.IncludeDownloads {
		s.composer.Downloads = s.history.Store
	}

	logger.Debug("profile opened", "history", historyPath, "tabs", cfg.Tabs.Source)
	return s, nil
}

// Close releases the session's resources in reverse order.
func (s *session) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// newComposer wires a Composer with the history tuning from cfg.
func newComposer(cfg *config.Config, tabSrc browser.TabSource, hist browser.HistorySource, marks browser.BookmarkSource, logger *slog.Logger) *export.Composer {
	c := export.NewComposer(tabSrc, hist, marks, logger)
	c.Pager.BatchSize = cfg.History.BatchSize
	c.Pager.Overhead = time.Duration(cfg.History.OverheadMS) * time.Millisecond
	c.Joiner.Concurrency = cfg.History.LookupConcurrency
	c.ExcludeDomains = cfg.ExcludedDomains()
	return c
}

func tabSource(cfg *config.Config, logger *slog.Logger) browser.TabSource {
	switch cfg.Tabs.Source {
	case config.TabSourceCDP:
		return &tabs.CDPSource{DebuggerURL: cfg.Tabs.DebuggerURL, Logger: logger}
	case config.TabSourceFile:
		path, err := config.ExpandPath(cfg.Tabs.SessionFile)
		if err != nil {
			path = cfg.Tabs.SessionFile
		}
		return &tabs.SessionFile{Path: path}
	default:
		return nil
	}
}

func bookmarkSource(cfg *config.Config) (browser.BookmarkSource, error) {
	if cfg.Profile.BookmarksHTML != "" {
		path, err := config.ExpandPath(cfg.Profile.BookmarksHTML)
		if err != nil {
			return nil, err
		}
		return &bookmarks.NetscapeFile{Path: path}, nil
	}
	path, err := cfg.BookmarksPath()
	if err != nil {
		return nil, err
	}
	return &bookmarks.ChromeFile{Path: path}, nil
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
