// Package export composes browser snapshots into downloadable files.
package export

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownFormat is returned for format names that ParseFormat rejects.
var ErrUnknownFormat = errors.New("unknown export format")

// Format selects the shape of an export.
type Format string

const (
	// FormatMarkdown is the full report: tabs, downloads, history, bookmarks.
	FormatMarkdown Format = "markdown"
	// FormatWindowsJSON nests joined tabs under their windows.
	FormatWindowsJSON Format = "windows-json"
	// FormatBundleJSON is a flat bundle of tabs, history and bookmarks.
	FormatBundleJSON Format = "bundle-json"
	// FormatTabsMarkdown is a numbered list of open tabs.
	FormatTabsMarkdown Format = "tabs-markdown"
	// FormatHistoryParquet is the deduplicated history as a Parquet table.
	FormatHistoryParquet Format = "history-parquet"
)

type formatInfo struct {
	prefix      string
	ext         string
	contentType string
	label       string
}

var formats = map[Format]formatInfo{
	FormatMarkdown:       {"browser-data-export", "md", "text/markdown; charset=utf-8", "Markdown report"},
	FormatWindowsJSON:    {"open-tabs-export", "json", "application/json", "Tabs by window (JSON)"},
	FormatBundleJSON:     {"browser-data-export", "json", "application/json", "Everything (JSON)"},
	FormatTabsMarkdown:   {"open-tabs", "md", "text/markdown; charset=utf-8", "Open tabs (Markdown)"},
	FormatHistoryParquet: {"browser-history", "parquet", "application/vnd.apache.parquet", "History (Parquet)"},
}

// Formats lists every supported format in display order.
func Formats() []Format {
	return []Format{
		FormatMarkdown,
		FormatWindowsJSON,
		FormatBundleJSON,
		FormatTabsMarkdown,
		FormatHistoryParquet,
	}
}

// ParseFormat returns the Format named s. Matching ignores case and
// surrounding space.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := formats[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

func (f Format) String() string { return string(f) }

// Label is a short human description used by the popup buttons.
func (f Format) Label() string { return formats[f].label }

// ContentType is the MIME type of the exported file.
func (f Format) ContentType() string { return formats[f].contentType }

// Filename returns the download name for an export taken at t. The date is
// the UTC calendar day.
func (f Format) Filename(t time.Time) string {
	info := formats[f]
	return fmt.Sprintf("%s-%s.%s", info.prefix, t.UTC().Format("2006-01-02"), info.ext)
}

// ParseFilename reports which format produced name and the day encoded in
// it. It accepts exactly the names Filename generates.
func ParseFilename(name string) (Format, time.Time, bool) {
	for _, f := range Formats() {
		info := formats[f]
		rest, ok := strings.CutPrefix(name, info.prefix+"-")
		if !ok {
			continue
		}
		day, ok := strings.CutSuffix(rest, "."+info.ext)
		if !ok {
			continue
		}
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		return f, t, true
	}
	return "", time.Time{}, false
}
