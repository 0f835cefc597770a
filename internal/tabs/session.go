// Package tabs lists the browser's open windows and tabs.
package tabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// SessionFile reads windows from a JSON dump of windows.getAll with
// populate set, or from any document with a top-level "windows" array.
type SessionFile struct {
	Path string
}

// Windows implements browser.TabSource.
func (f *SessionFile) Windows(ctx context.Context) ([]browser.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return ParseSession(data)
}

// ParseSession decodes a session dump. Tabs missing a window id inherit the
// id of the window that contains them.
func ParseSession(data []byte) ([]browser.Window, error) {
	var windows []browser.Window

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc struct {
			Windows []browser.Window `json:"windows"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse session file: %w", err)
		}
		windows = doc.Windows
	} else if err := json.Unmarshal(trimmed, &windows); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}

	for wi := range windows {
		w := &windows[wi]
		for ti := range w.Tabs {
			if w.Tabs[ti].WindowID == 0 {
				w.Tabs[ti].WindowID = w.ID
			}
		}
	}
	if windows == nil {
		windows = []browser.Window{}
	}
	return windows, nil
}
