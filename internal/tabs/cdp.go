package tabs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// CDPSource lists tabs of a running Chromium over the DevTools protocol. The
// browser must have been started with --remote-debugging-port.
type CDPSource struct {
	// DebuggerURL is a host:port, an http URL or a ws:// URL.
	DebuggerURL string
	Logger      *slog.Logger
}

// pageTarget is the part of a DevTools page target that becomes a tab.
type pageTarget struct {
	TargetID string
	URL      string
	Title    string
	WindowID int
	State    string
}

func (s *CDPSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Windows implements browser.TabSource.
func (s *CDPSource) Windows(ctx context.Context) ([]browser.Window, error) {
	wsURL, err := launcher.ResolveURL(s.DebuggerURL)
	if err != nil {
		return nil, fmt.Errorf("resolve debugger url %q: %w", s.DebuggerURL, err)
	}

	// Browser.Close would quit the user's browser, so only the context
	// bounds this connection.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	res, err := proto.TargetGetTargets{}.Call(b)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	var pages []pageTarget
	for _, info := range res.TargetInfos {
		if info.Type != proto.TargetTargetInfoTypePage {
			continue
		}
		p := pageTarget{
			TargetID: string(info.TargetID),
			URL:      info.URL,
			Title:    info.Title,
		}
		win, err := proto.BrowserGetWindowForTarget{TargetID: info.TargetID}.Call(b)
		if err != nil {
			s.logger().Warn("window lookup failed", "target", info.TargetID, "error", err)
		} else {
			p.WindowID = int(win.WindowID)
			if win.Bounds != nil {
				p.State = string(win.Bounds.WindowState)
			}
		}
		pages = append(pages, p)
	}

	windows := groupTargets(pages)
	s.logger().Debug("listed tabs over devtools", "windows", len(windows), "tabs", len(pages))
	return windows, nil
}

// groupTargets groups page targets into windows. Windows appear in order of
// their first target; tab ids are assigned from 1 in target order.
func groupTargets(pages []pageTarget) []browser.Window {
	windows := []browser.Window{}
	byID := make(map[int]int)

	for i, p := range pages {
		wi, ok := byID[p.WindowID]
		if !ok {
			state := p.State
			if state == "" {
				state = "normal"
			}
			windows = append(windows, browser.Window{
				ID:    p.WindowID,
				Type:  "normal",
				State: state,
				Tabs:  []browser.Tab{},
			})
			wi = len(windows) - 1
			byID[p.WindowID] = wi
		}

		w := &windows[wi]
		w.Tabs = append(w.Tabs, browser.Tab{
			ID:              i + 1,
			Index:           len(w.Tabs),
			WindowID:        p.WindowID,
			TargetID:        p.TargetID,
			URL:             p.URL,
			Title:           p.Title,
			AutoDiscardable: true,
			Status:          "complete",
		})
	}
	return windows
}
