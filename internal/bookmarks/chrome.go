package bookmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// rootID is the id Chromium gives the invisible root above the named roots.
const rootID = "0"

// ChromeFile reads the Chromium "Bookmarks" JSON file of a profile.
type ChromeFile struct {
	Path string
}

type chromeNode struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	URL       string       `json:"url"`
	DateAdded string       `json:"date_added"`
	Children  []chromeNode `json:"children"`
}

type chromeDocument struct {
	Roots map[string]chromeNode `json:"roots"`
}

// chromeRoots lists the named roots in the order the browser shows them.
var chromeRoots = []string{"bookmark_bar", "other", "synced"}

// Tree implements browser.BookmarkSource. It returns a single root node whose
// children are the bookmark bar, other bookmarks and mobile bookmarks.
func (f *ChromeFile) Tree(ctx context.Context) ([]browser.BookmarkNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks file: %w", err)
	}
	return ParseChrome(data)
}

// ParseChrome decodes the contents of a Chromium "Bookmarks" file.
func ParseChrome(data []byte) ([]browser.BookmarkNode, error) {
	var doc chromeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bookmarks file: %w", err)
	}

	root := browser.BookmarkNode{ID: rootID}
	for _, name := range chromeRoots {
		n, ok := doc.Roots[name]
		if !ok {
			continue
		}
		root.Children = append(root.Children, convertChrome(n, rootID))
	}
	return []browser.BookmarkNode{root}, nil
}

func convertChrome(n chromeNode, parentID string) browser.BookmarkNode {
	out := browser.BookmarkNode{
		ID:       n.ID,
		ParentID: parentID,
		Title:    n.Name,
	}
	if n.Type == "url" {
		out.URL = n.URL
	}
	if us, err := strconv.ParseInt(n.DateAdded, 10, 64); err == nil {
		out.DateAdded = browser.FromChromeTime(us)
	}
	if len(n.Children) > 0 {
		out.Children = make([]browser.BookmarkNode, 0, len(n.Children))
		for _, c := range n.Children {
			out.Children = append(out.Children, convertChrome(c, n.ID))
		}
	}
	return out
}
