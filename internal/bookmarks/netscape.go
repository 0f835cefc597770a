package bookmarks

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// maxNetscapeDepth caps folder nesting when parsing bookmark HTML.
const maxNetscapeDepth = 256

// NetscapeFile reads a Netscape-format bookmark export (bookmarks.html), the
// format every major browser can import and export.
type NetscapeFile struct {
	Path string
}

// Tree implements browser.BookmarkSource.
func (f *NetscapeFile) Tree(ctx context.Context) ([]browser.BookmarkNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open bookmarks html: %w", err)
	}
	defer file.Close()

	return ParseNetscape(file)
}

// ParseNetscape parses Netscape bookmark HTML into a forest. Node IDs are
// assigned in document order starting at 1; top-level nodes have no parent.
func ParseNetscape(r io.Reader) ([]browser.BookmarkNode, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse bookmarks html: %w", err)
	}

	top := doc.Find("dl").First()
	if top.Length() == 0 {
		return nil, nil
	}

	p := &netscapeParser{}
	return p.list(top, "", 0), nil
}

type netscapeParser struct {
	nextID int
}

func (p *netscapeParser) id() string {
	p.nextID++
	return strconv.Itoa(p.nextID)
}

// list converts the <dt> children of a <dl> into nodes.
func (p *netscapeParser) list(dl *goquery.Selection, parentID string, depth int) []browser.BookmarkNode {
	var nodes []browser.BookmarkNode
	dl.ChildrenFiltered("dt").Each(func(_ int, dt *goquery.Selection) {
		if a := dt.ChildrenFiltered("a").First(); a.Length() > 0 {
			href, _ := a.Attr("href")
			nodes = append(nodes, browser.BookmarkNode{
				ID:        p.id(),
				ParentID:  parentID,
				Title:     strings.TrimSpace(a.Text()),
				URL:       href,
				DateAdded: unixAttr(a, "add_date"),
			})
			return
		}

		h3 := dt.ChildrenFiltered("h3").First()
		if h3.Length() == 0 {
			return
		}
		folder := browser.BookmarkNode{
			ID:        p.id(),
			ParentID:  parentID,
			Title:     strings.TrimSpace(h3.Text()),
			DateAdded: unixAttr(h3, "add_date"),
		}
		if depth < maxNetscapeDepth {
			sub := dt.ChildrenFiltered("dl").First()
			if sub.Length() == 0 {
				// Some exporters place the folder's list next to the <dt>.
				sub = dt.NextFiltered("dl")
			}
			if sub.Length() > 0 {
				folder.Children = p.list(sub, folder.ID, depth+1)
			}
		}
		nodes = append(nodes, folder)
	})
	return nodes
}

// unixAttr reads an attribute holding seconds since the Unix epoch.
func unixAttr(s *goquery.Selection, name string) time.Time {
	raw, ok := s.Attr(name)
	if !ok {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
