package bookmarks

import (
	"time"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// Entry is a flattened bookmark. Folders never produce an Entry.
type Entry struct {
	ID        string
	Title     string
	URL       string
	DateAdded *time.Time
	ParentID  string
}

// Flatten walks the forest depth-first in pre-order and returns one Entry per
// URL-bearing node. Folders are traversed but not emitted. The walk uses an
// explicit stack so pathological nesting cannot exhaust the goroutine stack.
func Flatten(forest []browser.BookmarkNode) []Entry {
	var out []Entry
	walk(forest, func(n *browser.BookmarkNode) {
		e := Entry{
			ID:       n.ID,
			Title:    n.Title,
			URL:      n.URL,
			ParentID: n.ParentID,
		}
		if !n.DateAdded.IsZero() {
			added := n.DateAdded
			e.DateAdded = &added
		}
		out = append(out, e)
	})
	return out
}

// Count returns the number of URL-bearing nodes in the forest.
func Count(forest []browser.BookmarkNode) int {
	n := 0
	walk(forest, func(*browser.BookmarkNode) { n++ })
	return n
}

// walk calls fn for every node with a URL, in pre-order.
func walk(forest []browser.BookmarkNode, fn func(*browser.BookmarkNode)) {
	stack := make([]*browser.BookmarkNode, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, &forest[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.URL != "" {
			fn(n)
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, &n.Children[i])
		}
	}
}
