package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/tabsnap/internal/storage"
)

const testSession = `{"windows": [
  {"id": 1, "focused": true, "state": "normal", "type": "normal", "tabs": [
    {"id": 1, "index": 0, "url": "https://go.dev/", "title": "The Go Programming Language", "active": true},
    {"id": 2, "index": 1, "url": "https://unvisited.example.org/", "title": "Never Seen"}
  ]}
]}`

const testBookmarks = `{
  "roots": {
    "bookmark_bar": {"children": [
      {"date_added": "13354468205123456", "id": "5", "name": "Go", "type": "url", "url": "https://go.dev/"},
      {"children": [
        {"date_added": "0", "id": "7", "name": "Rod", "type": "url", "url": "https://go-rod.github.io/"}
      ], "id": "6", "name": "Tools", "type": "folder"}
    ], "id": "1", "name": "Bookmarks bar", "type": "folder"},
    "other": {"children": [], "id": "2", "name": "Other bookmarks", "type": "folder"},
    "synced": {"children": [], "id": "3", "name": "Mobile bookmarks", "type": "folder"}
  },
  "version": 1
}`

// testProfile is a throwaway browser profile plus a config file pointing at it.
type testProfile struct {
	Dir        string
	OutputDir  string
	ConfigPath string
}

// newTestProfile writes a History database, a Bookmarks file and a tab
// session dump, and a config that reads them through the file tab source.
func newTestProfile(t *testing.T) *testProfile {
	t.Helper()
	root := t.TempDir()
	p := &testProfile{
		Dir:        filepath.Join(root, "Default"),
		OutputDir:  filepath.Join(root, "exports"),
		ConfigPath: filepath.Join(root, "config.yaml"),
	}

	h, err := storage.CreateHistory(filepath.Join(p.Dir, "History"))
	require.NoError(t, err)
	ctx := context.Background()
	now := time.Now()

	visits := []struct {
		url, title string
		ago        time.Duration
	}{
		{"https://go.dev/", "Go", 3 * time.Hour},
		{"https://go.dev/", "The Go Programming Language", time.Hour},
		{"https://pkg.go.dev/net/http", "http package - net/http", 48 * time.Hour},
		{"https://old.example.com/", "Ancient Page", 40 * 24 * time.Hour},
	}
	for _, v := range visits {
		require.NoError(t, h.Store.AddVisit(ctx, v.url, v.title, now.Add(-v.ago)))
	}
	require.NoError(t, h.Store.AddDownload(ctx, "/home/me/Downloads/go.tar.gz", "https://go.dev/dl/go.tar.gz", now.Add(-2*time.Hour)))
	require.NoError(t, h.Close())

	require.NoError(t, os.WriteFile(filepath.Join(p.Dir, "Bookmarks"), []byte(testBookmarks), 0644))
	sessionPath := filepath.Join(root, "session.json")
	require.NoError(t, os.WriteFile(sessionPath, []byte(testSession), 0644))

	cfg := fmt.Sprintf(`profile:
  dir: %q
tabs:
  source: "file"
  session_file: %q
export:
  output_dir: %q
logging:
  level: "error"
`, p.Dir, sessionPath, p.OutputDir)
	require.NoError(t, os.WriteFile(p.ConfigPath, []byte(cfg), 0644))

	return p
}

// open starts a session against the profile.
func (p *testProfile) open(t *testing.T, globals *GlobalFlags) *session {
	t.Helper()
	globals.Config = p.ConfigPath
	s, err := openSession(globals)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
