package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/tabsnap/internal/browser"
	"github.com/runnerr0/tabsnap/internal/history"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// seedProfile writes a History database with a few visits and downloads and
// returns its path.
func seedProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "History")

	h, err := CreateHistory(path)
	require.NoError(t, err)
	ctx := context.Background()

	visits := []struct {
		url, title string
		at         time.Time
	}{
		{"https://go.dev/", "Go", base},
		{"https://go.dev/", "The Go Programming Language", base.Add(2 * time.Hour)},
		{"https://pkg.go.dev/net/http", "http package", base.Add(1 * time.Hour)},
		{"https://example.com/100%_real", "Percent", base.Add(3 * time.Hour)},
	}
	for _, v := range visits {
		require.NoError(t, h.Store.AddVisit(ctx, v.url, v.title, v.at))
	}
	require.NoError(t, h.Store.AddDownload(ctx, "/home/me/Downloads/go1.22.tar.gz", "https://go.dev/dl/go1.22.tar.gz", base.Add(30*time.Minute)))
	require.NoError(t, h.Store.AddDownload(ctx, `C:\Users\me\Downloads\notes.pdf`, "https://example.com/notes.pdf", base.Add(4*time.Hour)))
	require.NoError(t, h.Close())

	return path
}

func openSeeded(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := OpenHistory(seedProfile(t), true)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h.Store
}

func TestSearch_OldestFirstFromCursor(t *testing.T) {
	store := openSeeded(t)

	got, err := store.Search(context.Background(), browser.HistoryQuery{
		StartTime:  time.UnixMilli(0),
		MaxResults: 100,
	})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "https://go.dev/", got[0].URL)
	assert.True(t, got[0].LastVisitTime.Equal(base))
	assert.Equal(t, "https://pkg.go.dev/net/http", got[1].URL)
	assert.Equal(t, "https://example.com/100%_real", got[3].URL)
	assert.Equal(t, 2, got[0].VisitCount)
}

func TestSearch_StartTimeAndCap(t *testing.T) {
	store := openSeeded(t)

	got, err := store.Search(context.Background(), browser.HistoryQuery{
		StartTime:  base.Add(time.Hour),
		MaxResults: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].LastVisitTime.Equal(base.Add(time.Hour)))
	assert.True(t, got[1].LastVisitTime.Equal(base.Add(2*time.Hour)))
}

func TestSearch_ExactURLNewestFirst(t *testing.T) {
	store := openSeeded(t)

	got, err := store.Search(context.Background(), browser.HistoryQuery{
		URL:         "https://go.dev/",
		MaxResults:  1,
		NewestFirst: true,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].LastVisitTime.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, "The Go Programming Language", got[0].Title)
	assert.Equal(t, 2, got[0].VisitCount)
}

func TestSearch_ExactURLNoMatch(t *testing.T) {
	store := openSeeded(t)

	got, err := store.Search(context.Background(), browser.HistoryQuery{
		URL:         "https://go.dev",
		MaxResults:  1,
		NewestFirst: true,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSearch_TextEscapesWildcards(t *testing.T) {
	store := openSeeded(t)
	ctx := context.Background()

	got, err := store.Search(ctx, browser.HistoryQuery{Text: "100%_", MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Percent", got[0].Title)

	got, err = store.Search(ctx, browser.HistoryQuery{Text: "http package", MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = store.Search(ctx, browser.HistoryQuery{Text: "%", MaxResults: 10})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDownloads(t *testing.T) {
	store := openSeeded(t)

	got, err := store.Downloads(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, `C:\Users\me\Downloads\notes.pdf`, got[0].Filename)
	assert.Equal(t, "https://example.com/notes.pdf", got[0].URL)
	assert.True(t, got[1].StartTime.Equal(base.Add(30*time.Minute)))
}

func TestDownloads_MissingTableIsUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "History")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := NewMigrationRunner(db)
	runner.migrations = runner.migrations[:1]
	require.NoError(t, runner.Run())

	store, err := NewHistoryStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Downloads(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrUnavailable))

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalDownloads)
}

func TestGetStats(t *testing.T) {
	store := openSeeded(t)

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalURLs)
	assert.Equal(t, int64(4), stats.TotalVisits)
	assert.Equal(t, int64(2), stats.TotalDownloads)
	assert.True(t, stats.OldestVisit.Equal(base))
	assert.True(t, stats.NewestVisit.Equal(base.Add(3*time.Hour)))
}

func TestNewHistoryStore_RejectsForeignDatabase(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "other.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE notes (id INTEGER)")
	require.NoError(t, err)

	_, err = NewHistoryStore(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a history database")
}

func TestOpenHistory_MissingFile(t *testing.T) {
	_, err := OpenHistory(filepath.Join(t.TempDir(), "History"), true)
	assert.Error(t, err)
}

func TestOpenHistory_RemovesTempCopy(t *testing.T) {
	h, err := OpenHistory(seedProfile(t), true)
	require.NoError(t, err)

	tmp := h.tempPath
	require.NotEmpty(t, tmp)
	_, err = os.Stat(tmp)
	require.NoError(t, err)

	require.NoError(t, h.Close())
	_, err = os.Stat(tmp)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenHistory_WithoutCopy(t *testing.T) {
	h, err := OpenHistory(seedProfile(t), false)
	require.NoError(t, err)
	defer h.Close()

	assert.Empty(t, h.tempPath)
	got, err := h.Store.Search(context.Background(), browser.HistoryQuery{MaxResults: 10})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestJoinTab_EmptyURLAgainstStore(t *testing.T) {
	store := openSeeded(t)
	j := history.NewJoiner(store, nil)

	got := j.JoinTab(context.Background(), browser.Tab{ID: 3, URL: ""})
	assert.Nil(t, got.LastVisitTime)
	assert.Equal(t, 0, got.VisitCount)
	assert.Equal(t, history.OpenedAtUnknown, got.OpenedAt)

	got = j.JoinTab(context.Background(), browser.Tab{ID: 4, URL: "https://go.dev/"})
	require.NotNil(t, got.LastVisitTime)
	assert.True(t, got.LastVisitTime.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, 2, got.VisitCount)
}
