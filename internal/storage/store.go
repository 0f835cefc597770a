package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/tabsnap/internal/browser"
)

// Stats holds aggregate statistics about a history database.
type Stats struct {
	TotalURLs      int64
	TotalVisits    int64
	TotalDownloads int64
	OldestVisit    time.Time
	NewestVisit    time.Time
}

// HistoryStore reads visits and downloads from a Chromium "History" database.
// It implements browser.HistorySource and browser.DownloadSource.
type HistoryStore struct {
	db *sql.DB

	lookupURL *sql.Stmt
}

// NewHistoryStore wraps an opened History database. It fails when the
// database does not look like a Chromium history file.
func NewHistoryStore(db *sql.DB) (*HistoryStore, error) {
	s := &HistoryStore{db: db}

	if err := s.checkSchema(); err != nil {
		return nil, err
	}

	var err error
	s.lookupURL, err = db.Prepare(`
		SELECT u.url, COALESCE(u.title, ''), v.visit_time, u.visit_count
		FROM visits v
		JOIN urls u ON u.id = v.url
		WHERE u.url = ?
		ORDER BY v.visit_time DESC, v.id DESC
		LIMIT ?
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *HistoryStore) checkSchema() error {
	var version string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'version'").Scan(&version)
	if err != nil {
		return fmt.Errorf("not a history database: %w", err)
	}
	for _, table := range []string{"urls", "visits"} {
		ok, err := s.hasTable(table)
		if err != nil {
			return fmt.Errorf("inspect schema: %w", err)
		}
		if !ok {
			return fmt.Errorf("not a history database: missing table %s", table)
		}
	}
	return nil
}

func (s *HistoryStore) hasTable(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// likePattern escapes s for use in a LIKE ... ESCAPE '\' clause.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// Search returns one record per visit matching q. Results are ordered oldest
// first starting at q.StartTime, or newest first when q.NewestFirst is set.
func (s *HistoryStore) Search(ctx context.Context, q browser.HistoryQuery) ([]browser.VisitRecord, error) {
	limit := q.MaxResults
	if limit <= 0 {
		limit = 100
	}

	// Exact lookups are the hot path during tab joins.
	if q.URL != "" && q.Text == "" && q.StartTime.IsZero() && q.NewestFirst {
		return s.scanVisits(s.lookupURL.QueryContext(ctx, q.URL, limit))
	}

	var clauses []string
	var args []interface{}

	if !q.StartTime.IsZero() {
		clauses = append(clauses, "v.visit_time >= ?")
		args = append(args, browser.ToChromeTime(q.StartTime))
	}
	if q.URL != "" {
		clauses = append(clauses, "u.url = ?")
		args = append(args, q.URL)
	}
	if q.Text != "" {
		clauses = append(clauses, `(u.url LIKE ? ESCAPE '\' OR u.title LIKE ? ESCAPE '\')`)
		p := likePattern(q.Text)
		args = append(args, p, p)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	order := " ORDER BY v.visit_time ASC, v.id ASC"
	if q.NewestFirst {
		order = " ORDER BY v.visit_time DESC, v.id DESC"
	}

	query := `
		SELECT u.url, COALESCE(u.title, ''), v.visit_time, u.visit_count
		FROM visits v
		JOIN urls u ON u.id = v.url
	` + where + order + " LIMIT ?"
	args = append(args, limit)

	return s.scanVisits(s.db.QueryContext(ctx, query, args...))
}

// scanVisits scans rows from a visits/urls join into records.
func (s *HistoryStore) scanVisits(rows *sql.Rows, err error) ([]browser.VisitRecord, error) {
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	records := []browser.VisitRecord{}
	for rows.Next() {
		var r browser.VisitRecord
		var visitTime int64
		if err := rows.Scan(&r.URL, &r.Title, &visitTime, &r.VisitCount); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		r.LastVisitTime = browser.FromChromeTime(visitTime)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Downloads implements browser.DownloadSource. Newest downloads come first.
// A profile without download tables yields browser.ErrUnavailable.
func (s *HistoryStore) Downloads(ctx context.Context) ([]browser.Download, error) {
	ok, err := s.hasTable("downloads")
	if err != nil {
		return nil, fmt.Errorf("inspect schema: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("downloads table: %w", browser.ErrUnavailable)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.target_path,
		       COALESCE((SELECT c.url FROM downloads_url_chains c
		                 WHERE c.id = d.id ORDER BY c.chain_index DESC LIMIT 1), d.tab_url),
		       d.start_time
		FROM downloads d
		ORDER BY d.start_time DESC, d.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	downloads := []browser.Download{}
	for rows.Next() {
		var d browser.Download
		var start int64
		if err := rows.Scan(&d.Filename, &d.URL, &start); err != nil {
			return nil, fmt.Errorf("scan download: %w", err)
		}
		d.StartTime = browser.FromChromeTime(start)
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// GetStats returns aggregate statistics about the database.
func (s *HistoryStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM urls").Scan(&stats.TotalURLs); err != nil {
		return nil, fmt.Errorf("count urls: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM visits").Scan(&stats.TotalVisits); err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	if stats.TotalVisits > 0 {
		var oldest, newest int64
		err := s.db.QueryRowContext(ctx, "SELECT MIN(visit_time), MAX(visit_time) FROM visits").Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("visit time range: %w", err)
		}
		stats.OldestVisit = browser.FromChromeTime(oldest)
		stats.NewestVisit = browser.FromChromeTime(newest)
	}

	ok, err := s.hasTable("downloads")
	if err != nil {
		return nil, fmt.Errorf("inspect schema: %w", err)
	}
	if ok {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads").Scan(&stats.TotalDownloads); err != nil {
			return nil, fmt.Errorf("count downloads: %w", err)
		}
	}

	return stats, nil
}

// AddVisit records a visit, creating the urls row when needed. It exists to
// build fixture profiles.
func (s *HistoryStore) AddVisit(ctx context.Context, rawURL, title string, at time.Time) error {
	ts := browser.ToChromeTime(at)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var urlID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM urls WHERE url = ?", rawURL).Scan(&urlID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.ExecContext(ctx,
			"INSERT INTO urls (url, title, visit_count, last_visit_time) VALUES (?, ?, 1, ?)",
			rawURL, title, ts,
		)
		if err != nil {
			return fmt.Errorf("insert url: %w", err)
		}
		if urlID, err = res.LastInsertId(); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("lookup url: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE urls SET
				visit_count = visit_count + 1,
				title = CASE WHEN ? >= last_visit_time THEN ? ELSE title END,
				last_visit_time = MAX(last_visit_time, ?)
			WHERE id = ?`,
			ts, title, ts, urlID,
		)
		if err != nil {
			return fmt.Errorf("update url: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO visits (url, visit_time) VALUES (?, ?)", urlID, ts,
	); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}

	return tx.Commit()
}

// AddDownload records a download with its final URL. It exists to build
// fixture profiles.
func (s *HistoryStore) AddDownload(ctx context.Context, targetPath, rawURL string, started time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		"INSERT INTO downloads (target_path, start_time, tab_url) VALUES (?, ?, ?)",
		targetPath, browser.ToChromeTime(started), rawURL,
	)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO downloads_url_chains (id, chain_index, url) VALUES (?, 0, ?)", id, rawURL,
	); err != nil {
		return fmt.Errorf("insert url chain: %w", err)
	}

	return tx.Commit()
}

// Close releases prepared statements. The underlying *sql.DB is NOT closed;
// that is the caller's responsibility.
func (s *HistoryStore) Close() error {
	if s.lookupURL != nil {
		return s.lookupURL.Close()
	}
	return nil
}
