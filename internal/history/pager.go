package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/runnerr0/tabsnap/internal/browser"
)

const (
	// DefaultBatchSize is the per-request result cap used when walking history.
	DefaultBatchSize = 100000
	// DefaultOverhead is added to a batch's newest visit to form the next cursor.
	DefaultOverhead = time.Second
)

// Pager walks the complete history of a source whose searches are capped.
//
// Each request asks for up to BatchSize records at or after the cursor. The
// cursor then moves to the newest visit in the batch plus Overhead. Visits
// that share the boundary timestamp beyond the cap, or fall inside the
// overhead window, are skipped; the walk trades completeness for guaranteed
// progress.
type Pager struct {
	Source    browser.HistorySource
	BatchSize int
	Overhead  time.Duration
	Logger    *slog.Logger
}

// NewPager returns a Pager with default batch size and overhead.
func NewPager(src browser.HistorySource, logger *slog.Logger) *Pager {
	return &Pager{
		Source:    src,
		BatchSize: DefaultBatchSize,
		Overhead:  DefaultOverhead,
		Logger:    logger,
	}
}

// FetchAll returns every record reachable by the cursor walk, in request order.
func (p *Pager) FetchAll(ctx context.Context) ([]browser.VisitRecord, error) {
	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	overhead := p.Overhead
	if overhead <= 0 {
		overhead = DefaultOverhead
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var all []browser.VisitRecord
	cursor := time.UnixMilli(0)

	for batchNum := 1; ; batchNum++ {
		batch, err := p.Source.Search(ctx, browser.HistoryQuery{
			StartTime:  cursor,
			MaxResults: batchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch history batch %d: %w", batchNum, err)
		}
		if len(batch) == 0 {
			logger.Debug("history walk complete", "batches", batchNum-1, "records", len(all))
			return all, nil
		}

		all = append(all, batch...)

		sorted := make([]browser.VisitRecord, len(batch))
		copy(sorted, batch)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].LastVisitTime.Before(sorted[j].LastVisitTime)
		})
		newest := sorted[len(sorted)-1].LastVisitTime

		// A misbehaving source must not move the cursor backwards.
		if newest.Before(cursor) {
			newest = cursor
		}
		next := newest.Add(overhead)

		logger.Debug("history batch",
			"batch", batchNum,
			"records", len(batch),
			"cursor", cursor.UnixMilli(),
			"next", next.UnixMilli(),
		)
		cursor = next
	}
}
