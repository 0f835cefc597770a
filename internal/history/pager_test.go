package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/tabsnap/internal/browser"
)

func TestFetchAll_ReturnsEveryRecordAcrossPages(t *testing.T) {
	for _, batch := range []int{1, 3, 7, 50, 1000} {
		t.Run(fmt.Sprintf("batch=%d", batch), func(t *testing.T) {
			var records []browser.VisitRecord
			for i := 0; i < 50; i++ {
				// Spaced wider than the overhead so nothing falls in the skip window.
				records = append(records, visit(fmt.Sprintf("https://site/%d", i), 1_000_000+int64(i)*5000))
			}
			src := newMemSource(records...)
			p := &Pager{Source: src, BatchSize: batch, Overhead: time.Second}

			got, err := p.FetchAll(context.Background())
			require.NoError(t, err)
			assert.Len(t, got, len(records))
		})
	}
}

func TestFetchAll_EmptySource(t *testing.T) {
	src := newMemSource()
	p := NewPager(src, nil)

	got, err := p.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	require.Len(t, src.queries, 1)
	assert.Equal(t, int64(0), src.queries[0].StartTime.UnixMilli())
	assert.Equal(t, DefaultBatchSize, src.queries[0].MaxResults)
	assert.Empty(t, src.queries[0].Text)
}

func TestFetchAll_CursorStrictlyIncreases(t *testing.T) {
	var records []browser.VisitRecord
	for i := 0; i < 20; i++ {
		// Several records share timestamps to stress the boundary.
		records = append(records, visit(fmt.Sprintf("https://dup/%d", i), 10_000+int64(i/4)*3000))
	}
	src := newMemSource(records...)
	p := &Pager{Source: src, BatchSize: 2, Overhead: time.Second}

	_, err := p.FetchAll(context.Background())
	require.NoError(t, err)

	starts := src.startTimes()
	require.NotEmpty(t, starts)
	for i := 1; i < len(starts); i++ {
		assert.True(t, starts[i].After(starts[i-1]), "cursor %d (%v) must exceed %v", i, starts[i], starts[i-1])
	}
}

func TestFetchAll_AdvancesCursorByOverhead(t *testing.T) {
	src := newMemSource(visit("https://a", 5000), visit("https://b", 9000))
	p := &Pager{Source: src, BatchSize: 10, Overhead: time.Second}

	_, err := p.FetchAll(context.Background())
	require.NoError(t, err)

	starts := src.startTimes()
	require.Len(t, starts, 2)
	assert.Equal(t, int64(10_000), starts[1].UnixMilli())
}

func TestFetchAll_SkipsRecordsInsideOverheadWindow(t *testing.T) {
	// Cap of 1 returns only the visit at 1000; the cursor jumps to 2000 and
	// the visit at 1500 is never requested. This is the accepted trade-off.
	src := newMemSource(visit("https://a", 1000), visit("https://b", 1500), visit("https://c", 4000))
	p := &Pager{Source: src, BatchSize: 1, Overhead: time.Second}

	got, err := p.FetchAll(context.Background())
	require.NoError(t, err)

	var urls []string
	for _, r := range got {
		urls = append(urls, r.URL)
	}
	assert.Equal(t, []string{"https://a", "https://c"}, urls)
}

func TestFetchAll_SkipsSameTimestampBeyondCap(t *testing.T) {
	src := newMemSource(visit("https://a", 1000), visit("https://b", 1000), visit("https://c", 1000))
	p := &Pager{Source: src, BatchSize: 2, Overhead: time.Second}

	got, err := p.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFetchAll_RecordAtEpochOrigin(t *testing.T) {
	src := newMemSource(visit("https://a", 0))
	p := &Pager{Source: src, BatchSize: 5, Overhead: time.Second}

	got, err := p.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, src.queries, 2)
}

func TestFetchAll_PropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPager(errSource{err: boom}, nil)

	_, err := p.FetchAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fetch history batch 1")
}
