package history

import (
	"context"
	"time"

	"github.com/hession/searxmate/internal/logger"
	"github.com/hession/searxmate/internal/websearch"
)

// Recorder wraps a Searcher and stores every call in the history store.
// Recording failures are logged and never change the search outcome.
type Recorder struct {
	next  websearch.Searcher
	store Store
	now   func() time.Time
}

// NewRecorder creates a recording Searcher
func NewRecorder(next websearch.Searcher, store Store) *Recorder {
	return &Recorder{
		next:  next,
		store: store,
		now:   time.Now,
	}
}

// Run implements websearch.Searcher
func (r *Recorder) Run(ctx context.Context, text string) (string, error) {
	start := r.now()
	summary, err := r.next.Run(ctx, text)
	resultCount := 0
	if err == nil {
		resultCount = 1
	}
	r.record(text, ModeRun, r.defaultCount(), resultCount, start, err)
	return summary, err
}

// Results implements websearch.Searcher
func (r *Recorder) Results(ctx context.Context, text string, count int) ([]websearch.Entry, error) {
	start := r.now()
	entries, err := r.next.Results(ctx, text, count)
	r.record(text, ModeResults, count, len(entries), start, err)
	return entries, err
}

// Search implements websearch.Searcher
func (r *Recorder) Search(ctx context.Context, q websearch.Query) (*websearch.Shaped, error) {
	start := r.now()
	shaped, err := r.next.Search(ctx, q)
	resultCount := 0
	if shaped != nil {
		resultCount = len(shaped.Entries)
	}
	r.record(q.Text, ModeSearch, q.Count, resultCount, start, err)
	return shaped, err
}

// SearchHTML implements websearch.Searcher
func (r *Recorder) SearchHTML(ctx context.Context, q websearch.Query) (string, error) {
	start := r.now()
	page, err := r.next.SearchHTML(ctx, q)
	r.record(q.Text, ModeHTML, q.Count, 0, start, err)
	return page, err
}

// RecordBatch stores the outcome of a batch run. Rejected queries are skipped.
func (r *Recorder) RecordBatch(results []websearch.BatchResult, elapsed time.Duration) {
	for _, res := range results {
		if websearch.IsInvalidArgument(res.Err) {
			continue
		}
		rec := &Record{
			Query:   res.Query.Text,
			Mode:    ModeBatch,
			Count:   res.Query.Count,
			Latency: elapsed,
		}
		if res.Shaped != nil {
			rec.ResultCount = len(res.Shaped.Entries)
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		r.save(rec)
	}
}

// defaultCount is the count Run asks the wrapped searcher for
func (r *Recorder) defaultCount() int {
	if d, ok := r.next.(interface{ DefaultCount() int }); ok {
		return d.DefaultCount()
	}
	return websearch.DefaultCount
}

func (r *Recorder) record(text string, mode Mode, count, resultCount int, start time.Time, err error) {
	// Rejected arguments never reached the server
	if websearch.IsInvalidArgument(err) {
		return
	}
	rec := &Record{
		Query:       text,
		Mode:        mode,
		Count:       count,
		ResultCount: resultCount,
		Latency:     r.now().Sub(start),
		CreatedAt:   r.now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	r.save(rec)
}

func (r *Recorder) save(rec *Record) {
	if err := r.store.Record(rec); err != nil {
		logger.Warn("failed to record query history: %v", err)
	}
}
