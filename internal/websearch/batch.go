package websearch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one query in a batch.
type BatchResult struct {
	Query  Query
	Shaped *Shaped
	Err    error
}

// Batch runs queries in parallel with at most concurrency requests in
// flight (unbounded when concurrency <= 0). Results keep the input order and
// a failing query does not affect the others.
func (c *Client) Batch(ctx context.Context, queries []Query, concurrency int) []BatchResult {
	results := make([]BatchResult, len(queries))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, q := range queries {
		g.Go(func() error {
			shaped, err := c.Search(ctx, q)
			results[i] = BatchResult{Query: q, Shaped: shaped, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
