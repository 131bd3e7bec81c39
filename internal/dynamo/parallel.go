package dynamo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ForEachIndex runs fn for every index in [0, n) on at most workers goroutines.
// Indices are launched in ascending order; once ctx is done no further index
// is started. fn must write its result into an index-addressed slot so the
// caller observes a stable ordering regardless of completion order.
// The first non-nil error from fn cancels the context handed to the others.
func ForEachIndex(ctx context.Context, n, workers int, fn func(ctx context.Context, idx int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		idx := i
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return fn(gctx, idx)
		})
	}

	return g.Wait()
}
