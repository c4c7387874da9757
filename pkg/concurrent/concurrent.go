package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every element with at most workers goroutines
// (unbounded when workers <= 0). The first error cancels the context handed
// to the remaining actions and is returned once all of them have finished.
func ForEach[T any](ctx context.Context, items []T, workers int, action func(ctx context.Context, i int, item T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return action(gctx, i, item)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// a cancelled parent may have skipped items
	return ctx.Err()
}

// Map applies mapFn to every element in parallel, preserving order. On error
// the partial results are discarded.
func Map[T any, R any](ctx context.Context, items []T, workers int, mapFn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	err := ForEach(ctx, items, workers, func(ctx context.Context, i int, item T) error {
		r, err := mapFn(ctx, item)
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Mute runs action for every element and waits, ignoring errors.
func Mute[T any](items []T, workers int, action func(T)) {
	_ = ForEach(context.Background(), items, workers, func(_ context.Context, _ int, item T) error {
		action(item)
		return nil
	})
}
