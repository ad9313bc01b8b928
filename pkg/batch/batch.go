package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultPackSize is the number of tasks dispatched concurrently per pack.
const DefaultPackSize = 100

// Task is one unit of work producing a value.
type Task[T any] func(ctx context.Context) (T, error)

// RunPacked runs tasks in packs of DefaultPackSize.
func RunPacked[T any](ctx context.Context, tasks []Task[T]) ([]T, error) {
	return RunPackedSize(ctx, DefaultPackSize, tasks)
}

// RunPackedSize runs tasks in packs of at most size tasks. A size of zero or
// less selects DefaultPackSize.
func RunPackedSize[T any](ctx context.Context, size int, tasks []Task[T]) ([]T, error) {
	if size <= 0 {
		size = DefaultPackSize
	}

	results := make([]T, len(tasks))
	for start := 0; start < len(tasks); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+size, len(tasks))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			task := tasks[i]
			g.Go(func() error {
				v, err := task(gctx)
				if err != nil {
					return err
				}
				// Each goroutine owns its own slot.
				results[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Map applies fn to every item through RunPackedSize.
func Map[In, Out any](ctx context.Context, size int, items []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	tasks := make([]Task[Out], len(items))
	for i, item := range items {
		tasks[i] = func(ctx context.Context) (Out, error) {
			return fn(ctx, item)
		}
	}
	return RunPackedSize(ctx, size, tasks)
}

// Packs returns the number of packs len tasks split into for size.
func Packs(n, size int) int {
	if size <= 0 {
		size = DefaultPackSize
	}
	return (n + size - 1) / size
}
