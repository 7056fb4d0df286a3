package concurrent

import (
	"context"
	"errors"
	"sync"
)

// Result represents the result of a parallel operation
type Result[T any] struct {
	Value T
	Error error
	Index int // Original index in the input slice
}

// ParallelMapWithLimit runs fn on every item with at most maxConcurrent calls
// in flight. Results keep the input order. All items are attempted even when
// some fail; a cancelled context is reported as the error of the items that
// had not started yet.
func ParallelMapWithLimit[T any, R any](ctx context.Context, items []T, fn func(ctx context.Context, item T) (R, error), maxConcurrent int) []Result[R] {
	if maxConcurrent <= 0 || maxConcurrent > len(items) {
		maxConcurrent = len(items)
	}

	results := make([]Result[R], len(items))
	semaphore := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			results[i] = Result[R]{Error: err, Index: i}
			continue
		}

		select {
		case semaphore <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result[R]{Error: ctx.Err(), Index: i}
			continue
		}

		wg.Add(1)
		go func(index int, item T) {
			defer wg.Done()
			defer func() { <-semaphore }()

			value, err := fn(ctx, item)
			results[index] = Result[R]{
				Value: value,
				Error: err,
				Index: index,
			}
		}(i, item)
	}

	wg.Wait()
	return results
}

// CollectResults separates successful results from errors
func CollectResults[T any](results []Result[T]) (values []T, errs []error) {
	values = make([]T, 0, len(results))

	for _, result := range results {
		if result.Error != nil {
			errs = append(errs, result.Error)
		} else {
			values = append(values, result.Value)
		}
	}

	return values, errs
}

// JoinErrors joins every failed result into one error, or returns nil
func JoinErrors[T any](results []Result[T]) error {
	_, errs := CollectResults(results)
	return errors.Join(errs...)
}
