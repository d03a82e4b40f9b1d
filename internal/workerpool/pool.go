// Package workerpool runs independent tasks with bounded concurrency and
// collects one result per task.
package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the concurrency used when a caller passes a non-positive limit.
const DefaultLimit = 2

// Result is the outcome of one task. Index is the task's position in the
// input slice.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// PanicError reports a task that panicked instead of returning.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Run executes fn for every item with at most limit tasks in flight and
// returns the results in input order. A failing or panicking task never
// cancels its siblings; tasks not yet started when ctx is done report
// ctx.Err() without running.
func Run[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		results[i].Index = i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Value, results[i].Err = call(ctx, item, fn)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func call[T, R any](ctx context.Context, item T, fn func(context.Context, T) (R, error)) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx, item)
}
