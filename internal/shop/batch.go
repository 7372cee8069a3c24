package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"
)

// BatchOptions controls RunBatch and Client.Batch.
type BatchOptions struct {
	// Concurrency is the window size; values below 1 mean 1.
	Concurrency int
	// FailFast aborts the batch on the first failure in a window.
	FailFast bool
	Retry    RetryPolicy
	// Logger receives retry diagnostics; nil means slog.Default.
	Logger *slog.Logger
}

// BatchResult holds index-aligned outcomes. For every completed job i exactly
// one of Results[i] (with Errors[i] == nil) or Errors[i] is set. Jobs aborted
// by FailFast leave both slots empty.
type BatchResult[T any] struct {
	Results []T
	Errors  []error
	done    []bool
}

// HasErrors reports whether any job failed.
func (r BatchResult[T]) HasErrors() bool {
	for _, err := range r.Errors {
		if err != nil {
			return true
		}
	}
	return false
}

// Succeeded reports whether job i completed without error.
func (r BatchResult[T]) Succeeded(i int) bool {
	return i >= 0 && i < len(r.done) && r.done[i] && r.Errors[i] == nil
}

// Completed returns the number of jobs that finished, successfully or not.
func (r BatchResult[T]) Completed() int {
	n := 0
	for _, d := range r.done {
		if d {
			n++
		}
	}
	return n
}

// Job is one unit of batch work.
type Job[T any] func(ctx context.Context) (T, error)

// RunBatch executes jobs in sequential windows of opts.Concurrency. Jobs in a
// window run concurrently, each through Retry, and the window finishes before
// the next starts. Without FailFast every failure is recorded at its index
// and the batch continues. With FailFast the first failure cancels the rest
// of its window and is returned; later windows never start.
func RunBatch[T any](ctx context.Context, jobs []Job[T], opts BatchOptions) (BatchResult[T], error) {
	size := opts.Concurrency
	if size < 1 {
		size = 1
	}
	res := BatchResult[T]{
		Results: make([]T, len(jobs)),
		Errors:  make([]error, len(jobs)),
		done:    make([]bool, len(jobs)),
	}

	for start := 0; start < len(jobs); start += size {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+size, len(jobs))

		p := pool.New().WithContext(ctx)
		if opts.FailFast {
			p = p.WithCancelOnError().WithFirstError()
		}
		for i := start; i < end; i++ {
			i := i
			job := jobs[i]
			p.Go(func(jobCtx context.Context) error {
				v, err := retry(jobCtx, opts.Retry, opts.Logger, func(ctx context.Context) (T, error) {
					return job(ctx)
				})
				// A sibling's failure cancelled this job; it never completed.
				if err != nil && opts.FailFast && jobCtx.Err() != nil && ctx.Err() == nil {
					return nil
				}
				// Each goroutine owns slot i.
				res.done[i] = true
				if err != nil {
					res.Errors[i] = err
					if opts.FailFast {
						return fmt.Errorf("batch job %d: %w", i, err)
					}
					return nil
				}
				res.Results[i] = v
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Batch runs reqs through RunBatch, decoding each response as raw JSON. A zero
// opts.Retry falls back to the client's policy.
func (c *Client) Batch(ctx context.Context, reqs []Request, opts BatchOptions) (BatchResult[json.RawMessage], error) {
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = c.retry
	}
	if opts.Logger == nil {
		opts.Logger = c.logger
	}
	jobs := make([]Job[json.RawMessage], len(reqs))
	for i, req := range reqs {
		req := req
		jobs[i] = func(ctx context.Context) (json.RawMessage, error) {
			var raw json.RawMessage
			if err := c.Request(ctx, req, &raw); err != nil {
				return nil, err
			}
			return raw, nil
		}
	}
	return RunBatch(ctx, jobs, opts)
}
