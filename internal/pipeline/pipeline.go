// Package pipeline runs per-candidate work over a bounded worker pool.
// Every candidate produces exactly one result, failures included; workers
// report failures as values, never as pool-level errors.
package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"domaincheck/pkg/domain"
)

// Worker processes a single candidate. Workers must not share mutable state
// without synchronization; the pool gives no ordering guarantees between
// candidates.
type Worker[R any] func(ctx context.Context, c domain.Candidate) R

// Recovery converts a panic raised by a worker into that candidate's result,
// keeping the output aligned with the input.
type Recovery[R any] func(c domain.Candidate, recovered any) R

// Options configure a pool run.
type Options struct {
	// Concurrency bounds in-flight workers. Values below 1 run serially.
	Concurrency int
	// ChunkSize dispatches candidates in batches, waiting for each batch
	// to drain before starting the next. Zero dispatches everything at
	// once.
	ChunkSize int
	// OnProgress, when set, is called after each completed candidate with
	// the running completion count. Calls are serialized and done is
	// strictly increasing up to the candidate count.
	OnProgress func(done, total int)
}

// Run executes worker for every candidate and returns the results in input
// order. The output always has exactly one entry per candidate: a panicking
// worker contributes the result built by recovery instead of tearing down
// the run.
func Run[R any](ctx context.Context, candidates []domain.Candidate, worker Worker[R], recovery Recovery[R], opts Options) []R {
	results := make([]R, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(candidates)
	}

	total := len(candidates)
	var progressMu sync.Mutex
	done := 0
	completed := func() {
		progressMu.Lock()
		defer progressMu.Unlock()

		done++
		if opts.OnProgress != nil {
			opts.OnProgress(done, total)
		}
	}

	for start := 0; start < len(candidates); start += chunkSize {
		end := min(start+chunkSize, len(candidates))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				defer func() {
					if r := recover(); r != nil {
						results[i] = recovery(candidates[i], r)
						completed()
					}
				}()

				results[i] = worker(gctx, candidates[i])
				completed()

				return nil
			})
		}
		// workers never return errors; Wait only synchronizes the chunk
		_ = g.Wait()
	}

	return results
}
