package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"domaincheck/internal/pipeline"
	"domaincheck/pkg/domain"
)

func candidates(n int) []domain.Candidate {
	out := make([]domain.Candidate, 0, n)
	for i := range n {
		out = append(out, domain.Candidate(fmt.Sprintf("site-%03d.com", i)))
	}

	return out
}

func noRecovery(c domain.Candidate, recovered any) string {
	panic(fmt.Sprintf("unexpected panic for %s: %v", c, recovered))
}

func TestRun_preservesOrder(t *testing.T) {
	input := candidates(50)

	results := pipeline.Run(context.Background(), input,
		func(_ context.Context, c domain.Candidate) string {
			return "checked:" + c.String()
		},
		noRecovery,
		pipeline.Options{Concurrency: 8})

	require.Len(t, results, len(input))
	for i, c := range input {
		require.Equal(t, "checked:"+c.String(), results[i])
	}
}

func TestRun_boundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int64
	var mu sync.Mutex

	pipeline.Run(context.Background(), candidates(64),
		func(_ context.Context, _ domain.Candidate) struct{} {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)

			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()

			return struct{}{}
		},
		func(_ domain.Candidate, _ any) struct{} { return struct{}{} },
		pipeline.Options{Concurrency: 4})

	require.LessOrEqual(t, peak.Load(), int64(4))
}

func TestRun_panicsBecomeResults(t *testing.T) {
	input := candidates(10)

	results := pipeline.Run(context.Background(), input,
		func(_ context.Context, c domain.Candidate) string {
			if strings.HasSuffix(c.String(), "3.com") {
				panic("boom")
			}

			return "ok"
		},
		func(c domain.Candidate, recovered any) string {
			return fmt.Sprintf("failed %s: %v", c, recovered)
		},
		pipeline.Options{Concurrency: 4})

	require.Len(t, results, len(input))
	for i, res := range results {
		if i == 3 {
			require.Equal(t, "failed site-003.com: boom", res)
		} else {
			require.Equal(t, "ok", res)
		}
	}
}

func TestRun_progressIsMonotonic(t *testing.T) {
	var reports []int
	var lastTotal int

	pipeline.Run(context.Background(), candidates(25),
		func(_ context.Context, _ domain.Candidate) struct{} { return struct{}{} },
		func(_ domain.Candidate, _ any) struct{} { return struct{}{} },
		pipeline.Options{
			Concurrency: 5,
			OnProgress: func(done, total int) {
				reports = append(reports, done)
				lastTotal = total
			},
		})

	require.Len(t, reports, 25)
	require.Equal(t, 25, lastTotal)
	for i, done := range reports {
		require.Equal(t, i+1, done)
	}
}

func TestRun_chunkedDispatch(t *testing.T) {
	var maxIndexSeen atomic.Int64
	maxIndexSeen.Store(-1)

	input := candidates(20)
	results := pipeline.Run(context.Background(), input,
		func(_ context.Context, c domain.Candidate) int {
			var idx int
			_, err := fmt.Sscanf(c.String(), "site-%03d.com", &idx)
			if err != nil {
				t.Error(err)
			}
			for {
				cur := maxIndexSeen.Load()
				if int64(idx) <= cur || maxIndexSeen.CompareAndSwap(cur, int64(idx)) {
					break
				}
			}

			return idx
		},
		func(_ domain.Candidate, _ any) int { return -1 },
		pipeline.Options{Concurrency: 2, ChunkSize: 5})

	require.Len(t, results, 20)
	for i, idx := range results {
		require.Equal(t, i, idx)
	}
}

func TestRun_emptyInput(t *testing.T) {
	results := pipeline.Run(context.Background(), nil,
		func(_ context.Context, _ domain.Candidate) string { return "never" },
		noRecovery,
		pipeline.Options{Concurrency: 4})

	require.Empty(t, results)
}
