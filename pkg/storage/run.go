package storage

import (
	"context"
	"time"

	"domaincheck/pkg/domain"
)

// RunTotals carries the aggregate figures written when a run reaches a
// terminal status.
type RunTotals struct {
	// ValidCount is the number of candidates with a VALID verdict.
	ValidCount int
	// Usage holds the run-wide resource accounting totals.
	Usage domain.UsageRecord
	// Report is the reconciliation outcome, nil when the run had no
	// ground-truth set.
	Report *domain.ReconciliationReport
}

// RunPage groups a page of runs together with an optional NextCursor used
// for pagination.
type RunPage struct {
	// Runs contains the current page of run records.
	Runs []domain.Run
	// NextCursor points to the timestamp to be used as the cursor for
	// fetching the next page. It is nil when there is no next page.
	NextCursor *time.Time
}

// RunStorage defines persistence operations for validation runs and their
// per-domain results.
type RunStorage interface {
	// StoreRun inserts a new run and returns the stored row as it exists in
	// the database (including generated fields).
	StoreRun(ctx context.Context, run domain.Run) (*domain.Run, error)
	// StoreResults inserts the per-domain results of a run.
	StoreResults(ctx context.Context, runID domain.RunID, results ...domain.ValidationResult) error
	// FinishRun moves a run to a terminal status and records its totals,
	// returning the updated row. Returns nil when the run does not exist or
	// is already terminal.
	FinishRun(ctx context.Context, runID domain.RunID, status domain.RunStatus, totals RunTotals) (*domain.Run, error)
	// RunByID fetches a run by its ID. Returns nil when not found.
	RunByID(ctx context.Context, runID domain.RunID) (*domain.Run, error)
	// Runs returns a page of runs created before the optional cursor time,
	// newest first, limited by limit.
	Runs(ctx context.Context, cursor time.Time, limit uint) (RunPage, error)
	// ResultsByRun fetches all stored results for a run in insertion order.
	ResultsByRun(ctx context.Context, runID domain.RunID) ([]domain.ValidationResult, error)
}
