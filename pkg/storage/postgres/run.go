package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"domaincheck/pkg/domain"
	"domaincheck/pkg/storage"
)

const (
	runsTable    = "runs"
	resultsTable = "results"
)

func (p *PgSQL) StoreRun(ctx context.Context, run domain.Run) (*domain.Run, error) {
	var pgRun PgRun
	if err := pgRun.FromDomain(run); err != nil {
		return nil, err
	}

	var row PgRun
	found, err := p.Builder.Insert(runsTable).
		Rows(pgRun).
		Returning(&PgRun{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not store run into pg: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("no row returned when storing run")
	}

	return row.ToDomain()
}

func (p *PgSQL) StoreResults(ctx context.Context, runID domain.RunID, results ...domain.ValidationResult) error {
	if len(results) == 0 {
		return nil
	}

	_, err := p.Builder.Insert(resultsTable).
		Rows(domainResultsToPg(runID, results)).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not store results into pg: %w", err)
	}

	return nil
}

// FinishRun moves a run from RUNNING to the given terminal status and writes
// its totals. Runs already in a terminal state are left untouched and nil is
// returned.
func (p *PgSQL) FinishRun(ctx context.Context,
	runID domain.RunID,
	status domain.RunStatus,
	totals storage.RunTotals) (*domain.Run, error) {
	usage, err := json.Marshal(totals.Usage)
	if err != nil {
		return nil, fmt.Errorf("could not marshal run usage: %w", err)
	}

	rec := goqu.Record{
		"status":      string(status),
		"valid_count": totals.ValidCount,
		"usage":       usage,
		"finished_at": goqu.L("CURRENT_TIMESTAMP"),
	}
	if totals.Report != nil {
		report, err := json.Marshal(totals.Report)
		if err != nil {
			return nil, fmt.Errorf("could not marshal run report: %w", err)
		}

		rec["report"] = report
	}

	var row PgRun
	found, err := p.Builder.Update(runsTable).
		Set(rec).Where(
		goqu.I("id").Eq(uuid.UUID(runID)),
		goqu.I("status").Eq(string(domain.RunStatusRunning)),
	).Returning(&PgRun{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not finish run in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// RunByID returns a run by its ID, or nil when it does not exist.
func (p *PgSQL) RunByID(ctx context.Context, runID domain.RunID) (*domain.Run, error) {
	var row PgRun
	found, err := p.Builder.From(runsTable).
		Where(goqu.I("id").Eq(uuid.UUID(runID))).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch run by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// Runs returns a page of runs created before the optional cursor, newest
// first.
func (p *PgSQL) Runs(ctx context.Context, cursor time.Time, limit uint) (storage.RunPage, error) {
	w := []goqu.Expression{}
	if !cursor.IsZero() {
		w = append(w, goqu.I("created_at").Lt(cursor))
	}

	// fetch one extra to determine if there is a next page
	fetch := limit + 1
	ds := p.Builder.From(runsTable).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(fetch)

	var rows []PgRun
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.RunPage{}, fmt.Errorf("could not fetch runs from pg: %w", err)
	}

	var nextCursor *time.Time
	if uint(len(rows)) > limit {
		trimmed := rows[:limit]
		nextCursor = &trimmed[len(trimmed)-1].CreatedAt
		rows = trimmed
	}

	domainRows, err := pgRunsToDomain(rows)
	if err != nil {
		return storage.RunPage{}, err
	}

	return storage.RunPage{
		Runs:       domainRows,
		NextCursor: nextCursor,
	}, nil
}

// ResultsByRun returns all stored results of a run in insertion order.
func (p *PgSQL) ResultsByRun(ctx context.Context, runID domain.RunID) ([]domain.ValidationResult, error) {
	var rows []PgResult
	if err := p.Builder.From(resultsTable).
		Where(goqu.I("run_id").Eq(uuid.UUID(runID))).
		Order(goqu.I("id").Asc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch results from pg: %w", err)
	}

	out := make([]domain.ValidationResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}

	return out, nil
}
