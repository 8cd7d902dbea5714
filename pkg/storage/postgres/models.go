package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"domaincheck/pkg/domain"
)

type PgRun struct {
	ID uuid.UUID `db:"id" goqu:"skipinsert"`

	Company        string `db:"company"`
	Status         string `db:"status"`
	CandidateCount int    `db:"candidate_count"`
	ValidCount     int    `db:"valid_count"`

	Usage  json.RawMessage `db:"usage"`
	Report json.RawMessage `db:"report"`

	CreatedAt  time.Time    `db:"created_at"  goqu:"skipinsert"`
	FinishedAt sql.NullTime `db:"finished_at" goqu:"skipinsert"`
}

func (p *PgRun) ToDomain() (*domain.Run, error) {
	var usage domain.UsageRecord
	if len(p.Usage) > 0 {
		if err := json.Unmarshal(p.Usage, &usage); err != nil {
			return nil, fmt.Errorf("could not unmarshal run usage: %w", err)
		}
	}

	var report *domain.ReconciliationReport
	if len(p.Report) > 0 {
		report = &domain.ReconciliationReport{}
		if err := json.Unmarshal(p.Report, report); err != nil {
			return nil, fmt.Errorf("could not unmarshal run report: %w", err)
		}
	}

	return &domain.Run{
		ID:             domain.RunID(p.ID),
		Company:        p.Company,
		Status:         domain.RunStatus(p.Status),
		CandidateCount: p.CandidateCount,
		ValidCount:     p.ValidCount,
		Usage:          usage,
		Report:         report,
		CreatedAt:      p.CreatedAt,
		FinishedAt:     p.FinishedAt.Time,
	}, nil
}

func (p *PgRun) FromDomain(run domain.Run) error {
	usage, err := json.Marshal(run.Usage)
	if err != nil {
		return fmt.Errorf("could not marshal run usage: %w", err)
	}

	var report json.RawMessage
	if run.Report != nil {
		report, err = json.Marshal(run.Report)
		if err != nil {
			return fmt.Errorf("could not marshal run report: %w", err)
		}
	}

	*p = PgRun{
		ID:             uuid.UUID(run.ID),
		Company:        run.Company,
		Status:         string(run.Status),
		CandidateCount: run.CandidateCount,
		ValidCount:     run.ValidCount,
		Usage:          usage,
		Report:         report,
		CreatedAt:      run.CreatedAt,
		FinishedAt: sql.NullTime{
			Time:  run.FinishedAt,
			Valid: !run.FinishedAt.IsZero(),
		},
	}

	return nil
}

type PgResult struct {
	ID    int64     `db:"id" goqu:"skipinsert"`
	RunID uuid.UUID `db:"run_id"`

	Domain       string         `db:"domain"`
	Verdict      string         `db:"verdict"`
	Reason       sql.NullString `db:"reason"`
	EvidenceLink sql.NullString `db:"evidence_link"`
	Clarity      sql.NullString `db:"clarity"`

	CreatedAt time.Time `db:"created_at" goqu:"skipinsert"`
}

func (p *PgResult) ToDomain() domain.ValidationResult {
	return domain.ValidationResult{
		Domain:       domain.Candidate(p.Domain),
		Verdict:      domain.Verdict(p.Verdict),
		Reason:       p.Reason.String,
		EvidenceLink: p.EvidenceLink.String,
		Clarity:      domain.OwnershipClarity(p.Clarity.String),
	}
}

func (p *PgResult) FromDomain(runID domain.RunID, res domain.ValidationResult) {
	*p = PgResult{
		RunID:   uuid.UUID(runID),
		Domain:  res.Domain.String(),
		Verdict: string(res.Verdict),
		Reason: sql.NullString{
			String: res.Reason,
			Valid:  res.Reason != "",
		},
		EvidenceLink: sql.NullString{
			String: res.EvidenceLink,
			Valid:  res.EvidenceLink != "",
		},
		Clarity: sql.NullString{
			String: string(res.Clarity),
			Valid:  res.Clarity != "",
		},
	}
}

func domainResultsToPg(runID domain.RunID, results []domain.ValidationResult) []PgResult {
	out := make([]PgResult, len(results))
	for i := range out {
		out[i].FromDomain(runID, results[i])
	}

	return out
}

func pgRunsToDomain(runs []PgRun) ([]domain.Run, error) {
	out := make([]domain.Run, 0, len(runs))
	for _, run := range runs {
		d, err := run.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}
