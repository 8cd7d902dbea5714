package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunID uniquely identifies a validation run.
// It wraps uuid.UUID to provide type safety at the domain layer.
type RunID uuid.UUID

// NewRunID returns a fresh random run identifier.
func NewRunID() RunID { return RunID(uuid.New()) }

// String renders the run ID in its canonical uuid form.
func (id RunID) String() string { return uuid.UUID(id).String() }

// RunStatus represents the lifecycle state of a validation run.
type RunStatus string

const (
	// RunStatusRunning indicates the run is still validating candidates.
	RunStatusRunning RunStatus = "RUNNING"
	// RunStatusCompleted indicates the run finished and totals are final.
	RunStatusCompleted RunStatus = "COMPLETED"
	// RunStatusFailed indicates the run aborted before producing totals.
	RunStatusFailed RunStatus = "FAILED"
)

// Run represents one validation batch for a company: the candidate count it
// started from, its lifecycle state, and the aggregate outcome once
// completed.
type Run struct {
	// ID is the unique identifier of the run.
	ID RunID `json:"id"`
	// Company is the target company the candidates were validated against.
	Company string `json:"company"`
	// Status is the current lifecycle state of the run.
	Status RunStatus `json:"status"`

	// CandidateCount is the number of deduplicated candidates dispatched.
	CandidateCount int `json:"candidateCount"`
	// ValidCount is the number of candidates with a VALID verdict.
	ValidCount int `json:"validCount"`

	// Usage holds the run-wide resource accounting totals.
	Usage UsageRecord `json:"usage"`
	// Report holds the reconciliation outcome when a ground-truth set was
	// supplied; nil otherwise.
	Report *ReconciliationReport `json:"report,omitempty"`

	// CreatedAt is when the run was started.
	CreatedAt time.Time `json:"createdAt"`
	// FinishedAt is when the run reached a terminal status; zero while
	// running.
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}
