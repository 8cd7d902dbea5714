package domain

// Verdict represents the final validation outcome for a candidate domain.
type Verdict string

const (
	// VerdictValid indicates the domain is affiliated with the target company.
	VerdictValid Verdict = "VALID"
	// VerdictInvalid indicates the domain is not affiliated, unreachable, or
	// failed validation; see ValidationResult.Reason for details.
	VerdictInvalid Verdict = "INVALID"
	// VerdictUnknown indicates the pipeline could not reach a terminal
	// decision for the domain.
	VerdictUnknown Verdict = "UNKNOWN"
)

// OwnershipClarity reports whether the evidence unambiguously named the
// exact candidate domain, as opposed to only a related host or subdomain.
type OwnershipClarity string

const (
	// ClarityClear means the exact domain appeared in the evidence links.
	ClarityClear OwnershipClarity = "CLEAR"
	// ClarityUnclear means only a subdomain or related reference appeared.
	ClarityUnclear OwnershipClarity = "UNCLEAR"
)

// ValidationResult is the immutable outcome of the validation pipeline for a
// single candidate. Exactly one result is produced per candidate per run.
type ValidationResult struct {
	// Domain is the candidate this result belongs to.
	Domain Candidate `json:"domain"`
	// Verdict is the terminal validation decision.
	Verdict Verdict `json:"verdict"`
	// Reason is a human-readable explanation, always populated for
	// non-valid verdicts (e.g. "no search results", "redirected to x.com").
	Reason string `json:"reason,omitempty"`
	// EvidenceLink is the best-ranked evidence URL supporting the verdict,
	// when search evidence was gathered.
	EvidenceLink string `json:"evidenceLink,omitempty"`
	// Clarity qualifies a verdict with whether the exact domain was named
	// in evidence. Empty when no clarity check ran.
	Clarity OwnershipClarity `json:"ownershipClarity,omitempty"`
}
