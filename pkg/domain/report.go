package domain

// ReconciliationReport captures the set relationships between the
// validated-valid domains of a run and an externally supplied ground-truth
// set, plus derived accuracy metrics. It is always recomputed from the two
// sets it reconciles and never treated as a source of truth.
type ReconciliationReport struct {
	// Common holds domains present in both the ground truth and the
	// validated-valid set.
	Common []Candidate `json:"common"`
	// MissingFromGroundTruth holds ground-truth domains the run failed to
	// validate.
	MissingFromGroundTruth []Candidate `json:"missingFromGroundTruth"`
	// NewlyDiscovered holds validated-valid domains absent from the ground
	// truth.
	NewlyDiscovered []Candidate `json:"newlyDiscovered"`

	// AccuracyPct is (|common| + |new|) / (|groundTruth| + |new|) * 100.
	// Meaningful only when AccuracyDefined is true.
	AccuracyPct float64 `json:"accuracyPct"`
	// AccuracyDefined is false when both the ground truth and the newly
	// discovered set are empty, which makes the accuracy ratio undefined.
	AccuracyDefined bool `json:"accuracyDefined"`
	// ErrorPct is |invalid verdicts| / |all candidates| * 100, zero when the
	// run had no candidates.
	ErrorPct float64 `json:"errorPct"`
}
