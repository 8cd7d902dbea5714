// Package reconcile compares validated domains against an expected
// ground-truth set and derives the accuracy figures for a run.
package reconcile

import (
	"sort"

	"domaincheck/pkg/domain"
)

// Reconcile partitions the validated domains against the ground-truth set
// and computes the accuracy figures. Output slices are sorted for stable
// reports.
//
// Accuracy counts newly discovered domains as correct findings:
//
//	(|common| + |new|) / (|groundTruth| + |new|) * 100
//
// When both sets are empty the ratio has no meaning; the report then carries
// 100 with AccuracyDefined=false.
//
// The error rate is a property of the run, not of the two sets: it is the
// share of candidates that ended with an invalid verdict, so the caller
// passes the invalid and total counts in.
func Reconcile(groundTruth, valid []domain.Candidate, invalid, total int) domain.ReconciliationReport {
	gtd := domain.NewCandidateSet(groundTruth...)
	validSet := domain.NewCandidateSet(valid...)

	var common, missing, fresh []domain.Candidate
	for c := range validSet {
		if gtd.Contains(c) {
			common = append(common, c)
		} else {
			fresh = append(fresh, c)
		}
	}
	for c := range gtd {
		if !validSet.Contains(c) {
			missing = append(missing, c)
		}
	}

	sortCandidates(common)
	sortCandidates(missing)
	sortCandidates(fresh)

	report := domain.ReconciliationReport{
		Common:                 common,
		MissingFromGroundTruth: missing,
		NewlyDiscovered:        fresh,
	}

	if total > 0 {
		report.ErrorPct = float64(invalid) / float64(total) * 100
	}

	denominator := len(gtd) + len(fresh)
	if denominator == 0 {
		report.AccuracyPct = 100.0
		report.AccuracyDefined = false

		return report
	}

	report.AccuracyDefined = true
	report.AccuracyPct = float64(len(common)+len(fresh)) / float64(denominator) * 100

	return report
}

func sortCandidates(cs []domain.Candidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
}
