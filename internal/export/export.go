// Package export writes the outcome of a validation run to an xlsx workbook
// with per-domain results, the ground-truth reconciliation and the usage
// totals on separate sheets.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"domaincheck/pkg/domain"
)

const (
	resultsSheet        = "Results"
	reconciliationSheet = "Reconciliation"
	usageSheet          = "Usage"
)

// Report is everything a finished run wants written out. Reconciliation is
// nil when the run had no ground-truth set; the sheet is then omitted.
type Report struct {
	Company        string
	Results        []domain.ValidationResult
	Reconciliation *domain.ReconciliationReport
	Usage          domain.UsageRecord
}

// WriteWorkbook renders the report into an xlsx file at path, overwriting
// any existing file.
func WriteWorkbook(path string, rep Report) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("could not rename results sheet: %w", err)
	}
	if err := writeResults(f, rep.Results); err != nil {
		return err
	}

	if rep.Reconciliation != nil {
		if _, err := f.NewSheet(reconciliationSheet); err != nil {
			return fmt.Errorf("could not create reconciliation sheet: %w", err)
		}
		if err := writeReconciliation(f, *rep.Reconciliation); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(usageSheet); err != nil {
		return fmt.Errorf("could not create usage sheet: %w", err)
	}
	if err := writeUsage(f, rep.Company, rep.Usage); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("could not save workbook: %w", err)
	}

	return nil
}

func writeResults(f *excelize.File, results []domain.ValidationResult) error {
	rows := [][]any{
		{"Domain", "Verdict", "Reason", "Evidence Link", "Ownership Clarity"},
	}
	for _, res := range results {
		rows = append(rows, []any{
			res.Domain.String(),
			string(res.Verdict),
			res.Reason,
			res.EvidenceLink,
			string(res.Clarity),
		})
	}

	return setRows(f, resultsSheet, rows)
}

func writeReconciliation(f *excelize.File, report domain.ReconciliationReport) error {
	rows := [][]any{
		{"Common", "Missing From Ground Truth", "Newly Discovered"},
	}
	height := max(len(report.Common), len(report.MissingFromGroundTruth), len(report.NewlyDiscovered))
	for i := range height {
		rows = append(rows, []any{
			candidateAt(report.Common, i),
			candidateAt(report.MissingFromGroundTruth, i),
			candidateAt(report.NewlyDiscovered, i),
		})
	}

	accuracy := any("N/A")
	errorPct := any("N/A")
	if report.AccuracyDefined {
		accuracy = report.AccuracyPct
		errorPct = report.ErrorPct
	}
	rows = append(rows,
		[]any{},
		[]any{"Accuracy (%)", accuracy},
		[]any{"Error (%)", errorPct},
	)

	return setRows(f, reconciliationSheet, rows)
}

func writeUsage(f *excelize.File, company string, usage domain.UsageRecord) error {
	rows := [][]any{
		{"Company", company},
		{"Total Prompt Tokens", usage.PromptTokens},
		{"Total Completion Tokens", usage.CompletionTokens},
		{"Total Search Credits", usage.SearchCredits},
		{"Total Cost (USD)", usage.CostUSD},
	}

	return setRows(f, usageSheet, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("could not compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("could not write row %d of %s: %w", i+1, sheet, err)
		}
	}

	return nil
}

func candidateAt(cs []domain.Candidate, i int) string {
	if i >= len(cs) {
		return ""
	}

	return cs[i].String()
}
