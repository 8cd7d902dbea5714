package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"domaincheck/internal/config"
	"domaincheck/pkg/domain"
	"domaincheck/pkg/logger"
	"domaincheck/pkg/storage"
)

// runsCommand constructs the 'runs' subcommand listing persisted runs,
// newest first, one page at a time.
func runsCommand(cfg *config.Config) *cobra.Command {
	var (
		limit  uint
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Lists persisted validation runs, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			var before time.Time
			if cursor != "" {
				var err error
				before, err = time.Parse(time.RFC3339Nano, cursor)
				if err != nil {
					logger.Fatal(ctx, "could not parse cursor", zap.String("cursor", cursor), zap.Error(err))
				}
			}

			page, err := strg.Runs(ctx, before, limit)
			if err != nil {
				logger.Fatal(ctx, "could not list runs", zap.Error(err))
			}

			renderRuns(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().UintVar(&limit, "limit", 20, "Maximum number of runs per page")
	cmd.Flags().StringVar(&cursor, "cursor", "", "RFC3339 timestamp from a previous page to continue after")

	return cmd
}

// runCommand constructs the 'run' subcommand showing one persisted run and
// its per-domain results.
func runCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Shows one persisted run and its per-domain results",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			id, err := uuid.Parse(args[0])
			if err != nil {
				logger.Fatal(ctx, "could not parse run id", zap.String("id", args[0]), zap.Error(err))
			}

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			run, err := strg.RunByID(ctx, domain.RunID(id))
			if err != nil {
				logger.Fatal(ctx, "could not fetch run", zap.Error(err))
			}
			if run == nil {
				logger.Fatal(ctx, "run not found", zap.String("id", args[0]))
			}

			results, err := strg.ResultsByRun(ctx, run.ID)
			if err != nil {
				logger.Fatal(ctx, "could not fetch run results", zap.Error(err))
			}

			renderRun(cmd.OutOrStdout(), *run, results)
		},
	}
}

func renderRuns(w io.Writer, page storage.RunPage) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tSTATUS\tCANDIDATES\tVALID\tCREATED")
	for _, run := range page.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID, run.Company, run.Status,
			run.CandidateCount, run.ValidCount,
			run.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()

	if page.NextCursor != nil {
		fmt.Fprintf(w, "\nnext page: --cursor %s\n", page.NextCursor.Format(time.RFC3339Nano))
	}
}

func renderRun(w io.Writer, run domain.Run, results []domain.ValidationResult) {
	fmt.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "Company:    %s\n", run.Company)
	fmt.Fprintf(w, "Status:     %s\n", run.Status)
	fmt.Fprintf(w, "Candidates: %d (%d valid)\n", run.CandidateCount, run.ValidCount)
	fmt.Fprintf(w, "Usage:      %d prompt / %d completion tokens, %d credits, $%.4f\n",
		run.Usage.PromptTokens, run.Usage.CompletionTokens, run.Usage.SearchCredits, run.Usage.CostUSD)
	if run.Report != nil {
		fmt.Fprintf(w, "Reconciled: %d common, %d missing, %d new\n",
			len(run.Report.Common), len(run.Report.MissingFromGroundTruth), len(run.Report.NewlyDiscovered))
	}

	if len(results) == 0 {
		return
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tVERDICT\tREASON\tEVIDENCE\tCLARITY")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			res.Domain, res.Verdict, res.Reason, res.EvidenceLink, res.Clarity)
	}
	_ = tw.Flush()
}
