package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"domaincheck/internal/config"
	"domaincheck/internal/export"
	"domaincheck/internal/normalize"
	"domaincheck/internal/ops"
	"domaincheck/internal/pipeline"
	"domaincheck/internal/reconcile"
	"domaincheck/internal/usage"
	"domaincheck/internal/validate"
	"domaincheck/pkg/domain"
	"domaincheck/pkg/llm/azureoai"
	"domaincheck/pkg/logger"
	"domaincheck/pkg/metrics"
	"domaincheck/pkg/reach"
	"domaincheck/pkg/search/serper"
	"domaincheck/pkg/storage"
	"domaincheck/pkg/translate"
	"domaincheck/pkg/translate/libre"
)

func validateCommand(cfg *config.Config) *cobra.Command {
	var (
		company         string
		inputPath       string
		groundTruthPath string
		outputPath      string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validates candidate domains against a company and exports the results",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runValidation(ctx, cfg, company, inputPath, groundTruthPath, outputPath)
		},
	}

	cmd.Flags().StringVar(&company, "company", "", "Company name the candidates belong to")
	cmd.Flags().StringVar(&inputPath, "input", "", "File with one candidate domain per line")
	cmd.Flags().StringVar(&groundTruthPath, "ground-truth", "", "Optional file with the expected valid domains")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "results.xlsx", "Output xlsx path")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// setupOps starts the optional metrics/pprof listener and returns the
// validation instruments plus a shutdown function.
func setupOps(ctx context.Context, cfg *config.Config) (*metrics.Validation, func(ctx context.Context)) {
	if cfg.Metrics.Addr == "" {
		return nil, func(context.Context) {}
	}

	server, mp, err := ops.NewServer(ops.Options{
		Addr:        cfg.Metrics.Addr,
		MetricsPath: cfg.Metrics.Path,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create ops server", zap.Error(err))
	}

	instruments, err := metrics.NewValidation(mp)
	if err != nil {
		logger.Fatal(ctx, "could not create validation instruments", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting ops server...", zap.String("addr", cfg.Metrics.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start ops server", zap.Error(err))
			}
		}
	}()

	return instruments, func(ctx context.Context) {
		logger.Info(ctx, "stopping ops server...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop ops server", zap.Error(err))
		}
	}
}

// newValidator wires the external service clients into a validator.
func newValidator(cfg *config.Config, company string, instruments *metrics.Validation) *validate.Validator {
	checker := reach.New(&http.Client{}, reach.Options{
		Timeout:     cfg.Reachability.Timeout,
		MaxAttempts: cfg.Reachability.MaxAttempts,
		RetryDelay:  cfg.Reachability.RetryDelay,
	})

	searcher := serper.New(&http.Client{}, cfg.Search.APIKey, serper.Options{
		Endpoint:          cfg.Search.Endpoint,
		RequestsPerSecond: cfg.Search.RequestsPerSecond,
		RateLimitBackoff:  cfg.Search.RateLimitBackoff,
	})

	model := azureoai.New(&http.Client{}, cfg.LLM.APIKey, azureoai.Options{
		Endpoint:   cfg.LLM.Endpoint,
		Deployment: cfg.LLM.Deployment,
		APIVersion: cfg.LLM.APIVersion,
	})

	var translator translate.Client
	if cfg.Translate.Endpoint != "" {
		translator = libre.New(&http.Client{}, cfg.Translate.Endpoint, cfg.Translate.APIKey)
	}

	return validate.New(validate.Deps{
		Reach:     checker,
		Search:    searcher,
		LLM:       model,
		Translate: translator,
		Metrics:   instruments,
	}, validate.Options{
		Company:              company,
		ResultsPerPage:       cfg.Search.ResultsPerPage,
		MaxPages:             cfg.Search.MaxPages,
		ConfirmOwnership:     cfg.Validator.ConfirmOwnership,
		ConfirmRegionalRetry: cfg.Validator.ConfirmRegionalRetry,
	})
}

// readDomainList loads one domain per line, skipping blank lines.
func readDomainList(ctx context.Context, path string) []string {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal(ctx, "could not read domain list", zap.String("path", path), zap.Error(err))
	}

	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}

// logProgress reports pool progress at every 10% boundary.
func logProgress(ctx context.Context, phase string) func(done, total int) {
	step := 1

	return func(done, total int) {
		if step == 1 && total >= 20 {
			step = total / 10
		}
		if done%step == 0 || done == total {
			logger.Info(ctx, "validation progress",
				zap.String("phase", phase),
				zap.Int("done", done),
				zap.Int("total", total))
		}
	}
}

func runValidation(ctx context.Context, cfg *config.Config, company, inputPath, groundTruthPath, outputPath string) {
	normalizer := normalize.New(cfg.Validator.ExtraDenylist...)

	raw := readDomainList(ctx, inputPath)
	candidates := normalizer.Dedupe(raw)
	logger.Info(ctx, "candidates loaded",
		zap.String("company", company),
		zap.Int("raw", len(raw)),
		zap.Int("candidates", len(candidates)))
	if len(candidates) == 0 {
		logger.Fatal(ctx, "no usable candidates in input", zap.String("path", inputPath))
	}

	instruments, stopOps := setupOps(ctx, cfg)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
		defer cancel()

		stopOps(shutdownCtx)
	}()

	var strg storage.Storage
	var run *domain.Run
	if cfg.Database.Enabled {
		pg, closeStrg := getPostgres(ctx, cfg)
		defer closeStrg()
		strg = pg

		var err error
		run, err = strg.StoreRun(ctx, domain.Run{
			Company:        company,
			Status:         domain.RunStatusRunning,
			CandidateCount: len(candidates),
		})
		if err != nil {
			logger.Fatal(ctx, "could not store run", zap.Error(err))
		}
		ctx = logger.WithFields(ctx, zap.String("run_id", run.ID.String()))
	}

	validator := newValidator(cfg, company, instruments)

	// phase one: drop unreachable candidates
	reachOutcomes := pipeline.Run(ctx, candidates, validator.CheckReachability, validate.Recovered,
		pipeline.Options{
			Concurrency: cfg.Pipeline.ReachabilityConcurrency,
			ChunkSize:   cfg.Pipeline.ChunkSize,
			OnProgress:  logProgress(ctx, "reachability"),
		})

	var acc usage.Accumulator
	resultFor := make(map[domain.Candidate]domain.ValidationResult, len(candidates))
	var survivors []domain.Candidate
	for i, out := range reachOutcomes {
		acc.Add(out.Usage)
		if out.Result.Verdict == domain.VerdictValid {
			survivors = append(survivors, candidates[i])
		} else {
			resultFor[candidates[i]] = out.Result
		}
	}
	logger.Info(ctx, "reachability phase finished",
		zap.Int("reachable", len(survivors)),
		zap.Int("unreachable", len(candidates)-len(survivors)))

	// phase two: classify ownership of the reachable ones
	ownershipOutcomes := pipeline.Run(ctx, survivors, validator.ClassifyOwnership, validate.Recovered,
		pipeline.Options{
			Concurrency: cfg.Pipeline.OwnershipConcurrency,
			ChunkSize:   cfg.Pipeline.ChunkSize,
			OnProgress:  logProgress(ctx, "ownership"),
		})
	for i, out := range ownershipOutcomes {
		acc.Add(out.Usage)
		resultFor[survivors[i]] = out.Result
	}

	results := make([]domain.ValidationResult, 0, len(candidates))
	var validDomains []domain.Candidate
	for _, c := range candidates {
		res := resultFor[c]
		results = append(results, res)
		if res.Verdict == domain.VerdictValid {
			validDomains = append(validDomains, c)
		}
	}

	var report *domain.ReconciliationReport
	if groundTruthPath != "" {
		groundTruth := normalizer.Dedupe(readDomainList(ctx, groundTruthPath))
		r := reconcile.Reconcile(groundTruth, validDomains, len(candidates)-len(validDomains), len(candidates))
		report = &r
		logger.Info(ctx, "reconciliation finished",
			zap.Int("common", len(r.Common)),
			zap.Int("missing", len(r.MissingFromGroundTruth)),
			zap.Int("new", len(r.NewlyDiscovered)),
			zap.Float64("accuracy_pct", r.AccuracyPct))
	}

	totals := acc.TotalWithCost(domain.CostRates{
		InputPer1K:  cfg.LLM.CostInputPer1K,
		OutputPer1K: cfg.LLM.CostOutputPer1K,
	})
	logger.Info(ctx, "validation finished",
		zap.Int("valid", len(validDomains)),
		zap.Int("invalid", len(candidates)-len(validDomains)),
		zap.Int("prompt_tokens", totals.PromptTokens),
		zap.Int("completion_tokens", totals.CompletionTokens),
		zap.Int("search_credits", totals.SearchCredits),
		zap.Float64("cost_usd", totals.CostUSD))

	if err := export.WriteWorkbook(outputPath, export.Report{
		Company:        company,
		Results:        results,
		Reconciliation: report,
		Usage:          totals,
	}); err != nil {
		logger.Fatal(ctx, "could not export results", zap.Error(err))
	}
	logger.Info(ctx, "results exported", zap.String("path", outputPath))

	if strg != nil {
		err := strg.WithTx(ctx, func(s storage.AllStorage) error {
			if err := s.StoreResults(ctx, run.ID, results...); err != nil {
				return err
			}
			_, err := s.FinishRun(ctx, run.ID, domain.RunStatusCompleted, storage.RunTotals{
				ValidCount: len(validDomains),
				Usage:      totals,
				Report:     report,
			})

			return err
		})
		if err != nil {
			logger.Fatal(ctx, "could not persist run", zap.Error(err))
		}
		logger.Info(ctx, "run persisted", zap.String("run_id", run.ID.String()))
	}
}
