// Package metrics holds the OpenTelemetry instruments recorded during a
// validation run, plus shared histogram buckets.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"domaincheck/pkg/domain"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// Validation bundles the instruments recorded while validating candidate
// domains. A nil *Validation is a valid no-op recorder, so call sites do not
// need to guard on metrics being enabled.
type Validation struct {
	tasks            metric.Int64Counter
	taskDuration     metric.Float64Histogram
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
	searchCredits    metric.Int64Counter
}

// NewValidation registers the validation instruments on the given provider.
func NewValidation(mp metric.MeterProvider) (*Validation, error) {
	meter := mp.Meter("domaincheck")

	tasks, err := meter.Int64Counter("validation_tasks_total",
		metric.WithDescription("Completed validation tasks, by phase and outcome."))
	if err != nil {
		return nil, fmt.Errorf("could not create tasks counter: %w", err)
	}
	taskDuration, err := meter.Float64Histogram("validation_task_duration_seconds",
		metric.WithDescription("Validation task duration, by phase."),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create task duration histogram: %w", err)
	}
	promptTokens, err := meter.Int64Counter("llm_prompt_tokens_total",
		metric.WithDescription("LLM prompt tokens consumed."))
	if err != nil {
		return nil, fmt.Errorf("could not create prompt tokens counter: %w", err)
	}
	completionTokens, err := meter.Int64Counter("llm_completion_tokens_total",
		metric.WithDescription("LLM completion tokens consumed."))
	if err != nil {
		return nil, fmt.Errorf("could not create completion tokens counter: %w", err)
	}
	searchCredits, err := meter.Int64Counter("search_credits_total",
		metric.WithDescription("Search API credits consumed."))
	if err != nil {
		return nil, fmt.Errorf("could not create search credits counter: %w", err)
	}

	return &Validation{
		tasks:            tasks,
		taskDuration:     taskDuration,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		searchCredits:    searchCredits,
	}, nil
}

// ObserveTask records one finished task for the given phase.
func (v *Validation) ObserveTask(ctx context.Context, phase string, valid bool, elapsed time.Duration) {
	if v == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.Bool("valid", valid),
	)
	v.tasks.Add(ctx, 1, attrs)
	v.taskDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("phase", phase)))
}

// ObserveUsage records the resource usage of one task.
func (v *Validation) ObserveUsage(ctx context.Context, rec domain.UsageRecord) {
	if v == nil || rec.IsZero() {
		return
	}

	v.promptTokens.Add(ctx, int64(rec.PromptTokens))
	v.completionTokens.Add(ctx, int64(rec.CompletionTokens))
	v.searchCredits.Add(ctx, int64(rec.SearchCredits))
}
