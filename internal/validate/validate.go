// Package validate decides, for each candidate domain, whether it belongs to
// the target company. Candidates first pass a reachability phase, then an
// ownership phase that gathers search evidence and asks a completion model
// for a verdict. Every failure mode resolves into a terminal result; workers
// never surface errors to the pool.
package validate

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"domaincheck/internal/pipeline"
	"domaincheck/pkg/domain"
	"domaincheck/pkg/llm"
	"domaincheck/pkg/logger"
	"domaincheck/pkg/metrics"
	"domaincheck/pkg/reach"
	"domaincheck/pkg/search"
	"domaincheck/pkg/translate"
)

// ReachabilityChecker is the reachability phase dependency.
type ReachabilityChecker interface {
	Check(ctx context.Context, rawURL string) reach.Result
}

// Deps are the external services a Validator calls. Translate may be nil,
// which disables the regional search retry. Metrics may be nil.
type Deps struct {
	Reach     ReachabilityChecker
	Search    search.Client
	LLM       llm.Client
	Translate translate.Client
	Metrics   *metrics.Validation
}

// Options tune validation behavior.
type Options struct {
	// Company is the company name candidates are validated against.
	Company string
	// ResultsPerPage and MaxPages bound evidence searches.
	ResultsPerPage int
	MaxPages       int
	// ConfirmOwnership enables the confirm pass on affirmative verdicts:
	// the exact domain must appear among evidence links or the verdict is
	// downgraded.
	ConfirmOwnership bool
	// ConfirmRegionalRetry lets the confirm pass issue the regional-language
	// search when the primary evidence lacks the exact domain and no
	// regional retry has run yet.
	ConfirmRegionalRetry bool
}

// Outcome pairs the terminal result of one candidate with the resources its
// validation consumed.
type Outcome struct {
	Result domain.ValidationResult
	Usage  domain.UsageRecord
}

// Validator runs the per-candidate validation phases. It is safe for
// concurrent use.
type Validator struct {
	deps Deps
	opts Options
}

// New constructs a Validator.
func New(deps Deps, opts Options) *Validator {
	if opts.ResultsPerPage <= 0 {
		opts.ResultsPerPage = 10
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}

	return &Validator{deps: deps, opts: opts}
}

// CheckReachability is the phase-one worker: it loads the candidate's URL
// and turns unreachable, redirected-away and for-sale domains into terminal
// invalid results.
func (v *Validator) CheckReachability(ctx context.Context, c domain.Candidate) Outcome {
	start := time.Now()

	res := v.deps.Reach.Check(ctx, c.URL())

	out := Outcome{Result: domain.ValidationResult{Domain: c, Verdict: domain.VerdictValid}}
	if !res.IsValid {
		out.Result.Verdict = domain.VerdictInvalid
		out.Result.Reason = res.Reason
	}

	v.deps.Metrics.ObserveTask(ctx, "reachability", res.IsValid, time.Since(start))

	return out
}

// ClassifyOwnership is the phase-two worker: it gathers search evidence for
// the candidate and asks the completion model whether the domain belongs to
// the company.
func (v *Validator) ClassifyOwnership(ctx context.Context, c domain.Candidate) Outcome {
	start := time.Now()

	out := v.classify(ctx, c)

	v.deps.Metrics.ObserveTask(ctx, "ownership", out.Result.Verdict == domain.VerdictValid, time.Since(start))
	v.deps.Metrics.ObserveUsage(ctx, out.Usage)

	return out
}

// Recovered converts a panic raised by a worker into that candidate's
// terminal result, so one broken task never takes down the run.
func Recovered(c domain.Candidate, recovered any) Outcome {
	return Outcome{Result: domain.ValidationResult{
		Domain:  c,
		Verdict: domain.VerdictInvalid,
		Reason:  fmt.Sprintf("exception: %v", recovered),
	}}
}

var _ pipeline.Recovery[Outcome] = Recovered

func (v *Validator) classify(ctx context.Context, c domain.Candidate) Outcome {
	var usage domain.UsageRecord

	query := fmt.Sprintf("site:%s a part of %s?", c, v.opts.Company)

	ev, retried := v.gatherEvidence(ctx, c, query, &usage)
	if ev.Empty() {
		return Outcome{
			Result: domain.ValidationResult{Domain: c, Verdict: domain.VerdictInvalid, Reason: "no search results"},
			Usage:  usage,
		}
	}

	completion, err := v.deps.LLM.Complete(ctx, classifyPrompt(c, v.opts.Company, ev.Links))
	if err != nil {
		return Outcome{
			Result: domain.ValidationResult{
				Domain:  c,
				Verdict: domain.VerdictInvalid,
				Reason:  fmt.Sprintf("ownership classification failed: %v", err),
			},
			Usage: usage,
		}
	}
	usage.PromptTokens += completion.PromptTokens
	usage.CompletionTokens += completion.CompletionTokens

	verdict, err := llm.ParseVerdict(completion.Text)
	if err != nil {
		logger.Warn(ctx, "malformed classifier output",
			zap.String("domain", c.String()),
			zap.Error(err))

		return Outcome{
			Result: domain.ValidationResult{Domain: c, Verdict: domain.VerdictInvalid, Reason: "malformed classifier output"},
			Usage:  usage,
		}
	}

	if !verdict.Affirmative() {
		reason := verdict.Detail
		if reason == "" {
			reason = "not affiliated with the company"
		}

		return Outcome{
			Result: domain.ValidationResult{
				Domain:  c,
				Verdict: domain.VerdictInvalid,
				Reason:  reason,
				Clarity: domain.ClarityClear,
			},
			Usage: usage,
		}
	}

	result := domain.ValidationResult{
		Domain:       c,
		Verdict:      domain.VerdictValid,
		EvidenceLink: verdict.Detail,
		Clarity:      domain.ClarityClear,
	}

	if v.opts.ConfirmOwnership && !linksNameExactDomain(ev.Links, c) {
		if v.opts.ConfirmRegionalRetry && !retried {
			if regional, ok := v.regionalEvidence(ctx, c, query, &usage); ok && linksNameExactDomain(regional.Links, c) {
				return Outcome{Result: result, Usage: usage}
			}
		}

		result.Verdict = domain.VerdictInvalid
		result.Reason = "no evidence names the exact domain"
		result.Clarity = domain.ClarityUnclear

		return Outcome{Result: result, Usage: usage}
	}

	return Outcome{Result: result, Usage: usage}
}

// gatherEvidence runs the affiliation search, falling back to the
// regional-language query exactly once when the English query finds nothing
// and the candidate has a recognized country-code TLD. The returned flag
// reports whether the regional retry ran.
func (v *Validator) gatherEvidence(ctx context.Context, c domain.Candidate, query string, usage *domain.UsageRecord) (search.Evidence, bool) {
	ev, err := search.Collect(ctx, v.deps.Search, query, v.opts.ResultsPerPage, v.opts.MaxPages)
	usage.SearchCredits += ev.Credits
	if err != nil {
		logger.Warn(ctx, "evidence search failed",
			zap.String("domain", c.String()),
			zap.Error(err))
		ev = search.Evidence{}
	}
	if !ev.Empty() {
		return ev, false
	}

	regional, ok := v.regionalEvidence(ctx, c, query, usage)
	if !ok {
		return ev, false
	}

	return regional, true
}

// regionalEvidence re-issues the query translated into the candidate's
// ccTLD language. ok is false when the candidate has no recognized regional
// language, translation is disabled, or the retry itself failed.
func (v *Validator) regionalEvidence(ctx context.Context, c domain.Candidate, query string, usage *domain.UsageRecord) (search.Evidence, bool) {
	if v.deps.Translate == nil {
		return search.Evidence{}, false
	}
	lang := RegionalLanguage(c.Suffix())
	if lang == "" {
		return search.Evidence{}, false
	}

	tr, err := v.deps.Translate.Translate(ctx, query, lang)
	if err != nil {
		logger.Warn(ctx, "query translation failed",
			zap.String("domain", c.String()),
			zap.String("lang", lang),
			zap.Error(err))

		return search.Evidence{}, false
	}
	if !tr.Translated {
		return search.Evidence{}, false
	}

	ev, err := search.Collect(ctx, v.deps.Search, tr.Text, v.opts.ResultsPerPage, v.opts.MaxPages)
	usage.SearchCredits += ev.Credits
	if err != nil {
		logger.Warn(ctx, "regional evidence search failed",
			zap.String("domain", c.String()),
			zap.String("lang", lang),
			zap.Error(err))

		return search.Evidence{}, false
	}

	return ev, true
}

// classifyPrompt asks for the strict array verdict the parser understands.
func classifyPrompt(c domain.Candidate, company string, links []string) string {
	var b strings.Builder
	b.WriteString("Using the search results provided:\n\n")
	for _, link := range links {
		b.WriteString("- ")
		b.WriteString(link)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, `
Determine if %s is related to %s as an official domain, brand, sub-brand, entity, acquisition, or a significant partnership.
Focus exclusively on information relevant to domain ownership and company affiliations. Be meticulous in validating the source of each piece of data. If no definitive information is available, answer "No". Speculative answers will be penalized.
Cite the exact source that confirms the nature of the relationship.
Respond with only a JSON array of the form ["%s", "Yes/No", "Source URL if Yes, reason if No"].`,
		c, company, c)

	return b.String()
}

// linksNameExactDomain reports whether any evidence link is hosted on the
// candidate domain itself. A www prefix counts; any other subdomain does not.
func linksNameExactDomain(links []string, c domain.Candidate) bool {
	want := strings.ToLower(c.String())
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if host == want || host == "www."+want {
			return true
		}
	}

	return false
}
