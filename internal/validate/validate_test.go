package validate_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"domaincheck/internal/validate"
	"domaincheck/pkg/domain"
	"domaincheck/pkg/llm"
	"domaincheck/pkg/logger"
	"domaincheck/pkg/reach"
	"domaincheck/pkg/search"
	"domaincheck/pkg/translate"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	os.Exit(m.Run())
}

type fakeReach struct {
	results map[string]reach.Result
}

func (f *fakeReach) Check(_ context.Context, rawURL string) reach.Result {
	res, ok := f.results[rawURL]
	if !ok {
		return reach.Result{IsValid: false, Reason: "page load failed: no fake response"}
	}

	return res
}

type fakeSearch struct {
	pages   map[string]search.Page
	err     error
	queries []string
}

func (f *fakeSearch) Search(_ context.Context, query string, _, _ int) (search.Page, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return search.Page{}, f.err
	}

	return f.pages[query], nil
}

type fakeLLM struct {
	completion llm.Completion
	err        error
	prompts    []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (llm.Completion, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return llm.Completion{}, f.err
	}

	return f.completion, nil
}

type fakeTranslate struct {
	langs []string
}

func (f *fakeTranslate) Translate(_ context.Context, text, targetLang string) (translate.Translation, error) {
	f.langs = append(f.langs, targetLang)

	return translate.Translation{Text: "[" + targetLang + "] " + text, Translated: true}, nil
}

func organicPage(links ...string) search.Page {
	p := search.Page{Credits: 1}
	for _, l := range links {
		p.Organic = append(p.Organic, search.OrganicResult{Link: l})
	}

	return p
}

func affirmative(c domain.Candidate, source string) llm.Completion {
	return llm.Completion{
		Text:             fmt.Sprintf(`["%s", "Yes", "%s"]`, c, source),
		PromptTokens:     100,
		CompletionTokens: 10,
	}
}

func TestValidator_CheckReachability(t *testing.T) {
	v := validate.New(validate.Deps{
		Reach: &fakeReach{results: map[string]reach.Result{
			"https://up.com":   {IsValid: true, FinalURL: "https://up.com"},
			"https://down.com": {IsValid: false, Reason: "HTTP status 503"},
		}},
	}, validate.Options{Company: "Acme Corp"})

	up := v.CheckReachability(context.Background(), "up.com")
	require.Equal(t, domain.VerdictValid, up.Result.Verdict)
	require.True(t, up.Usage.IsZero())

	down := v.CheckReachability(context.Background(), "down.com")
	require.Equal(t, domain.VerdictInvalid, down.Result.Verdict)
	require.Equal(t, "HTTP status 503", down.Result.Reason)
}

func TestValidator_ClassifyOwnership_valid(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme.com a part of Acme Corp?": organicPage("https://acme.com/about", "https://news.example.com/acme"),
	}}
	model := &fakeLLM{completion: affirmative("acme.com", "https://acme.com/about")}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp", ConfirmOwnership: true})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictValid, out.Result.Verdict)
	require.Equal(t, "https://acme.com/about", out.Result.EvidenceLink)
	require.Equal(t, domain.ClarityClear, out.Result.Clarity)

	require.Equal(t, 100, out.Usage.PromptTokens)
	require.Equal(t, 10, out.Usage.CompletionTokens)
	require.Equal(t, 1, out.Usage.SearchCredits)

	require.Len(t, model.prompts, 1)
	require.Contains(t, model.prompts[0], "https://acme.com/about")
	require.Contains(t, model.prompts[0], "Acme Corp")
}

func TestValidator_ClassifyOwnership_noEvidenceSkipsModel(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{}}
	model := &fakeLLM{completion: affirmative("acme.com", "x")}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Equal(t, "no search results", out.Result.Reason)
	require.Empty(t, model.prompts)
	require.Zero(t, out.Usage.PromptTokens)
}

func TestValidator_ClassifyOwnership_regionalRetry(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		// the English query finds nothing, the translated one does
		"[de] site:acme.de a part of Acme Corp?": organicPage("https://acme.de/ueber-uns"),
	}}
	model := &fakeLLM{completion: affirmative("acme.de", "https://acme.de/ueber-uns")}
	tr := &fakeTranslate{}

	v := validate.New(validate.Deps{Search: searcher, LLM: model, Translate: tr},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme.de")
	require.Equal(t, domain.VerdictValid, out.Result.Verdict)
	require.Equal(t, []string{"de"}, tr.langs)
	require.Len(t, searcher.queries, 2)
	require.Equal(t, "site:acme.de a part of Acme Corp?", searcher.queries[0])
	require.Equal(t, "[de] site:acme.de a part of Acme Corp?", searcher.queries[1])
}

func TestValidator_ClassifyOwnership_noRegionalRetryForGenericTLD(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{}}
	tr := &fakeTranslate{}

	v := validate.New(validate.Deps{Search: searcher, LLM: &fakeLLM{}, Translate: tr},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Empty(t, tr.langs)
	require.Len(t, searcher.queries, 1)
}

func TestValidator_ClassifyOwnership_negativeVerdict(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme-fans.net a part of Acme Corp?": organicPage("https://acme-fans.net"),
	}}
	model := &fakeLLM{completion: llm.Completion{
		Text:             `["acme-fans.net", "No", "fan site, not affiliated"]`,
		PromptTokens:     80,
		CompletionTokens: 12,
	}}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme-fans.net")
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Equal(t, "fan site, not affiliated", out.Result.Reason)
	require.Equal(t, domain.ClarityClear, out.Result.Clarity)
	require.Equal(t, 80, out.Usage.PromptTokens)
}

func TestValidator_ClassifyOwnership_malformedOutput(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme.com a part of Acme Corp?": organicPage("https://acme.com"),
	}}
	model := &fakeLLM{completion: llm.Completion{
		Text:             "I am not sure about this one.",
		PromptTokens:     50,
		CompletionTokens: 9,
	}}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Equal(t, "malformed classifier output", out.Result.Reason)
	// tokens were still consumed and must be accounted
	require.Equal(t, 50, out.Usage.PromptTokens)
	require.Equal(t, 9, out.Usage.CompletionTokens)
}

func TestValidator_ClassifyOwnership_modelError(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme.com a part of Acme Corp?": organicPage("https://acme.com"),
	}}
	model := &fakeLLM{err: errors.New("deployment not found")}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Contains(t, out.Result.Reason, "ownership classification failed")
	require.Equal(t, 1, out.Usage.SearchCredits)
	require.Zero(t, out.Usage.PromptTokens)
}

func TestValidator_ClassifyOwnership_searchErrorMeansNoEvidence(t *testing.T) {
	searcher := &fakeSearch{err: errors.New("connection refused")}

	v := validate.New(validate.Deps{Search: searcher, LLM: &fakeLLM{}},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Equal(t, "no search results", out.Result.Reason)
}

func TestValidator_ClassifyOwnership_confirmDowngradesSubdomainOnlyEvidence(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme.com a part of Acme Corp?": organicPage("https://shop.acme.com/about"),
	}}
	model := &fakeLLM{completion: affirmative("acme.com", "https://shop.acme.com/about")}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp", ConfirmOwnership: true})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Equal(t, domain.ClarityUnclear, out.Result.Clarity)
	require.Contains(t, out.Result.Reason, "exact domain")
}

func TestValidator_ClassifyOwnership_wwwCountsAsExact(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme.com a part of Acme Corp?": organicPage("https://www.acme.com/about"),
	}}
	model := &fakeLLM{completion: affirmative("acme.com", "https://www.acme.com/about")}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp", ConfirmOwnership: true})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictValid, out.Result.Verdict)
	require.Equal(t, domain.ClarityClear, out.Result.Clarity)
}

func TestValidator_ClassifyOwnership_confirmOffKeepsVerdict(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme.com a part of Acme Corp?": organicPage("https://shop.acme.com/about"),
	}}
	model := &fakeLLM{completion: affirmative("acme.com", "https://shop.acme.com/about")}

	v := validate.New(validate.Deps{Search: searcher, LLM: model},
		validate.Options{Company: "Acme Corp"})

	out := v.ClassifyOwnership(context.Background(), "acme.com")
	require.Equal(t, domain.VerdictValid, out.Result.Verdict)
}

func TestValidator_ClassifyOwnership_confirmRegionalRetry(t *testing.T) {
	searcher := &fakeSearch{pages: map[string]search.Page{
		"site:acme.de a part of Acme Corp?":      organicPage("https://group.acme-holding.com/brands"),
		"[de] site:acme.de a part of Acme Corp?": organicPage("https://acme.de/impressum"),
	}}
	model := &fakeLLM{completion: affirmative("acme.de", "https://group.acme-holding.com/brands")}
	tr := &fakeTranslate{}

	v := validate.New(validate.Deps{Search: searcher, LLM: model, Translate: tr},
		validate.Options{Company: "Acme Corp", ConfirmOwnership: true, ConfirmRegionalRetry: true})

	out := v.ClassifyOwnership(context.Background(), "acme.de")
	require.Equal(t, domain.VerdictValid, out.Result.Verdict)
	require.Equal(t, []string{"de"}, tr.langs)
	require.Equal(t, 2, out.Usage.SearchCredits)
}

func TestRecovered(t *testing.T) {
	out := validate.Recovered("acme.com", "boom")
	require.Equal(t, domain.Candidate("acme.com"), out.Result.Domain)
	require.Equal(t, domain.VerdictInvalid, out.Result.Verdict)
	require.Equal(t, "exception: boom", out.Result.Reason)
	require.True(t, out.Usage.IsZero())
}

func TestRegionalLanguage(t *testing.T) {
	tests := []struct {
		suffix string
		want   string
	}{
		{suffix: "de", want: "de"},
		{suffix: "fr", want: "fr"},
		{suffix: "jp", want: "ja"},
		{suffix: "br", want: "pt"},
		{suffix: "ir", want: "fa"},
		{suffix: "cn", want: "zh"},
		{suffix: "us", want: ""},
		{suffix: "uk", want: ""},
		{suffix: "com", want: ""},
		{suffix: "org", want: ""},
		{suffix: "", want: ""},
	}
	for _, tt := range tests {
		t.Run("tld_"+tt.suffix, func(t *testing.T) {
			require.Equal(t, tt.want, validate.RegionalLanguage(tt.suffix))
		})
	}
}
