package domain

// UsageRecord is the resource-accounting unit emitted by every external
// service call site. Records combine by pointwise addition; the order of
// addition never affects the total. All fields are non-negative.
type UsageRecord struct {
	// PromptTokens is the number of LLM input tokens consumed.
	PromptTokens int `json:"promptTokens"`
	// CompletionTokens is the number of LLM output tokens consumed.
	CompletionTokens int `json:"completionTokens"`
	// CostUSD is monetary cost already attributed to this record, in USD.
	CostUSD float64 `json:"costUSD"`
	// SearchCredits is the number of search API credits charged.
	SearchCredits int `json:"searchCredits"`
}

// Add returns the pointwise sum of u and o.
func (u UsageRecord) Add(o UsageRecord) UsageRecord {
	return UsageRecord{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		CostUSD:          u.CostUSD + o.CostUSD,
		SearchCredits:    u.SearchCredits + o.SearchCredits,
	}
}

// IsZero reports whether the record carries no usage at all.
func (u UsageRecord) IsZero() bool {
	return u == UsageRecord{}
}

// CostRates holds the per-1000-token prices used to derive monetary cost
// from token counts.
type CostRates struct {
	// InputPer1K is the USD price of 1000 prompt tokens.
	InputPer1K float64
	// OutputPer1K is the USD price of 1000 completion tokens.
	OutputPer1K float64
}

// TokenCost derives the monetary cost of the record's token usage with the
// given rates. It does not include CostUSD already attributed upstream.
func (u UsageRecord) TokenCost(rates CostRates) float64 {
	return (float64(u.PromptTokens)/1000)*rates.InputPer1K +
		(float64(u.CompletionTokens)/1000)*rates.OutputPer1K
}
