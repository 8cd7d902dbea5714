// Package llm defines the completion-model abstraction used to classify
// domain ownership from search evidence, plus tolerant parsing of the
// model's verdict output.
package llm

import "context"

// Completion is one model response together with its token usage.
type Completion struct {
	// Text is the raw model output.
	Text string
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int
	// CompletionTokens is the number of tokens in the generated output.
	CompletionTokens int
}

// Client is implemented by completion-model providers.
type Client interface {
	// Complete sends the prompt and returns the model output with usage.
	Complete(ctx context.Context, prompt string) (Completion, error)
}
