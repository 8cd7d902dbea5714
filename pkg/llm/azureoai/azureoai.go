// Package azureoai provides an llm.Client implementation backed by the Azure
// OpenAI chat completions API.
package azureoai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"domaincheck/pkg/llm"
	"domaincheck/pkg/serrors"
)

// Options configure the Azure OpenAI client.
type Options struct {
	// Endpoint is the resource endpoint, e.g. https://myres.openai.azure.com.
	Endpoint string
	// Deployment is the chat model deployment name.
	Deployment string
	// APIVersion selects the API version query parameter.
	APIVersion string
	// Temperature is passed through to the model.
	Temperature float64
}

// Client talks to the Azure OpenAI REST API and fulfills the llm.Client
// interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to Azure
	token      string       // token is the Azure OpenAI API key
	options    Options
}

// New constructs a Client using the provided http.Client and API key.
func New(httpClient *http.Client, token string, options Options) *Client {
	return &Client{httpClient: httpClient, token: token, options: options}
}

// Complete sends the prompt as a single user message and returns the first
// choice with its token usage.
func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	// https://learn.microsoft.com/en-us/azure/ai-services/openai/reference#chat-completions
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type completeReq struct {
		Messages    []message `json:"messages"`
		Temperature float64   `json:"temperature"`
	}
	bodyBytes, err := json.Marshal(completeReq{
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: c.options.Temperature,
	})
	if err != nil {
		return llm.Completion{}, fmt.Errorf("could not marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimSuffix(c.options.Endpoint, "/"),
		url.PathEscape(c.options.Deployment),
		url.QueryEscape(c.options.APIVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return llm.Completion{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return llm.Completion{}, serrors.With(serrors.ErrRateLimited, "rate limited: %s", strings.TrimSpace(string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return llm.Completion{}, fmt.Errorf("completion failed: %s", strings.TrimSpace(string(b)))
	}

	var completeResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(b, &completeResp); err != nil {
		return llm.Completion{}, fmt.Errorf("could not decode response: %w", err)
	}
	if len(completeResp.Choices) == 0 {
		return llm.Completion{}, fmt.Errorf("no choices in response")
	}

	return llm.Completion{
		Text:             completeResp.Choices[0].Message.Content,
		PromptTokens:     completeResp.Usage.PromptTokens,
		CompletionTokens: completeResp.Usage.CompletionTokens,
	}, nil
}
