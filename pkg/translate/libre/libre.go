// Package libre provides a translate.Client implementation backed by a
// LibreTranslate server.
package libre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"domaincheck/pkg/serrors"
	"domaincheck/pkg/translate"
)

// Client talks to a LibreTranslate instance and fulfills the
// translate.Client interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to the server
	endpoint   string       // endpoint is the /translate URL
	token      string       // token is the optional API key
}

// New constructs a Client using the provided http.Client. token may be empty
// for servers that do not require a key.
func New(httpClient *http.Client, endpoint, token string) *Client {
	return &Client{httpClient: httpClient, endpoint: endpoint, token: token}
}

// Translate renders text from English into the target language. Requesting
// English back is a no-op that skips the network round trip.
func (c *Client) Translate(ctx context.Context, text, targetLang string) (translate.Translation, error) {
	if targetLang == "" || targetLang == "en" {
		return translate.Translation{Text: text, Translated: false}, nil
	}

	// https://docs.libretranslate.com
	type translateReq struct {
		Query  string `json:"q"`
		Source string `json:"source"`
		Target string `json:"target"`
		Format string `json:"format"`
		APIKey string `json:"api_key,omitempty"`
	}
	bodyBytes, err := json.Marshal(translateReq{
		Query:  text,
		Source: "en",
		Target: targetLang,
		Format: "text",
		APIKey: c.token,
	})
	if err != nil {
		return translate.Translation{}, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(bodyBytes)))
	if err != nil {
		return translate.Translation{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return translate.Translation{}, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return translate.Translation{}, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return translate.Translation{}, serrors.With(serrors.ErrRateLimited, "rate limited: %s", strings.TrimSpace(string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return translate.Translation{}, fmt.Errorf("translate failed: %s", strings.TrimSpace(string(b)))
	}

	var translateResp struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.Unmarshal(b, &translateResp); err != nil {
		return translate.Translation{}, fmt.Errorf("could not decode response: %w", err)
	}
	if translateResp.TranslatedText == "" {
		return translate.Translation{}, fmt.Errorf("empty translation in response")
	}

	return translate.Translation{Text: translateResp.TranslatedText, Translated: true}, nil
}
