// Package serper provides a search.Client implementation backed by the
// serper.dev Google search API.
package serper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"domaincheck/pkg/search"
	"domaincheck/pkg/serrors"
)

// Options configure the serper client.
type Options struct {
	// Endpoint is the search API URL.
	Endpoint string
	// RequestsPerSecond throttles outgoing requests. Zero disables the
	// client-side limiter.
	RequestsPerSecond float64
	// RateLimitBackoff is how long to wait before the single retry after
	// the provider returns 429.
	RateLimitBackoff time.Duration
}

// Client talks to the serper.dev REST API and fulfills the search.Client
// interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client  // httpClient performs HTTP requests to serper.dev
	token      string        // token is the serper.dev API key
	limiter    *rate.Limiter // limiter throttles requests client-side
	options    Options
}

// New constructs a Client using the provided http.Client and API key.
func New(httpClient *http.Client, token string, options Options) *Client {
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: httpClient,
		token:      token,
		limiter:    limiter,
		options:    options,
	}
}

// Search fetches one page of organic results. When the provider answers 429
// the client backs off once for the configured duration and retries; a second
// 429 surfaces as serrors.ErrRateLimited.
func (c *Client) Search(ctx context.Context, query string, num, page int) (search.Page, error) {
	res, err := c.search(ctx, query, num, page)
	if !errors.Is(err, serrors.ErrRateLimited) || c.options.RateLimitBackoff <= 0 {
		return res, err
	}

	select {
	case <-ctx.Done():
		return res, ctx.Err()
	case <-time.After(c.options.RateLimitBackoff):
	}

	retryRes, retryErr := c.search(ctx, query, num, page)
	retryRes.Credits += res.Credits

	return retryRes, retryErr
}

func (c *Client) search(ctx context.Context, query string, num, page int) (search.Page, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return search.Page{}, fmt.Errorf("could not wait for rate limiter: %w", err)
		}
	}

	// https://serper.dev/playground
	type searchReq struct {
		Query string `json:"q"`
		Num   int    `json:"num,omitempty"`
		Page  int    `json:"page,omitempty"`
	}
	bodyBytes, err := json.Marshal(searchReq{Query: query, Num: num, Page: page})
	if err != nil {
		return search.Page{}, fmt.Errorf("could not marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		c.options.Endpoint,
		strings.NewReader(string(bodyBytes)))
	if err != nil {
		return search.Page{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return search.Page{}, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return search.Page{}, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return search.Page{}, serrors.With(serrors.ErrRateLimited, "rate limited: %s", strings.TrimSpace(string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return search.Page{}, fmt.Errorf("search failed: %s", strings.TrimSpace(string(b)))
	}

	var searchResp struct {
		Organic []search.OrganicResult `json:"organic"`
		Credits int                    `json:"credits"`
	}
	if err := json.Unmarshal(b, &searchResp); err != nil {
		return search.Page{}, fmt.Errorf("could not decode response: %w", err)
	}

	return search.Page{Organic: searchResp.Organic, Credits: searchResp.Credits}, nil
}
