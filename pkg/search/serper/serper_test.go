package serper_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"domaincheck/pkg/search/serper"
	"domaincheck/pkg/serrors"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(fn rtFunc, options serper.Options) *serper.Client {
	if options.Endpoint == "" {
		options.Endpoint = "https://google.serper.dev/search"
	}

	return serper.New(&http.Client{Transport: fn}, "test-key", options)
}

func TestClient_Search_success(t *testing.T) {
	c := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "google.serper.dev", r.URL.Host)
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		var body struct {
			Query string `json:"q"`
			Num   int    `json:"num"`
			Page  int    `json:"page"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "site:acme.com a part of Acme Corp?", body.Query)
		require.Equal(t, 10, body.Num)
		require.Equal(t, 2, body.Page)

		return &http.Response{
			StatusCode: http.StatusOK,
			Body: io.NopCloser(strings.NewReader(`{
				"organic": [
					{"title": "Acme", "link": "https://acme.com", "snippet": "official site"}
				],
				"credits": 1
			}`)),
		}, nil
	}, serper.Options{})

	res, err := c.Search(context.Background(), "site:acme.com a part of Acme Corp?", 10, 2)
	require.NoError(t, err)
	require.Len(t, res.Organic, 1)
	require.Equal(t, "https://acme.com", res.Organic[0].Link)
	require.Equal(t, 1, res.Credits)
}

func TestClient_Search_rateLimited429(t *testing.T) {
	c := newTestClient(func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(strings.NewReader(`{"message":"too many requests"}`)),
		}, nil
	}, serper.Options{})

	_, err := c.Search(context.Background(), "query", 10, 1)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrRateLimited)
}

func TestClient_Search_backoffRetryAfter429(t *testing.T) {
	var calls int
	c := newTestClient(func(_ *http.Request) (*http.Response, error) {
		calls++
		if calls == 1 {
			return &http.Response{
				StatusCode: http.StatusTooManyRequests,
				Body:       io.NopCloser(strings.NewReader("slow down")),
			}, nil
		}

		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"organic":[{"link":"https://a.com"}],"credits":1}`)),
		}, nil
	}, serper.Options{RateLimitBackoff: time.Millisecond})

	res, err := c.Search(context.Background(), "query", 10, 1)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Len(t, res.Organic, 1)
}

func TestClient_Search_serverError(t *testing.T) {
	c := newTestClient(func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader("internal error")),
		}, nil
	}, serper.Options{})

	_, err := c.Search(context.Background(), "query", 10, 1)
	require.Error(t, err)
	require.False(t, errors.Is(err, serrors.ErrRateLimited))
	require.Contains(t, err.Error(), "search failed")
}

func TestClient_Search_transportError(t *testing.T) {
	c := newTestClient(func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}, serper.Options{})

	_, err := c.Search(context.Background(), "query", 10, 1)
	require.Error(t, err)
}
