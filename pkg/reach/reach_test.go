package reach_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"domaincheck/pkg/logger"
	"domaincheck/pkg/reach"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	os.Exit(m.Run())
}

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestChecker(fn rtFunc, options reach.Options) *reach.Checker {
	if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	if options.MaxAttempts == 0 {
		options.MaxAttempts = 1
	}

	// A real transport always populates Response.Request; the fakes don't,
	// so stamp it here the way net/http does.
	wrapped := rtFunc(func(r *http.Request) (*http.Response, error) {
		resp, err := fn(r)
		if resp != nil && resp.Request == nil {
			resp.Request = r
		}

		return resp, err
	})

	return reach.New(&http.Client{Transport: wrapped}, options)
}

func okResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestChecker_Check_success(t *testing.T) {
	c := newTestChecker(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "acme.com", r.URL.Host)

		return okResponse("<html>welcome to acme</html>"), nil
	}, reach.Options{})

	res := c.Check(context.Background(), "https://acme.com")
	require.True(t, res.IsValid)
	require.Empty(t, res.Reason)
	require.Equal(t, "https://acme.com", res.FinalURL)
}

func TestChecker_Check_httpError(t *testing.T) {
	c := newTestChecker(func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("not found")),
		}, nil
	}, reach.Options{})

	res := c.Check(context.Background(), "https://acme.com")
	require.False(t, res.IsValid)
	require.Contains(t, res.Reason, "404")
}

func TestChecker_Check_sameSiteRedirectStaysValid(t *testing.T) {
	c := newTestChecker(func(r *http.Request) (*http.Response, error) {
		if r.URL.Host == "acme.com" {
			h := http.Header{}
			h.Set("Location", "https://www.acme.com/home")

			return &http.Response{
				StatusCode: http.StatusFound,
				Header:     h,
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		}
		require.Equal(t, "www.acme.com", r.URL.Host)

		return okResponse("home"), nil
	}, reach.Options{})

	res := c.Check(context.Background(), "https://acme.com")
	require.True(t, res.IsValid)
	require.Equal(t, "https://www.acme.com/home", res.FinalURL)
}

func TestChecker_Check_crossDomainRedirectInvalid(t *testing.T) {
	c := newTestChecker(func(r *http.Request) (*http.Response, error) {
		if r.URL.Host == "acme.de" {
			h := http.Header{}
			h.Set("Location", "https://acme.com/")

			return &http.Response{
				StatusCode: http.StatusMovedPermanently,
				Header:     h,
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		}

		return okResponse("global site"), nil
	}, reach.Options{})

	res := c.Check(context.Background(), "https://acme.de")
	require.False(t, res.IsValid)
	require.Contains(t, res.Reason, "redirected to acme.com")
	require.Equal(t, "https://acme.com/", res.FinalURL)
}

func TestChecker_Check_forSalePage(t *testing.T) {
	c := newTestChecker(func(_ *http.Request) (*http.Response, error) {
		return okResponse("<h1>This DOMAIN is FOR SALE!</h1>"), nil
	}, reach.Options{})

	res := c.Check(context.Background(), "https://acme.com")
	require.False(t, res.IsValid)
	require.Contains(t, res.Reason, "for sale")
}

func TestChecker_Check_retriesThenSucceeds(t *testing.T) {
	var calls int
	c := newTestChecker(func(_ *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset")
		}

		return okResponse("finally"), nil
	}, reach.Options{MaxAttempts: 3, RetryDelay: time.Millisecond})

	res := c.Check(context.Background(), "https://acme.com")
	require.True(t, res.IsValid)
	require.Equal(t, 3, calls)
}

func TestChecker_Check_exhaustsAttemptsWithoutError(t *testing.T) {
	var calls int
	c := newTestChecker(func(_ *http.Request) (*http.Response, error) {
		calls++

		return nil, errors.New("no route to host")
	}, reach.Options{MaxAttempts: 3, RetryDelay: time.Millisecond})

	res := c.Check(context.Background(), "https://acme.com")
	require.False(t, res.IsValid)
	require.Contains(t, res.Reason, "page load failed")
	require.Equal(t, 3, calls)
}

func TestChecker_Check_timeoutExhaustsAttempts(t *testing.T) {
	var calls int
	c := newTestChecker(func(_ *http.Request) (*http.Response, error) {
		calls++

		return nil, context.DeadlineExceeded
	}, reach.Options{MaxAttempts: 2, RetryDelay: time.Millisecond})

	res := c.Check(context.Background(), "https://acme.com")
	require.False(t, res.IsValid)
	require.Equal(t, "page load timed out after 2 attempts", res.Reason)
	require.Equal(t, 2, calls)
}

func TestChecker_Check_canceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestChecker(func(_ *http.Request) (*http.Response, error) {
		return nil, errors.New("dial timeout")
	}, reach.Options{MaxAttempts: 2, RetryDelay: time.Hour})

	res := c.Check(ctx, "https://acme.com")
	require.False(t, res.IsValid)
}
