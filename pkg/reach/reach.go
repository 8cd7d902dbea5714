// Package reach verifies that a candidate URL actually loads and still
// belongs to its own site: redirects to a different registrable domain and
// for-sale parking pages disqualify a candidate regardless of content.
package reach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"domaincheck/internal/normalize"
	"domaincheck/pkg/logger"
	"domaincheck/pkg/serrors"
)

// maxBodyBytes bounds how much of a landing page is read for the for-sale
// heuristic.
const maxBodyBytes = 256 << 10

// forSaleSignals are lower-cased phrases that mark a parked/for-sale page.
var forSaleSignals = []string{ //nolint: gochecknoglobals
	"this domain is for sale",
	"domain for sale",
	"buy this domain",
	"is available for purchase",
	"domain is parked",
}

// Options configure the checker's retry budget and per-attempt timeout.
type Options struct {
	// Timeout bounds a single load attempt.
	Timeout time.Duration
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
}

// Result is the outcome of a reachability check. Check never fails with an
// error; every failure path resolves into a Result with IsValid=false and a
// descriptive Reason.
type Result struct {
	// IsValid reports whether the URL loaded and stayed on its own site.
	IsValid bool
	// Reason explains an invalid result in human-readable form.
	Reason string
	// FinalURL is the URL the load landed on, when a response was received.
	FinalURL string
}

// Checker loads candidate URLs with bounded attempts. It is safe for
// concurrent use.
type Checker struct {
	httpClient *http.Client
	options    Options
}

// New constructs a Checker using the provided http.Client. The client
// should follow redirects (the default policy); the checker inspects the
// landed URL to detect cross-domain redirects.
func New(httpClient *http.Client, options Options) *Checker {
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = 1
	}

	return &Checker{httpClient: httpClient, options: options}
}

// Check loads the URL and classifies the outcome. Transient load failures
// are retried up to the attempt budget with a fixed delay; exhausting the
// budget yields an invalid result, never an error.
func (c *Checker) Check(ctx context.Context, rawURL string) Result {
	var lastErr error

	for attempt := 1; attempt <= c.options.MaxAttempts; attempt++ {
		res, err := c.load(ctx, rawURL)
		if err == nil {
			return res
		}
		lastErr = err

		logger.Debug(ctx, "page load attempt failed",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == c.options.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return Result{IsValid: false, Reason: fmt.Sprintf("page load canceled: %v", ctx.Err())}
		case <-time.After(c.options.RetryDelay):
		}
	}

	if errors.Is(lastErr, serrors.ErrTimeout) {
		return Result{IsValid: false, Reason: fmt.Sprintf("page load timed out after %d attempts", c.options.MaxAttempts)}
	}

	return Result{IsValid: false, Reason: fmt.Sprintf("page load failed: %v", lastErr)}
}

// load performs one attempt. A returned error means the attempt may be
// retried; a returned Result is terminal for this check.
func (c *Checker) load(ctx context.Context, rawURL string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		// an unparsable URL never gets better with retries
		return Result{IsValid: false, Reason: fmt.Sprintf("invalid URL: %v", err)}, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, serrors.Wrap(serrors.ErrTimeout, err, "page load timed out")
		}

		return Result{}, serrors.Wrap(serrors.ErrUnreachable, err, "could not load page")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	final := resp.Request.URL.String()

	if !normalize.SameSite(rawURL, final) {
		return Result{
			IsValid:  false,
			Reason:   fmt.Sprintf("redirected to %s", resp.Request.URL.Host),
			FinalURL: final,
		}, nil
	}

	if resp.StatusCode >= 400 {
		return Result{
			IsValid:  false,
			Reason:   fmt.Sprintf("HTTP status %d", resp.StatusCode),
			FinalURL: final,
		}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, serrors.Wrap(serrors.ErrTimeout, err, "page read timed out")
		}

		return Result{}, serrors.Wrap(serrors.ErrUnreachable, err, "could not read page body")
	}
	if signal := forSaleSignal(body); signal != "" {
		return Result{
			IsValid:  false,
			Reason:   fmt.Sprintf("domain appears to be for sale (%q)", signal),
			FinalURL: final,
		}, nil
	}

	return Result{IsValid: true, FinalURL: final}, nil
}

func forSaleSignal(body []byte) string {
	text := strings.ToLower(string(body))
	for _, s := range forSaleSignals {
		if strings.Contains(text, s) {
			return s
		}
	}

	return ""
}
