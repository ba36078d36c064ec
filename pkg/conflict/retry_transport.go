package conflict

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

const (
	// retryAttempts caps how many times a single request is sent.
	retryAttempts = 4
	// retryDelay is the initial retry delay.
	retryDelay = 1 * time.Second
	// retryMaxDelay caps the exponential backoff.
	retryMaxDelay = 30 * time.Second
	// retryMaxJitter adds randomness to prevent thundering herd.
	retryMaxJitter = 500 * time.Millisecond
	// maxBufferedBody caps how much request or response body is buffered
	// for replay across attempts.
	maxBufferedBody = 1 * 1024 * 1024
)

// RetryTransport wraps an http.RoundTripper and retries requests that hit
// rate limits or server errors, using exponential backoff with jitter. The
// request body is buffered once and replayed on every attempt.
type RetryTransport struct {
	Base http.RoundTripper
}

// RoundTrip implements the http.RoundTripper interface. When every attempt
// fails with a retryable status, the final response is handed back intact so
// the caller sees the API's own error.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(req.Body, maxBufferedBody))
		if err != nil {
			return nil, err
		}
		if closeErr := req.Body.Close(); closeErr != nil {
			slog.DebugContext(req.Context(), "failed to close request body", "error", closeErr)
		}
	}

	var resp *http.Response
	var lastErr error

	err := retry.Do(
		func() error { //nolint:contextcheck // Context is accessed via closure from req.Context()
			if body != nil {
				req.Body = io.NopCloser(bytes.NewReader(body))
			}

			var err error
			resp, err = base.RoundTrip(req) //nolint:bodyclose // Response body is handled by caller in successful cases
			if err != nil {
				lastErr = err
				return err
			}

			reason := retryReason(resp)
			if reason == "" {
				return nil
			}
			slog.InfoContext(req.Context(), "HTTP request will be retried",
				"status", resp.StatusCode,
				"url", req.URL.String(),
				"reason", reason)
			buffer(req.Context(), resp)
			lastErr = &retryableError{StatusCode: resp.StatusCode}
			return lastErr
		},
		retry.Context(req.Context()),
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.MaxDelay(retryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxJitter(retryMaxJitter),
		retry.RetryIf(func(err error) bool {
			var retryErr *retryableError
			return errors.As(err, &retryErr)
		}),
	)
	if err != nil {
		var retryErr *retryableError
		if errors.As(lastErr, &retryErr) && resp != nil {
			// Attempts exhausted on a retryable status: the buffered
			// response still carries the API's error body.
			return resp, nil
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}

	return resp, nil
}

// retryReason classifies a response, returning a non-empty reason when the
// request should be retried. GitHub reports primary rate limiting as a 403
// with a zeroed X-Ratelimit-Remaining header.
func retryReason(resp *http.Response) string {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "secondary rate limit"
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		return "server error"
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-Ratelimit-Remaining") == "0":
		return "rate limit exceeded"
	default:
		return ""
	}
}

// buffer replaces the response body with an in-memory copy so it survives
// being read after the attempt that produced it.
func buffer(ctx context.Context, resp *http.Response) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBufferedBody))
	if err != nil {
		slog.DebugContext(ctx, "failed to read response body for retry", "error", err)
		data = nil
	}
	if closeErr := resp.Body.Close(); closeErr != nil {
		slog.DebugContext(ctx, "failed to close response body for retry", "error", closeErr)
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
}

// retryableError indicates a response status that should be retried.
type retryableError struct {
	StatusCode int
}

func (e *retryableError) Error() string {
	return http.StatusText(e.StatusCode)
}
