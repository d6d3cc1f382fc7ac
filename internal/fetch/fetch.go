// Package fetch retrieves raw source payloads over HTTP with bounded
// timeouts and retry with exponential backoff.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/config"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
)

// ErrUnexpectedStatusCode indicates an HTTP response with a non-2xx status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// maxPayloadBytes caps how much of a response body is read; schedule
// payloads are small and a runaway body should not exhaust memory.
const maxPayloadBytes = 4 << 20

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Client fetches source payloads with config-driven retry logic.
type Client struct {
	http   *http.Client
	policy config.RetryPolicy
	log    *logger.Logger
}

// NewClient builds a fetch client for the given retry policy.
func NewClient(policy config.RetryPolicy, log *logger.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: time.Duration(policy.TimeoutSec) * time.Second,
		},
		policy: policy,
		log:    log,
	}
}

// Fetch retrieves a URL, retrying transient failures with exponential
// backoff up to the policy's attempt count. Cancellation of ctx stops
// the retry loop between attempts.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		body, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.log.Warn("fetch attempt failed",
			"url", url, "attempt", attempt, "max", c.policy.MaxAttempts, "err", err)

		if !retryable || attempt == c.policy.MaxAttempts {
			break
		}
		select {
		case <-time.After(c.policy.RetryDelay(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,text/calendar;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		// Network errors and timeouts are worth retrying unless the
		// caller has given up.
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, true, fmt.Errorf("read body: %w", err)
	}
	return body, false, nil
}

// isRetryableStatus reports whether a status is worth another attempt:
// rate limits and server-side errors, not client errors.
func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
