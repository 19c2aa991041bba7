// Package provider talks to LLM backends with rate limiting, caching and failover.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNoProviderAvailable is returned when every backend failed for a request.
var ErrNoProviderAvailable = errors.New("no provider available")

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty response")

// Request is a single prompt sent to a backend.
type Request struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Response is what a backend returns for one call.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Completion is what the Manager returns to callers.
type Completion struct {
	Text     string
	Provider string
	Model    string
	Cached   bool
}

// Provider is one LLM backend.
type Provider interface {
	// Name identifies the backend in logs, stats and cache keys.
	Name() string
	// Models returns the degradation ladder, best first.
	Models() []string
	// Complete sends req to the given model.
	Complete(ctx context.Context, model string, req Request) (Response, error)
}

// ProviderError is an HTTP-level failure from a backend.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	// RetryAfter is the server's requested delay, when it sent one.
	RetryAfter time.Duration
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRateLimited reports whether err is an HTTP 429 from a backend.
func IsRateLimited(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.StatusCode == http.StatusTooManyRequests
}

// retryAfter extracts the requested delay from err, or 0.
func retryAfter(err error) time.Duration {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.RetryAfter
	}
	return 0
}

const maxErrorBody = 512

// newHTTPError builds a ProviderError from a non-2xx response.
func newHTTPError(provider string, status int, body []byte, header http.Header) *ProviderError {
	msg := clip(strings.TrimSpace(string(body)), maxErrorBody)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Message:    msg,
		RetryAfter: parseRetryAfter(header.Get("Retry-After")),
	}
}

// clip cuts s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
