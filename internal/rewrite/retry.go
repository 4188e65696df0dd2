package rewrite

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// retryPolicy decides whether a failed completion is tried again and how long
// to wait first.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
	// sleep replaces the timer wait in tests.
	sleep func(time.Duration)
}

func (p retryPolicy) maxAttempts() int { return max(p.attempts, 1) }

// wait returns the pause before the next attempt and false when err is final.
func (p retryPolicy) wait(err error, attempt int) (time.Duration, bool) {
	if attempt >= p.maxAttempts() || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	var (
		empty  *emptyContentError
		status *httpStatusError
		netErr net.Error
	)
	switch {
	case errors.As(err, &empty):
		return p.backoff(attempt), true
	case errors.As(err, &status):
		if !status.retryable() {
			return 0, false
		}
		if status.RetryAfter > 0 {
			return p.clamp(status.RetryAfter), true
		}
		return p.backoff(attempt), true
	case errors.As(err, &netErr) && netErr.Timeout():
		return p.backoff(attempt), true
	}
	return 0, false
}

// backoff doubles from base for each prior attempt and stops at max.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	d := p.base
	for i := 1; i < attempt && d < p.max; i++ {
		d *= 2
	}
	return p.clamp(d)
}

func (p retryPolicy) clamp(d time.Duration) time.Duration {
	return min(max(d, 0), p.max)
}

func (p retryPolicy) pause(ctx context.Context, d time.Duration) error {
	if d > 0 && p.sleep != nil {
		p.sleep(d)
		return ctx.Err()
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return "rewrite request: http " + strconv.Itoa(e.StatusCode) + ": " + snippet(e.Body)
}

func (e *httpStatusError) retryable() bool {
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
	Snippet      string
}

func (e *emptyContentError) Error() string {
	return "rewrite: empty content (finish_reason=" + strconv.Quote(e.FinishReason) +
		", refusal=" + strconv.Quote(e.Refusal) + ", response_snippet=" + e.Snippet + ")"
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		return max(time.Until(when), 0)
	}
	return 0
}
