package retry

// Bounded retry with exponential backoff and additive jitter
// Retryable: HTTP 429, HTTP >= 500, rate-limit phrasing in remote error messages
// Retry-After on 429 overrides the computed delay
// Non-retryable errors return immediately, exhausting attempts returns the last error

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	MaxAttempts int           // total attempts including the first one
	BaseDelay   time.Duration // delay before the second attempt, doubled afterwards
	MaxJitter   time.Duration // uniform jitter added on top of the backoff
	MaxDelay    time.Duration // upper bound for a single wait, 0 = unbounded

	// Classify overrides IsRetryable when set.
	Classify func(error) bool
	// OnRetry is invoked before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultOptions matches the RPC provider's rate-limit behaviour.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 5,
		BaseDelay:   300 * time.Millisecond,
		MaxJitter:   250 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Retryable is implemented by errors that know whether a retry can help.
type Retryable interface {
	Retryable() bool
}

// RetryAfterHinter exposes a server-provided wait hint.
type RetryAfterHinter interface {
	RetryAfterHint() time.Duration
}

// HTTPError is a status-only failure for callers without a richer error type.
type HTTPError struct {
	StatusCode int
	Body       []byte
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error: <nil>"
	}
	if len(e.Body) == 0 {
		return "http error (" + strconv.Itoa(e.StatusCode) + ")"
	}
	return "http error (" + strconv.Itoa(e.StatusCode) + "): " + string(e.Body)
}

func (e *HTTPError) Retryable() bool { return IsRetryableStatus(e.StatusCode) }

func (e *HTTPError) RetryAfterHint() time.Duration { return e.RetryAfter }

// IsRetryableStatus reports whether an HTTP status is worth retrying.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// IsRateLimitMessage matches the phrasing providers use for throttling.
func IsRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many")
}

// IsRetryable classifies err. Context errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// ParseRetryAfter reads a Retry-After header value in seconds or HTTP-date form.
func ParseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}

func clamp(d, limit time.Duration) time.Duration {
	if limit > 0 && d > limit {
		return limit
	}
	return d
}

// Backoff returns the wait before attempt+1, where attempt is 1-based.
func Backoff(attempt int, opts Options) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if opts.BaseDelay <= 0 {
		return clamp(jitter(opts.MaxJitter), opts.MaxDelay)
	}
	shift := min(attempt-1, 20)
	d := opts.BaseDelay << shift
	return clamp(d+jitter(opts.MaxJitter), opts.MaxDelay)
}

func jitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit) + 1))
}

// Do calls fn until it succeeds, returns a non-retryable error, or runs out of attempts.
func Do(ctx context.Context, opts Options, fn func() error) error {
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	classify := opts.Classify
	if classify == nil {
		classify = IsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == attempts || !classify(err) {
			return lastErr
		}

		sleep := Backoff(attempt, opts)
		var hint RetryAfterHinter
		if errors.As(err, &hint) && hint.RetryAfterHint() > 0 {
			sleep = clamp(hint.RetryAfterHint(), opts.MaxDelay)
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, sleep, err)
		}

		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}

	return lastErr
}
