package helius

// Error types returned by Client.Call
// TransportError: the request never produced a JSON-RPC answer (network, HTTP status, body, JSON)
// RPCError: the provider answered with an error envelope

import (
	"fmt"
	"time"

	"gpu-snapshot/internal/infra/retry"
)

const maxErrorBody = 512

type TransportError struct {
	Method     string
	StatusCode int // 0 when no response was received
	Body       string
	RetryAfter time.Duration
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("helius %s: transport error: %v", e.Method, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("helius %s: transport error (%d): %v", e.Method, e.StatusCode, e.Err)
	case e.Body != "":
		return fmt.Sprintf("helius %s: http error (%d): %s", e.Method, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("helius %s: http error (%d)", e.Method, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable: 429 and 5xx only. Failures without a status fail immediately.
func (e *TransportError) Retryable() bool {
	return retry.IsRetryableStatus(e.StatusCode)
}

func (e *TransportError) RetryAfterHint() time.Duration { return e.RetryAfter }

type RPCError struct {
	Method     string
	Code       int
	Message    string
	StatusCode int
	RetryAfter time.Duration
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("helius %s: rpc error (%d): %s", e.Method, e.Code, e.Message)
}

// Retryable: the HTTP status says so, or the message reads like throttling.
func (e *RPCError) Retryable() bool {
	return retry.IsRetryableStatus(e.StatusCode) || retry.IsRateLimitMessage(e.Message)
}

func (e *RPCError) RetryAfterHint() time.Duration { return e.RetryAfter }

func truncateBody(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
