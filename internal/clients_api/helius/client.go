package helius

// Package helius contains the JSON-RPC client for the Helius Solana endpoint
// This file is the transport layer: envelope, rate limiting, circuit breaker, retries
// Typed RPC methods live in methods.go

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gpu-snapshot/internal/infra/log"
	"gpu-snapshot/internal/infra/metrics"
	"gpu-snapshot/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxResponseSize = 64 * 1024 * 1024
	defaultTimeout         = 20 * time.Second
)

// Client calls a Solana JSON-RPC endpoint. Safe for concurrent use.
type Client struct {
	endpoint        string
	httpClient      *http.Client
	rateLimiter     *rate.Limiter
	circuitBreaker  *gobreaker.CircuitBreaker
	retry           retry.Options
	maxResponseSize int64
}

type ClientOption func(*Client)

// NewClient creates a client for endpoint, which must already carry the api-key query parameter.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:        endpoint,
		rateLimiter:     rate.NewLimiter(rate.Limit(9), 9),
		retry:           retry.DefaultOptions(),
		maxResponseSize: DefaultMaxResponseSize,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	c.circuitBreaker = newCircuitBreaker()

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "HeliusRPC",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			// the provider answered, it is healthy
			var rpcErr *RPCError
			return errors.As(err, &rpcErr) && !rpcErr.Retryable()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.LogWarn("Circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRetry sets the retry policy.
func WithRetry(opts retry.Options) ClientOption {
	return func(c *Client) { c.retry = opts }
}

// WithRateLimit sets the outbound token bucket; rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.rateLimiter = nil
			return
		}
		c.rateLimiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithMaxResponseSize caps the bytes read from a single response.
func WithMaxResponseSize(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// Call invokes method with params and decodes the result into out (which may be nil).
// Retryable failures are retried; the last error is returned once attempts run out.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: method, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	opts := c.retry
	opts.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.RPCRetries.WithLabelValues(method).Inc()
		log.LogWarn("Retrying RPC call",
			zap.String("rpc_method", method),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	var result json.RawMessage
	err = retry.Do(ctx, opts, func() error {
		raw, err := c.attempt(ctx, method, body)
		if err != nil {
			return err
		}
		result = raw
		return nil
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// attempt performs exactly one HTTP exchange behind the rate limiter and circuit breaker.
func (c *Client) attempt(ctx context.Context, method string, body []byte) (json.RawMessage, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	requestID := log.GenerateRequestID()
	startTime := time.Now()

	res, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.post(ctx, requestID, method, body, startTime)
	})
	metrics.RPCDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	metrics.RPCRequests.WithLabelValues(method, outcome(err)).Inc()

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.LogError("Circuit breaker rejected request",
				zap.String("request_id", requestID), zap.String("rpc_method", method), zap.Error(err))
			return nil, fmt.Errorf("helius %s: %w", method, err)
		}
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (c *Client) post(ctx context.Context, requestID, method string, body []byte, startTime time.Time) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.LogRequest(requestID, http.MethodPost, method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("rpc_method", method), zap.Error(err))
		return nil, &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("rpc_method", method), zap.Error(err))
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(raw)) > c.maxResponseSize {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("rpc_method", method), zap.String("error", "response too large"))
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("response exceeds %d bytes", c.maxResponseSize)}
	}

	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter = retry.ParseRetryAfter(resp.Header.Get("Retry-After"))
	}

	var envelope rpcResponse
	decodeErr := json.Unmarshal(raw, &envelope)

	if decodeErr == nil && envelope.Error != nil {
		log.LogResponse(requestID, resp.StatusCode, duration,
			zap.String("rpc_method", method),
			zap.Int("rpc_code", envelope.Error.Code),
			zap.String("rpc_message", envelope.Error.Message))
		return nil, &RPCError{
			Method:     method,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("rpc_method", method))
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode, Body: truncateBody(raw), RetryAfter: retryAfter}
	}
	if decodeErr != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("rpc_method", method), zap.Error(decodeErr))
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode, Body: truncateBody(raw), Err: fmt.Errorf("malformed JSON-RPC response: %w", decodeErr)}
	}
	if envelope.Result == nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("rpc_method", method), zap.String("error", "missing result"))
		return nil, &TransportError{Method: method, StatusCode: resp.StatusCode, Body: truncateBody(raw), Err: errors.New("response has neither result nor error")}
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("rpc_method", method), zap.Int("bytes", len(raw)))
	return envelope.Result, nil
}

func outcome(err error) string {
	var rpcErr *RPCError
	var transportErr *TransportError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.As(err, &rpcErr):
		return "rpc_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	default:
		return "error"
	}
}
