// Package remote is the typed REST client for the store's product, user and order service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/requestid"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// maxErrorBody caps how much of an error response body is read.
const maxErrorBody = 64 * 1024

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("store service unavailable")
	// ErrUnauthorized is matched by API errors carrying 401 or 403.
	ErrUnauthorized = errors.New("store service rejected the credentials")
)

// APIError is a non-2xx answer from the store service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("store service: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("store service returned status %d", e.Status)
}

// Is lets errors.Is(err, ErrUnauthorized) match authentication failures.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// Message returns the server-supplied message carried by err, or fallback when there is none.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Options configures a Client.
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// Client talks JSON to the store service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*rawResponse]
	logger  zerolog.Logger
}

type rawResponse struct {
	status int
	body   []byte
}

// NewClient creates a store service client.
func NewClient(opts Options, logger zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid store service base url %q: %w", opts.BaseURL, err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	failures := opts.BreakerFailures
	if failures < 1 {
		failures = 5
	}

	logger = logger.With().Str("component", "store-client").Logger()

	breaker := gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:    "store-service",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: base,
		http:    httpClient,
		breaker: breaker,
		logger:  logger,
	}, nil
}

// do sends a JSON request and decodes a 2xx body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, in, out interface{}) error {
	rel := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if query != nil {
		rel.RawQuery = query.Encode()
	}
	target := c.baseURL.ResolveReference(rel)

	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*rawResponse, error) {
		return c.send(ctx, method, target.String(), token, payload)
	})

	event := c.logger.Debug()
	if err != nil {
		event = c.logger.Warn().Err(err)
	}
	event.Str("method", method).
		Str("path", rel.Path).
		Dur("duration", time.Since(start)).
		Str("correlation_id", requestid.From(ctx)).
		Msg("store service call")

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	if resp.status >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, rel.Path, err)
	}
	return nil
}

// send performs one HTTP exchange. Transport failures and 5xx answers count against the breaker.
func (c *Client) send(ctx context.Context, method, target, token string, payload []byte) (*rawResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if cid := requestid.From(ctx); cid != "" {
		req.Header.Set(requestid.Header, cid)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer res.Body.Close()

	limit := int64(-1)
	if res.StatusCode >= http.StatusBadRequest {
		limit = maxErrorBody
	}
	var reader io.Reader = res.Body
	if limit > 0 {
		reader = io.LimitReader(res.Body, limit)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	raw := &rawResponse{status: res.StatusCode, body: data}
	if res.StatusCode >= http.StatusInternalServerError {
		return raw, decodeError(raw)
	}
	return raw, nil
}

func decodeError(resp *rawResponse) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(resp.body, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &APIError{Status: resp.status, Message: msg}
}
