// Package backend is the typed client for the remote commerce REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseSize = 4 << 20

// envelope is the wrapper the backend puts around every payload.
type envelope struct {
	Success    *bool           `json:"success"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		log: log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return !serverSide(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type call struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
}

// do performs one backend call and decodes the envelope's data into out.
// out may be nil.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, cl)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", cl.method, cl.path, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body failed: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", cl.method, cl.path, err)
	}
	c.log.DebugContext(ctx, "backend call",
		slog.String("method", cl.method),
		slog.String("path", cl.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)))

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	var env envelope
	envErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{StatusCode: resp.StatusCode}
		if envErr == nil {
			re.Message = env.Message
		}
		return nil, re
	}
	if envErr != nil {
		// not an envelope; hand back the raw body
		return raw, nil
	}
	if env.Success != nil && !*env.Success {
		status := env.StatusCode
		if status == 0 {
			status = resp.StatusCode
		}
		if status == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, &RemoteError{StatusCode: status, Message: env.Message}
	}
	if env.Data == nil && env.Success == nil {
		// a bare object that merely lacks envelope fields
		return raw, nil
	}
	return env.Data, nil
}
