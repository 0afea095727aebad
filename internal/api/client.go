// Package api is the HTTP client for the math question-answering backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/Veraticus/mathq/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the hosted backend.
const DefaultBaseURL = "https://math-focused-assistant.onrender.com"

const tracerName = "github.com/Veraticus/mathq/internal/api"

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// Config configures the backend client.
type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	// Timeout bounds every call except Query, whose deadline is owned by
	// the caller.
	Timeout time.Duration
}

// Client talks to the backend.
type Client struct {
	httpClient *http.Client
	tracer     trace.Tracer
	baseURL    string
	timeout    time.Duration
}

// New creates a backend client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("%w: base URL must be http(s): %s", common.ErrInvalidConfig, baseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{
		httpClient: httpClient,
		tracer:     telemetry.Tracer(tracerName),
		baseURL:    baseURL,
		timeout:    timeout,
	}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query submits a question. A 401 yields common.ErrAuthRequired; any other
// non-2xx status or an undecodable body yields *common.TransportError.
func (c *Client) Query(ctx context.Context, req model.QueryRequest) (_ *model.AnswerPayload, err error) {
	ctx, span := c.tracer.Start(ctx, "api.Query", trace.WithAttributes(
		attribute.String("mathq.difficulty", string(req.Difficulty)),
		attribute.Int("mathq.question_length", len(req.Question)),
	))
	defer func() { telemetry.End(span, err) }()

	var payload model.AnswerPayload
	if err = c.do(ctx, http.MethodPost, "/query", req, &payload); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("mathq.source", string(payload.Source)),
		attribute.String("mathq.confidence", string(payload.Confidence)),
	)
	return &payload, nil
}

// Login calls the stub login endpoint.
func (c *Client) Login(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "api.Login")
	defer func() { telemetry.End(span, err) }()

	return c.do(ctx, http.MethodPost, "/login", nil, nil)
}

// SubmitFeedback posts a rating or problem report.
func (c *Client) SubmitFeedback(ctx context.Context, sub model.FeedbackSubmission) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "api.SubmitFeedback", trace.WithAttributes(
		attribute.String("mathq.rating", string(sub.Rating)),
		attribute.String("mathq.feedback_type", sub.FeedbackType),
	))
	defer func() { telemetry.End(span, err) }()

	return c.do(ctx, http.MethodPost, "/feedback/submit", sub, nil)
}

// FeedbackStats fetches aggregate feedback statistics.
func (c *Client) FeedbackStats(ctx context.Context) (_ model.FeedbackStats, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "api.FeedbackStats")
	defer func() { telemetry.End(span, err) }()

	var stats model.FeedbackStats
	if err = c.do(ctx, http.MethodGet, "/feedback/stats", nil, &stats); err != nil {
		return model.FeedbackStats{}, err
	}
	return stats, nil
}

// Health pings the backend. The hosted backend sleeps when idle, so the
// first call after a while can be slow.
func (c *Client) Health(ctx context.Context) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "api.Health")
	defer func() { telemetry.End(span, err) }()

	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do performs one JSON exchange. in and out may be nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.NewTransportError(0, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return common.ErrAuthRequired
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var detail error
		if s := strings.TrimSpace(string(snippet)); s != "" {
			detail = errors.New(s)
		}
		return common.NewTransportError(resp.StatusCode, detail)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return common.NewTransportError(0, fmt.Errorf("failed to read response: %w", ctx.Err()))
		}
		return common.NewTransportError(0, fmt.Errorf("failed to parse response: %w", err))
	}

	return nil
}
