// Package soap provides the Sherpa SOAP transport client with error
// classification, retry logic, and response page decoding.
//
// The Sherpa service exposes one request/response shape: a SOAP 1.2 envelope
// posted to a single endpoint, answered with a list of item elements plus a
// continuation token. This package only supports that shape; it is not a
// general SOAP client.
package soap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Sherpa client operations.
var (
	sherpaRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sherpa_requests_total",
		Help: "Total Sherpa requests by operation and status",
	}, []string{"operation", "status"})

	sherpaRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sherpa_request_duration_seconds",
		Help:    "Sherpa request duration in seconds by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"operation"})

	sherpaErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sherpa_errors_total",
		Help: "Total Sherpa errors by class",
	}, []string{"class"})
)

// maxResponseBytes caps how much of a response body is read into memory.
const maxResponseBytes = 32 << 20

// ErrorClass represents a classification of transport errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Gate decides whether an outbound request may be sent and records the
// outcome of each attempt. The health tracker implements it; tests may
// substitute their own.
type Gate interface {
	ShouldAllowRequest(ctx context.Context) (bool, error)
	RecordSuccess(ctx context.Context) error
	RecordFailure(ctx context.Context) error
}

// Client posts SOAP envelopes to the Sherpa service endpoint.
type Client struct {
	httpClient *http.Client
	gate       Gate
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the full URL of the Sherpa SOAP service.
	Endpoint string

	// User-Agent header sent with every request.
	// Format: "AppName/Version (contact@example.com)"
	UserAgent string

	// Timeout per HTTP request.
	Timeout time.Duration

	// Gate is consulted before each page request and fed with the outcome
	// of every attempt. Optional; nil disables gating.
	Gate Gate
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(endpoint, userAgent string) Config {
	return Config{
		Endpoint:  endpoint,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new Sherpa SOAP client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "sherpa-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		gate:   cfg.Gate,
		config: cfg,
		logger: logger,
	}, nil
}

// Call posts one SOAP envelope and returns the raw response body.
// It orchestrates health gating, error classification, and retry logic.
// The operation name is used for logging and metrics only.
func (c *Client) Call(ctx context.Context, operation string, envelope string) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		sherpaRequestDuration.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check service health gate
	if c.gate != nil {
		allowed, err := c.gate.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Health gate check failed")
			return nil, fmt.Errorf("health gate check: %w", err)
		}
		if !allowed {
			c.logger.Warn().
				Str("operation", operation).
				Msg("Request blocked by health gate")
			sherpaRequestsTotal.WithLabelValues(operation, "blocked").Inc()
			return nil, fmt.Errorf("request blocked: service health critical")
		}
	}

	c.logger.Debug().
		Str("operation", operation).
		Int("envelope_bytes", len(envelope)).
		Msg("Executing Sherpa request")

	var body []byte
	var errClass ErrorClass

	// Step 2: Execute the HTTP request with retry logic
	retryErr := retryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader([]byte(envelope)))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
		req.Header.Set("User-Agent", c.config.UserAgent)

		resp, reqErr := c.httpClient.Do(req)

		// Handle network errors
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("operation", operation).Msg("HTTP request failed")
			errClass = classifyError(0, reqErr)
			sherpaErrorsTotal.WithLabelValues(string(errClass)).Inc()
			sherpaRequestsTotal.WithLabelValues(operation, "network_error").Inc()
			return reqErr
		}
		defer resp.Body.Close()

		// Handle HTTP errors
		if resp.StatusCode != http.StatusOK {
			errClass = classifyError(resp.StatusCode, nil)
			sherpaErrorsTotal.WithLabelValues(string(errClass)).Inc()
			sherpaRequestsTotal.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("operation", operation).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Sherpa request error")

			return &SherpaError{
				StatusCode: resp.StatusCode,
				ErrorClass: errClass,
				Message:    resp.Status,
			}
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			errClass = ErrorClassNetwork
			sherpaErrorsTotal.WithLabelValues(string(errClass)).Inc()
			sherpaRequestsTotal.WithLabelValues(operation, "read_error").Inc()
			return fmt.Errorf("read response body: %w", err)
		}

		body = data
		sherpaRequestsTotal.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return nil
	}, func(err error) ErrorClass {
		return errClass
	})

	// Step 3: Feed the outcome back into the health gate
	if c.gate != nil {
		var gateErr error
		if retryErr != nil {
			gateErr = c.gate.RecordFailure(ctx)
		} else {
			gateErr = c.gate.RecordSuccess(ctx)
		}
		if gateErr != nil {
			c.logger.Warn().Err(gateErr).Msg("Failed to record request outcome in health gate")
		}
	}

	if retryErr != nil {
		return nil, retryErr
	}

	return body, nil
}

// classifyError categorizes an error for observability and retry handling.
func classifyError(statusCode int, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Endpoint returns the configured service endpoint.
func (c *Client) Endpoint() string {
	return c.config.Endpoint
}
