package soap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fakeGate is a scriptable Gate for tests.
type fakeGate struct {
	allow     bool
	allowErr  error
	successes int
	failures  int
}

func (g *fakeGate) ShouldAllowRequest(ctx context.Context) (bool, error) {
	return g.allow, g.allowErr
}

func (g *fakeGate) RecordSuccess(ctx context.Context) error {
	g.successes++
	return nil
}

func (g *fakeGate) RecordFailure(ctx context.Context) error {
	g.failures++
	return nil
}

const testEnvelope = `<?xml version="1.0" encoding="utf-8"?><soap12:Envelope xmlns:soap12="http://www.w3.org/2003/05/soap-envelope"><soap12:Body/></soap12:Envelope>`

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config",
			config: Config{
				Endpoint:  "https://sherpa.example.com/Service.asmx",
				UserAgent: "TestApp/1.0.0 (test@example.com)",
			},
			expectError: false,
		},
		{
			name: "empty endpoint",
			config: Config{
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "endpoint is required",
		},
		{
			name: "empty user agent",
			config: Config{
				Endpoint: "https://sherpa.example.com/Service.asmx",
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	endpoint := "https://sherpa.example.com/Service.asmx"
	userAgent := "TestApp/1.0.0"
	cfg := DefaultConfig(endpoint, userAgent)

	if cfg.Endpoint != endpoint {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, endpoint)
	}
	if cfg.UserAgent != userAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, userAgent)
	}
	if cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, should be > 0", cfg.Timeout)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   ErrorClass
	}{
		{
			name:       "network error",
			statusCode: 0,
			err:        io.EOF,
			expected:   ErrorClassNetwork,
		},
		{
			name:       "client error 400",
			statusCode: 400,
			err:        nil,
			expected:   ErrorClassClient,
		},
		{
			name:       "client error 404",
			statusCode: 404,
			err:        nil,
			expected:   ErrorClassClient,
		},
		{
			name:       "rate limit 429",
			statusCode: 429,
			err:        nil,
			expected:   ErrorClassRateLimit,
		},
		{
			name:       "server error 500",
			statusCode: 500,
			err:        nil,
			expected:   ErrorClassServer,
		},
		{
			name:       "server error 503",
			statusCode: 503,
			err:        nil,
			expected:   ErrorClassServer,
		},
		{
			name:       "success 200",
			statusCode: 200,
			err:        nil,
			expected:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifyError(tt.statusCode, tt.err)
			if result != tt.expected {
				t.Errorf("classifyError() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCall_PostsEnvelope(t *testing.T) {
	var gotMethod, gotContentType, gotUserAgent, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<response/>`))
	}))
	defer server.Close()

	client, err := New(DefaultConfig(server.URL, "TestApp/1.0.0 (test@example.com)"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	body, err := client.Call(context.Background(), "GetChangedItemsInformation", testEnvelope)
	if err != nil {
		t.Fatalf("Call() failed: %v", err)
	}

	if string(body) != `<response/>` {
		t.Errorf("Body = %q, want %q", body, `<response/>`)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("Method = %q, want POST", gotMethod)
	}
	if gotContentType != "application/soap+xml; charset=utf-8" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotUserAgent != "TestApp/1.0.0 (test@example.com)" {
		t.Errorf("User-Agent = %q", gotUserAgent)
	}
	if gotBody != testEnvelope {
		t.Errorf("Envelope = %q, want %q", gotBody, testEnvelope)
	}
}

func TestCall_RetryOnServerError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping retry test in short mode (backoff delays)")
	}

	// Server fails twice, then succeeds
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		if attemptCount < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<response/>`))
	}))
	defer server.Close()

	client, err := New(DefaultConfig(server.URL, "TestApp/1.0.0"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	body, err := client.Call(context.Background(), "GetChangedStock", testEnvelope)
	if err != nil {
		t.Fatalf("Call() failed: %v", err)
	}

	if string(body) != `<response/>` {
		t.Errorf("Body = %q after retry", body)
	}
	if attemptCount != 3 {
		t.Errorf("Expected 3 attempts (2 retries), got %d", attemptCount)
	}
}

func TestCall_NoRetryOnClientError(t *testing.T) {
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := New(DefaultConfig(server.URL, "TestApp/1.0.0"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Call(context.Background(), "GetChangedStock", testEnvelope)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var sherpaErr *SherpaError
	if !errors.As(err, &sherpaErr) {
		t.Fatalf("Expected SherpaError, got %T: %v", err, err)
	}
	if sherpaErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", sherpaErr.StatusCode)
	}
	if sherpaErr.ErrorClass != ErrorClassClient {
		t.Errorf("ErrorClass = %q, want %q", sherpaErr.ErrorClass, ErrorClassClient)
	}
	// Should only attempt once (no retry for client errors)
	if attemptCount != 1 {
		t.Errorf("Expected 1 attempt (no retry for 4xx), got %d", attemptCount)
	}
}

func TestCall_RetryExhausted(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping retry test in short mode (backoff delays)")
	}

	// Server always fails with 500
	attemptCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attemptCount++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(DefaultConfig(server.URL, "TestApp/1.0.0"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Call(context.Background(), "GetChangedStock", testEnvelope)

	if err == nil {
		t.Error("Expected error, got nil")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
	if attemptCount != 3 {
		t.Errorf("Expected 3 attempts, got %d", attemptCount)
	}
}

func TestCall_GateBlocksRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("Server should not be reached when gate blocks")
	}))
	defer server.Close()

	gate := &fakeGate{allow: false}
	cfg := DefaultConfig(server.URL, "TestApp/1.0.0")
	cfg.Gate = gate

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Call(context.Background(), "GetChangedStock", testEnvelope)
	if err == nil {
		t.Fatal("Expected request to be blocked by health gate")
	}
	if err.Error() != "request blocked: service health critical" {
		t.Errorf("Error = %q, want health block error", err.Error())
	}
}

func TestCall_GateRecordsOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<response/>`))
	}))
	defer server.Close()

	gate := &fakeGate{allow: true}
	cfg := DefaultConfig(server.URL, "TestApp/1.0.0")
	cfg.Gate = gate

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.Call(context.Background(), "GetChangedStock", testEnvelope); err != nil {
		t.Fatalf("Call() failed: %v", err)
	}

	if gate.successes != 1 {
		t.Errorf("RecordSuccess calls = %d, want 1", gate.successes)
	}
	if gate.failures != 0 {
		t.Errorf("RecordFailure calls = %d, want 0", gate.failures)
	}

	// Client error outcome is recorded as a failure
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer failing.Close()
	client.config.Endpoint = failing.URL

	if _, err := client.Call(context.Background(), "GetChangedStock", testEnvelope); err == nil {
		t.Fatal("Expected error from 404 response")
	}
	if gate.failures != 1 {
		t.Errorf("RecordFailure calls = %d, want 1", gate.failures)
	}
}

func TestCall_NetworkError(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping retry test in short mode (backoff delays)")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening

	cfg := DefaultConfig(server.URL, "TestApp/1.0.0")
	cfg.Timeout = 2 * time.Second

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Call(context.Background(), "GetChangedStock", testEnvelope)
	if err == nil {
		t.Fatal("Expected network error")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted wrapping the network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Logf("Error detail: %v", err)
	}
}
