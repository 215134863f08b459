// Package testutil provides testing utilities for sherpa-sync.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// operationPattern extracts the SOAP operation name from an envelope. The
// operation element is the first tns element in the body.
var operationPattern = regexp.MustCompile(`<tns:([A-Za-z]+)[\s>]`)

// MockResponse defines one scripted response for a mock Sherpa operation.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockSherpa is a configurable mock Sherpa SOAP server for testing. Responses
// are scripted per operation as a FIFO queue; an operation with an empty
// queue answers with a valid empty page.
type MockSherpa struct {
	server *httptest.Server
	mu     sync.Mutex
	queues map[string][]MockResponse

	// Tracking
	RequestCount int
	Requests     map[string]int // operation -> count
	Envelopes    []string       // request bodies in arrival order
}

// NewMockSherpa creates a new mock Sherpa server.
func NewMockSherpa() *MockSherpa {
	mock := &MockSherpa{
		queues:   make(map[string][]MockResponse),
		Requests: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		envelope := string(body)
		operation := extractOperation(envelope)

		mock.mu.Lock()
		mock.RequestCount++
		mock.Requests[operation]++
		mock.Envelopes = append(mock.Envelopes, envelope)

		var resp MockResponse
		queue := mock.queues[operation]
		if len(queue) > 0 {
			resp = queue[0]
			mock.queues[operation] = queue[1:]
		} else {
			resp = MockResponse{
				StatusCode: http.StatusOK,
				Body:       BuildPageXML(operation, "", nil),
			}
		}
		mock.mu.Unlock()

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSherpa) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSherpa) Close() {
	m.server.Close()
}

// Reset clears all queues and tracking state.
func (m *MockSherpa) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues = make(map[string][]MockResponse)
	m.Requests = make(map[string]int)
	m.Envelopes = nil
	m.RequestCount = 0
}

// QueuePage scripts one successful page response for an operation.
func (m *MockSherpa) QueuePage(operation, itemsKey string, items []map[string]string) {
	m.QueueResponse(operation, MockResponse{
		StatusCode: http.StatusOK,
		Body:       BuildPageXML(operation, itemsKey, items),
	})
}

// QueueStatus scripts one error status response for an operation.
func (m *MockSherpa) QueueStatus(operation string, statusCode int) {
	m.QueueResponse(operation, MockResponse{
		StatusCode: statusCode,
		Body:       fmt.Sprintf(`{"error": "status %d"}`, statusCode),
	})
}

// QueueRaw scripts one 200 response with an arbitrary body for an operation.
func (m *MockSherpa) QueueRaw(operation, body string) {
	m.QueueResponse(operation, MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})
}

// QueueResponse appends a scripted response to an operation's queue.
func (m *MockSherpa) QueueResponse(operation string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[operation] = append(m.queues[operation], resp)
}

// GetRequestCount returns the total number of requests received.
func (m *MockSherpa) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// GetOperationCount returns the number of requests received for one operation.
func (m *MockSherpa) GetOperationCount(operation string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests[operation]
}

// LastEnvelope returns the most recently received request body.
func (m *MockSherpa) LastEnvelope() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Envelopes) == 0 {
		return ""
	}
	return m.Envelopes[len(m.Envelopes)-1]
}

// BuildPageXML builds a Sherpa SOAP response body for one page. Item fields
// are emitted in sorted order for determinism; values are XML-escaped.
func BuildPageXML(operation, itemsKey string, items []map[string]string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">` + "\n")
	sb.WriteString("  <soap:Body>\n")
	fmt.Fprintf(&sb, `    <%sResponse xmlns="http://sherpa.sherpaan.nl/">`+"\n", operation)
	fmt.Fprintf(&sb, "      <%sResult>\n", operation)

	for _, item := range items {
		fmt.Fprintf(&sb, "        <%s>", itemsKey)
		fields := make([]string, 0, len(item))
		for field := range item {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(&sb, "<%s>%s</%s>", field, escapeXML(item[field]), field)
		}
		fmt.Fprintf(&sb, "</%s>\n", itemsKey)
	}

	fmt.Fprintf(&sb, "      </%sResult>\n", operation)
	fmt.Fprintf(&sb, "    </%sResponse>\n", operation)
	sb.WriteString("  </soap:Body>\n")
	sb.WriteString("</soap:Envelope>\n")
	return sb.String()
}

// BuildFaultXML builds a SOAP 1.2 fault response body.
func BuildFaultXML(reason string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope">
  <soap:Body>
    <soap:Fault>
      <soap:Code><soap:Value>soap:Receiver</soap:Value></soap:Code>
      <soap:Reason><soap:Text xml:lang="en">%s</soap:Text></soap:Reason>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`, escapeXML(reason))
}

// extractOperation pulls the SOAP operation name out of a request envelope.
func extractOperation(envelope string) string {
	match := operationPattern.FindStringSubmatch(envelope)
	if match == nil {
		return "unknown"
	}
	return match[1]
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}
