// Package testutil provides testing utilities for the item list client.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/Sternrassler/item-list-client/pkg/listing"
)

// MockResponse defines the behavior for a mock collection endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCollection is a configurable mock collection service for testing.
type MockCollection struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	Queries      []url.Values
	LastHeader   http.Header
}

// NewMockCollection creates a new mock collection server.
func NewMockCollection() *MockCollection {
	mock := &MockCollection{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastHeader = r.Header.Clone()
		if r.URL.Path == "/items" {
			mock.Queries = append(mock.Queries, r.URL.Query())
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockCollection) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCollection) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCollection) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCollection) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetItemsResponse configures the /items endpoint.
func (m *MockCollection) SetItemsResponse(resp MockResponse) {
	m.SetResponse("/items", resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCollection) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockCollection) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastHeader.Clone()
}

// LastQuery returns the query parameters of the most recent /items request.
func (m *MockCollection) LastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Queries) == 0 {
		return nil
	}
	return m.Queries[len(m.Queries)-1]
}

// defaultHandler answers /health and returns an empty page for /items.
func (m *MockCollection) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/health":
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	case "/items":
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"items":[],"total_pages":0,"total_items":0}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Not Found"}`))
	}
}

// NewPageResponse creates a 200 OK response carrying page.
func NewPageResponse(page listing.Page) MockResponse {
	body, err := json.Marshal(page)
	if err != nil {
		panic(err)
	}
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewJSONResponse creates a 200 OK response with a raw JSON body.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewServerErrorResponse creates a 500 response with a plain text body.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error",
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}
}

// NewPageOutOfRangeResponse creates the 404 the collection service sends for
// pages past the end.
func NewPageOutOfRangeResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"detail":"Page out of range"}`,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}
}

// NewEmptyErrorResponse creates an error response without a body.
func NewEmptyErrorResponse(status int) MockResponse {
	return MockResponse{StatusCode: status}
}
