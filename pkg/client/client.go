// Package client provides the HTTP client for the item collection service.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/item-list-client/pkg/listing"
	"github.com/Sternrassler/item-list-client/pkg/metrics"
)

// Prometheus metrics for collection service requests.
var (
	requestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "itemlist_requests_total",
		Help: "Total collection service requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "itemlist_request_duration_seconds",
		Help:    "Collection service request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"endpoint"})

	errorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "itemlist_errors_total",
		Help: "Total collection service errors by class",
	}, []string{"class"})
)

// Endpoint paths of the collection service.
const (
	ItemsPath  = "/items"
	HealthPath = "/health"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

// maxErrorBody caps how much of an error response body is kept.
const maxErrorBody = 64 << 10

// Client talks to the item collection service.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the collection service, e.g. "http://127.0.0.1:8000".
	BaseURL string

	// User-Agent header sent with every request.
	UserAgent string

	// Timeout per request. Zero means no timeout: a hung request stays
	// in flight until its context is cancelled.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (optional).
	HTTPClient *http.Client
}

// DefaultConfig returns the default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Config{
		BaseURL:   baseURL,
		UserAgent: "item-list-client/0.1.0",
	}
}

// New creates a new collection service client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https (got %q)", cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url must include a host (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		config:     cfg,
		logger:     log.With().Str("component", "collection-client").Logger(),
	}, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ItemsURL returns the request URL for q.
func (c *Client) ItemsURL(q listing.Query) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + ItemsPath
	u.RawQuery = q.Encode()
	return u.String()
}

// ListItems fetches the page of items described by q.
// Failures are returned as *CollectionError.
func (c *Client) ListItems(ctx context.Context, q listing.Query) (*listing.ResultSet, error) {
	var page listing.Page
	if err := c.getJSON(ctx, ItemsPath, c.ItemsURL(q), &page); err != nil {
		return nil, err
	}

	rs := page.ResultSet()
	c.logger.Debug().
		Str("query", q.Encode()).
		Int("items", len(rs.Items)).
		Int("total_pages", rs.TotalPages).
		Int("total_items", rs.TotalItems).
		Msg("Items fetched")

	return &rs, nil
}

// FetchPage implements pagination.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, q listing.Query) (*listing.ResultSet, error) {
	return c.ListItems(ctx, q)
}

// Health checks that the collection service is reachable.
func (c *Client) Health(ctx context.Context) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + HealthPath

	var body struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, HealthPath, u.String(), &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return &CollectionError{
			StatusCode: http.StatusOK,
			Class:      ErrorClassService,
			Message:    fmt.Sprintf("unhealthy status %q", body.Status),
		}
	}
	return nil
}

// getJSON performs a GET request and decodes a 2xx JSON body into dest.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, dest any) error {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return newTransportError(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", rawURL).
		Msg("Executing collection request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// superseded or torn down; not a service fault
			requestsTotal.WithLabelValues(endpoint, "cancelled").Inc()
			c.logger.Debug().Err(err).Str("endpoint", endpoint).Msg("Request cancelled")
		} else {
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			errorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		}
		return newTransportError(err)
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if class := classifyStatus(resp.StatusCode); class != "" {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			// a truncated body is not a usable message
			body = nil
		}
		errorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Collection request error")
		return newServiceError(resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return newTransportError(err)
		}
		errorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Reading collection response failed")
		return newTransportError(fmt.Errorf("read response: %w", err))
	}

	// the whole body must be one JSON value; trailing data is malformed
	if err := json.Unmarshal(body, dest); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassMalformed)).Inc()
		c.logger.Warn().
			Err(err).
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Msg("Malformed collection response")
		return newMalformedError(resp.StatusCode, err)
	}

	return nil
}
