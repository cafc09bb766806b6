// Package search forwards queries to the upstream podcast search service.
//
// The upstream answers with JSON on success. When its body is not JSON the
// client reports only the HTTP status code, and the caller decides how to
// present it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pinepods/pinegate/pkg/debug"
	"github.com/pinepods/pinegate/pkg/observability"
)

// DefaultURL is the search endpoint used when none is configured.
const DefaultURL = "http://localhost:5000/api/search"

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of an upstream body is read.
const maxBodySize = 10 << 20

// Config configures a Client.
type Config struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Result is the outcome of one upstream call.
type Result struct {
	// StatusCode is the upstream HTTP status.
	StatusCode int

	// Payload holds the upstream body when it was valid JSON, nil otherwise.
	Payload json.RawMessage
}

// Parsed reports whether the upstream body was valid JSON.
func (r *Result) Parsed() bool {
	return r.Payload != nil
}

// Client calls the upstream search service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a search client. Empty fields take their defaults.
func New(cfg Config) (*Client, error) {
	raw := cfg.URL
	if raw == "" {
		raw = DefaultURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing search url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("search url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("search url %q: missing host", raw)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(raw, "/"),
		httpClient: hc,
	}, nil
}

// Search issues GET {url}?query=<query>. The query is forwarded as given,
// empty included. Only transport failures return an error; any HTTP
// response, including a non-2xx or non-JSON one, yields a Result.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	start := time.Now()
	defer func() {
		observability.SearchLatency.Observe(time.Since(start).Seconds())
	}()

	searchURL := c.baseURL + "?" + url.Values{"query": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		observability.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("executing search request: %w", err)
	}
	defer resp.Body.Close()

	result := &Result{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err == nil && json.Valid(body) {
		result.Payload = json.RawMessage(body)
	}

	outcome := "json"
	if !result.Parsed() {
		outcome = "status_only"
	}
	observability.SearchRequestsTotal.WithLabelValues(outcome).Inc()

	debug.Log("search", "search backend responded",
		"status", resp.StatusCode,
		"outcome", outcome,
		"bytes", len(body),
		"query", debug.Truncate(query, 100),
	)
	debug.Trace("search", "search backend body", "body", debug.Truncate(string(body), 500))

	return result, nil
}
