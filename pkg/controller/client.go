package controller

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// basePath is the API prefix for all controller collections.
const basePath = "/api/eda/v1"

// APIError is a non-2xx response from the controller. It carries enough
// context (method, endpoint, status, body) to diagnose a failure without
// re-running with verbose logging.
type APIError struct {
	StatusCode int
	Method     string
	Endpoint   string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("controller API error: %s %s returned %d: %s",
		e.Method, e.Endpoint, e.StatusCode, body)
}

// RequestObserver is notified after every completed API request. It is how
// the telemetry metrics layer hooks into the client without the client
// depending on it.
type RequestObserver func(method, endpoint string, status int, duration time.Duration)

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver registers a request observer.
func WithObserver(obs RequestObserver) Option {
	return func(c *Client) { c.observer = obs }
}

// Client is the EDA controller API client. All methods are safe for
// sequential use; the reconciliation core never calls it concurrently.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	observer   RequestObserver
}

// NewClient creates a controller client from the given configuration.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}

	c := &Client{
		baseURL:  cfg.BaseURL(),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches one page of a collection, optionally filtered by query
// parameters. The controller substring-matches name filters; callers that
// need an exact match must scan the results themselves.
func (c *Client) List(ctx context.Context, endpoint string, filter map[string]string) (*Page, error) {
	path := collectionPath(endpoint)
	if len(filter) > 0 {
		q := url.Values{}
		for k, v := range filter {
			q.Set(k, v)
		}
		path += "?" + q.Encode()
	}

	var page Page
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAll fetches every page of a collection and returns the combined
// results. Pagination cursors returned by the controller are absolute
// URLs; only their path and query are reused.
func (c *Client) ListAll(ctx context.Context, endpoint string, filter map[string]string) ([]Object, error) {
	page, err := c.List(ctx, endpoint, filter)
	if err != nil {
		return nil, err
	}

	results := page.Results
	for page.Next != nil {
		path, err := relativePath(*page.Next)
		if err != nil {
			return nil, fmt.Errorf("invalid pagination cursor for %s: %w", endpoint, err)
		}
		next := &Page{}
		if err := c.doJSON(ctx, http.MethodGet, path, nil, next); err != nil {
			return nil, err
		}
		results = append(results, next.Results...)
		page = next
	}
	return results, nil
}

// Get fetches a single resource by identifier.
func (c *Client) Get(ctx context.Context, endpoint string, id any) (Object, error) {
	var obj Object
	if err := c.doJSON(ctx, http.MethodGet, resourcePath(endpoint, id), nil, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Create creates a resource and returns its server-side representation.
func (c *Client) Create(ctx context.Context, endpoint string, fields map[string]any) (Object, error) {
	var obj Object
	if err := c.doJSON(ctx, http.MethodPost, collectionPath(endpoint), fields, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Update patches an existing resource and returns the updated
// representation.
func (c *Client) Update(ctx context.Context, endpoint string, id any, fields map[string]any) (Object, error) {
	var obj Object
	if err := c.doJSON(ctx, http.MethodPatch, resourcePath(endpoint, id), fields, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Delete removes a resource by identifier.
func (c *Client) Delete(ctx context.Context, endpoint string, id any) error {
	return c.doJSON(ctx, http.MethodDelete, resourcePath(endpoint, id), nil, nil)
}

// doJSON performs one authenticated request and decodes the JSON response
// into out (which may be nil for responses without a useful body).
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body for %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, path, 0, start)
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(method, path, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Endpoint:   path,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(method, path string, status int, start time.Time) {
	if c.observer != nil {
		c.observer(method, path, status, time.Since(start))
	}
}

func collectionPath(endpoint string) string {
	return basePath + "/" + strings.Trim(endpoint, "/") + "/"
}

func resourcePath(endpoint string, id any) string {
	return collectionPath(endpoint) + FormatID(id) + "/"
}

// relativePath strips the scheme and host from a pagination cursor so the
// follow-up request goes through the same authenticated client.
func relativePath(cursor string) (string, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		return "", fmt.Errorf("cursor %q has no path", cursor)
	}
	path := u.Path
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return path, nil
}
