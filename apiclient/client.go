// Package apiclient is the single chokepoint for every call the storefront
// makes to the shop backend. It owns the bearer token, normalizes response
// envelopes and classifies failures into network, HTTP and decode errors.
//
// Usage:
//
//	client := apiclient.New("http://localhost:3001/api",
//	    apiclient.WithLogger(slog.Default()),
//	)
//
//	auth, err := client.Login(ctx, "reader@example.com", "secret")
//	if err != nil {
//	    var netErr *apiclient.NetworkError
//	    if errors.As(err, &netErr) {
//	        // backend unreachable
//	    }
//	    return err
//	}
//	client.SetToken(auth.Token)
//
//	products, err := client.Products(ctx, 1, 20, "go")
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3001/api"

// Client issues requests against the backend REST API. A Client is safe for
// concurrent use; the token may be replaced at any time and only affects
// calls started afterwards.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	token string
}

type config func(*Client)

// WithHTTPClient sets the http.Client used for every request.
// (default http.DefaultClient.)
func WithHTTPClient(hc *http.Client) config {
	return config(func(c *Client) {
		c.http = hc
	})
}

// WithLogger sets the logger used to record every request. (default
// slog.Default().)
func WithLogger(logger *slog.Logger) config {
	return config(func(c *Client) {
		c.logger = logger
	})
}

// WithToken sets the initial bearer token.
func WithToken(token string) config {
	return config(func(c *Client) {
		c.token = token
	})
}

// New creates a Client for the API rooted at baseURL. Trailing slashes are
// removed from baseURL.
func New(baseURL string, cfgs ...config) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  slog.Default(),
	}

	for _, cfg := range cfgs {
		cfg(c)
	}

	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken replaces the bearer token. An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer token, or "" when none is set.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// FileURL resolves an asset path returned by the API (cover images, PDFs)
// into an absolute URL. Absolute URLs are returned unchanged; relative
// paths are resolved against the base URL without its trailing /api.
func (c *Client) FileURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http") {
		return path
	}

	root := strings.TrimSuffix(c.baseURL, "/api")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return root + path
}

// RequestOptions describes a single API call.
type RequestOptions struct {
	// Method defaults to GET.
	Method string

	// Query is appended to the endpoint.
	Query url.Values

	// Body is JSON encoded unless it is a []byte or an io.Reader, in which
	// case it is sent as is (binary or multipart payloads).
	Body any

	// Header holds extra request headers. A Content-Type set here is never
	// overridden.
	Header http.Header
}

// Request sends a request to endpoint, which is relative to the base URL.
// A 2xx response is returned as is; anything else is turned into an
// *APIError. Transport failures are reported as *NetworkError unless ctx
// was cancelled, in which case the context error is returned.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.url(endpoint, opts.Query)

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for name, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	token := c.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	requestID := newRequestID()
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Info("api request",
		"method", method,
		"url", target,
		"has_token", token != "",
		"request_id", requestID,
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("api unreachable", "base_url", c.baseURL, "request_id", requestID, "err", err)
		return nil, &NetworkError{BaseURL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{BaseURL: c.baseURL, Err: err}
	}

	c.logger.Info("api response",
		"status", resp.StatusCode,
		"latency", time.Since(start),
		"request_id", requestID,
	)

	r := newResponse(resp, data)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(r, resp.Status)
		c.logger.Warn("api error", "status", resp.StatusCode, "message", apiErr.Message, "request_id", requestID)
		return nil, apiErr
	}

	return r, nil
}

// url joins the base URL and endpoint with exactly one slash.
func (c *Client) url(endpoint string, query url.Values) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}
	return target
}

// encodeBody returns the request body and the content type it implies.
// Raw payloads carry no implied content type.
func encodeBody(v any) (io.Reader, string, error) {
	switch b := v.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case io.Reader:
		return b, "", nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
