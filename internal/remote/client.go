// Package remote provides the HTTP client for the recipe resolution
// endpoint (POST /process).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starford/chefgenie/internal/models"
	"github.com/starford/chefgenie/internal/resolver"
)

// DefaultTimeout bounds one round trip to /process.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps the body read from /process.
const maxResponseBytes = 1 << 20

// Ensure Client implements resolver.RemoteClient at compile time.
var _ resolver.RemoteClient = (*Client)(nil)

// Client posts recipe requests to a ChefGenie server.
type Client struct {
	endpoint  string
	timeout   time.Duration
	transport http.RoundTripper
	client    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for a single call.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTransport routes calls through rt, e.g. the offline cache gateway.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// NewClient creates a client for the given /process endpoint URL.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = &http.Client{
		Timeout:   c.timeout,
		Transport: c.transport,
	}
	return c
}

// Process sends {"text": text} and decodes the JSON answer. The status code
// is not interpreted: error answers carry an "error" field in a JSON body.
// A body that is not JSON is reported as an error.
func (c *Client) Process(ctx context.Context, text string) (*models.ProcessResponse, error) {
	payload, err := json.Marshal(models.ProcessRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	var out models.ProcessResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("remote: HTTP %d with non-JSON body: %w", resp.StatusCode, err)
	}
	return &out, nil
}
