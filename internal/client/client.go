// Package client posts JSON documents to a remote backup endpoint.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is a HTTP client bound to one remote endpoint
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
}

// Reply is what the remote endpoint sent back
type Reply struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New returns a Client for target whose calls give up after timeout
func New(target string, timeout time.Duration) (*Client, error) {

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("could not parse target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported target URL scheme %q", u.Scheme)
	}

	return &Client{
		BaseURL:    u,
		HTTPClient: &http.Client{Timeout: timeout},
	}, nil
}

// NewRequest creates a JSON POST request to the base URL
func (c *Client) NewRequest(ctx context.Context, body []byte) (*http.Request, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// Do makes a HTTP request
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.HTTPClient.Do(req)
}

// Post sends body and reads the whole reply
func (c *Client) Post(ctx context.Context, body []byte) (*Reply, error) {

	req, err := c.NewRequest(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("could not make request: %w", err)
	}

	res, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	return &Reply{StatusCode: res.StatusCode, Body: b}, nil
}
