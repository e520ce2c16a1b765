// Package client implements the HTTP collaborator for the backend intel
// API: plain GET calls with query params, service-key injection and JSON
// decoding. Callers get decoded payloads and never touch the transport.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the backend intel API
type Client struct {
	http       *http.Client
	baseURL    string
	serviceKey string
	userAgent  string
}

// New creates a client for the given API base URL. The service key, when
// set, is sent with every request; the backend rejects unkeyed calls.
func New(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		userAgent:  "intelscope/1.0",
	}
}

// Get issues a GET request to path with the given query params and decodes
// the JSON response. Non-2xx statuses and undecodable bodies are errors.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (any, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.serviceKey != "" {
		req.Header.Set("X-Service-Key", c.serviceKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("get %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}

	return data, nil
}
