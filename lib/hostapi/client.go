// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotRunning is returned when a host answers but does not report
// itself running, including any non-2xx status response.
var ErrNotRunning = errors.New("host is not running")

// Client talks to one host's admin surface.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient returns a Client for baseURL whose requests time out after
// timeout. A zero timeout means no client-side limit; callers then
// bound requests through their context.
func NewClient(baseURL *url.URL, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the host's root URL.
func (c *Client) BaseURL() *url.URL {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// Status fetches the host's Status. A non-2xx response returns
// ErrNotRunning with the response body in the message.
func (c *Client) Status(ctx context.Context) (Status, error) {
	response, err := c.get(ctx, StatusPath)
	if err != nil {
		return Status{}, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return Status{}, fmt.Errorf("%s%s returned %d: %s: %w",
			c.baseURL, StatusPath, response.StatusCode, errorBody(response.Body), ErrNotRunning)
	}

	var status Status
	if err := decodeResponse(response.Body, &status); err != nil {
		return Status{}, fmt.Errorf("decoding host status: %w", err)
	}
	return status, nil
}

// Live is the liveness probe: the host accepted the connection and
// reports itself running. Every failure collapses to false.
func (c *Client) Live(ctx context.Context) bool {
	status, err := c.Status(ctx)
	return err == nil && status.IsRunning
}

// Ping checks that the listener answers at all, without decoding a
// body.
func (c *Client) Ping(ctx context.Context) error {
	response, err := c.get(ctx, PingPath)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	io.Copy(io.Discard, io.LimitReader(response.Body, MaxResponseSize))

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("%s%s returned %d: %w", c.baseURL, PingPath, response.StatusCode, ErrNotRunning)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	target := c.baseURL.JoinPath(path)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}
	request.Header.Set("Accept", "application/json")
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", target, err)
	}
	return response, nil
}

func decodeResponse(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// errorBody reads an error response for diagnostics. Read errors are
// ignored; a partial body is still useful in a message.
func errorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return string(data)
}
