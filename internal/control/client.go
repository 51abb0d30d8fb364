// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package control

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/samber/oops"
)

// DefaultClientTimeout bounds each control request.
const DefaultClientTimeout = 2 * time.Second

// Client talks to a control socket.
type Client struct {
	path string
	http *http.Client
}

// NewClient returns a client for the socket at path.
func NewClient(path string) *Client {
	return &Client{
		path: path,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", path)
				},
			},
			Timeout: DefaultClientTimeout,
		},
	}
}

// Health queries /health.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	return resp, c.do(ctx, http.MethodGet, "/health", &resp)
}

// Status queries /status.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var resp StatusResponse
	return resp, c.do(ctx, http.MethodGet, "/status", &resp)
}

// Reset posts /reset.
func (c *Client) Reset(ctx context.Context) (ActionResponse, error) {
	var resp ActionResponse
	return resp, c.do(ctx, http.MethodPost, "/reset", &resp)
}

// Shutdown posts /shutdown.
func (c *Client) Shutdown(ctx context.Context) (ActionResponse, error) {
	var resp ActionResponse
	return resp, c.do(ctx, http.MethodPost, "/shutdown", &resp)
}

func (c *Client) do(ctx context.Context, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, "http://localhost"+endpoint, http.NoBody)
	if err != nil {
		return oops.Code(CodeUnreachable).With("endpoint", endpoint).Wrap(err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return oops.Code(CodeUnreachable).With("path", c.path).With("endpoint", endpoint).Wrapf(err, "query control socket")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return oops.Code(CodeBadResponse).With("endpoint", endpoint).With("status", resp.StatusCode).
			Errorf("control socket answered %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return oops.Code(CodeBadResponse).With("endpoint", endpoint).Wrapf(err, "decode response")
	}
	return nil
}
