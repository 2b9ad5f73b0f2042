package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/matzehuels/flowplan/pkg/httputil"
	"github.com/matzehuels/flowplan/pkg/retry"
)

// Client calls a flowplan server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 2 * DefaultTimeout},
	}
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Solve posts to /v1/solve.
func (c *Client) Solve(ctx context.Context, req SolveRequest) (*SolveResponse, error) {
	var out SolveResponse
	if err := c.do(ctx, http.MethodPost, "/v1/solve", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Flows posts to /v1/flows.
func (c *Client) Flows(ctx context.Context, req SolveRequest) (*SolveResponse, error) {
	var out SolveResponse
	if err := c.do(ctx, http.MethodPost, "/v1/flows", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Diagnose posts to /v1/diagnose.
func (c *Client) Diagnose(ctx context.Context, req SolveRequest) (*DiagnoseResponse, error) {
	var out DiagnoseResponse
	if err := c.do(ctx, http.MethodPost, "/v1/diagnose", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Propagate posts to /v1/propagate.
func (c *Client) Propagate(ctx context.Context, req PropagateRequest) (*PropagateResponse, error) {
	var out PropagateResponse
	if err := c.do(ctx, http.MethodPost, "/v1/propagate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balance posts to /v1/balance.
func (c *Client) Balance(ctx context.Context, req SolveRequest) (*BalanceResponse, error) {
	var out BalanceResponse
	if err := c.do(ctx, http.MethodPost, "/v1/balance", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: 2 * DefaultTimeout}
	}
	return retry.HTTP.Do(ctx, func() error {
		return httputil.DoJSON(ctx, client, method, c.BaseURL+path, in, out)
	})
}
