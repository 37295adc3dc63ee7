package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/sessiontimer/internal/timer"
)

// HTTPClient implements Timer by calling the sessiontimer REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the timer lives in another process (reachable over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Timer.
var _ Timer = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey is
// sent with commands when non-empty.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) snapshot(ctx context.Context, method, path string) (timer.Snapshot, error) {
	body, err := c.do(ctx, method, path)
	if err != nil {
		return timer.Snapshot{}, err
	}

	var snap timer.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return timer.Snapshot{}, fmt.Errorf("httpclient: decode snapshot: %w", err)
	}
	return snap, nil
}

func (c *HTTPClient) Start(ctx context.Context) (timer.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/v1/timer/start")
}

func (c *HTTPClient) Pause(ctx context.Context) (timer.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/v1/timer/pause")
}

func (c *HTTPClient) Resume(ctx context.Context) (timer.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/v1/timer/resume")
}

func (c *HTTPClient) Advance(ctx context.Context) (timer.Snapshot, error) {
	return c.snapshot(ctx, http.MethodPost, "/api/v1/timer/next")
}

func (c *HTTPClient) Snapshot(ctx context.Context) (timer.Snapshot, error) {
	return c.snapshot(ctx, http.MethodGet, "/api/v1/timer")
}

func (c *HTTPClient) Summary(ctx context.Context) (timer.Summary, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/timer/summary")
	if err != nil {
		return timer.Summary{}, err
	}

	var sum timer.Summary
	if err := json.Unmarshal(body, &sum); err != nil {
		return timer.Summary{}, fmt.Errorf("httpclient: decode summary: %w", err)
	}
	return sum, nil
}
