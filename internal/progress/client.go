// Package progress reports workout progress to the backend that owns the
// session: per-set updates and the final session completion.
package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/claude/sessiontimer/internal/models"
	"github.com/google/uuid"
)

// ErrNotSuccess marks a response whose status flag is not "success".
var ErrNotSuccess = errors.New("backend reported failure")

// ErrUnreachable marks a request that never got an HTTP response.
var ErrUnreachable = errors.New("backend unreachable")

// Backend is the pair of progress endpoints.
type Backend interface {
	SaveExercise(ctx context.Context, sessionID, exerciseID int64, completedSets int) (*models.StatusResponse, error)
	CompleteSession(ctx context.Context, sessionID int64) (*models.StatusResponse, error)
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// Compile-time check: Client satisfies Backend.
var _ Backend = (*Client)(nil)

// NewClient creates a Client for the backend at baseURL.
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
	}
}

// SaveExercise records the number of sets reached for one exercise.
func (c *Client) SaveExercise(ctx context.Context, sessionID, exerciseID int64, completedSets int) (*models.StatusResponse, error) {
	body := models.SaveExerciseRequest{
		SessionID:     sessionID,
		ExerciseID:    exerciseID,
		CompletedSets: completedSets,
	}
	return c.post(ctx, "/api/save-exercise/", body)
}

// CompleteSession marks the session finished.
func (c *Client) CompleteSession(ctx context.Context, sessionID int64) (*models.StatusResponse, error) {
	return c.post(ctx, fmt.Sprintf("/workout/session/%d/complete/", sessionID), nil)
}

func (c *Client) post(ctx context.Context, path string, payload any) (*models.StatusResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("progress: marshaling %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("progress: csrf token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("progress: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CSRFToken", token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	// Django checks Referer on HTTPS POSTs.
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("progress: %s: %w: %w", path, ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("progress: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("progress: %s returned %d: %s", path, resp.StatusCode, raw)
	}

	var status models.StatusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("progress: decode %s response: %w", path, err)
	}
	if !status.OK() {
		return &status, fmt.Errorf("%w: %s: status %q: %s", ErrNotSuccess, path, status.Status, status.Message)
	}
	return &status, nil
}
