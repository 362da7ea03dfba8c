package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API is the remote training service contract the orchestrator depends on.
type API interface {
	Submit(ctx context.Context, g GraphPayload) (*SubmitResponse, error)
	Status(ctx context.Context, jobID string) (*StatusResponse, error)
	Cancel(ctx context.Context, jobID string) error
	Validate(ctx context.Context, g GraphPayload) (*ValidateResponse, error)
}

// Client talks to the training service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the service at baseURL (no trailing slash).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit sends a graph for execution and returns the created job.
func (c *Client) Submit(ctx context.Context, g GraphPayload) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.post(ctx, "/jobs", g, &resp); err != nil {
		return nil, fmt.Errorf("trainer: submit: %w", err)
	}
	return &resp, nil
}

// Status fetches the current state of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get(ctx, "/jobs/"+jobID, &resp); err != nil {
		return nil, fmt.Errorf("trainer: status: %w", err)
	}
	return &resp, nil
}

// Cancel asks the service to stop a job. Best effort: the service is the
// authority on whether work actually halts.
func (c *Client) Cancel(ctx context.Context, jobID string) error {
	if err := c.post(ctx, "/jobs/"+jobID+"/cancel", nil, nil); err != nil {
		return fmt.Errorf("trainer: cancel: %w", err)
	}
	return nil
}

// Validate runs the server-side re-validation of a graph.
func (c *Client) Validate(ctx context.Context, g GraphPayload) (*ValidateResponse, error) {
	var resp ValidateResponse
	if err := c.post(ctx, "/validate", g, &resp); err != nil {
		return nil, fmt.Errorf("trainer: validate: %w", err)
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiError extracts the service's {"error": "..."} body, falling back to the
// HTTP status when the body isn't in that shape.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s (status %d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
