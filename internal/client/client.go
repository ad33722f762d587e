// Package client talks to a running workbench server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/engine"
	"github.com/lazypower/workbench/internal/workflow"
)

const (
	// EnvURL overrides the server URL.
	EnvURL = "WORKBENCH_URL"

	defaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 30 * time.Second
)

// Client talks to the workbench HTTP API.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty URL falls back to
// $WORKBENCH_URL, then to http://127.0.0.1:37778.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv(EnvURL)
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Status fetches the workbench status.
func (c *Client) Status(ctx context.Context) (engine.Status, error) {
	var st engine.Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &st)
	return st, err
}

// Stimulate gives amount STI to one atom and returns the amount moved.
func (c *Client) Stimulate(ctx context.Context, atomType, name string, amount float64) (float64, error) {
	body := map[string]any{"type": atomType, "name": name, "amount": amount}
	var resp struct {
		Stimulated float64 `json:"stimulated"`
	}
	err := c.do(ctx, http.MethodPost, "/api/attention/stimulate", body, &resp)
	return resp.Stimulated, err
}

// RunCycle runs the attention cycle on the server.
func (c *Client) RunCycle(ctx context.Context, iterations int) (attention.Stats, error) {
	var st attention.Stats
	err := c.do(ctx, http.MethodPost, "/api/attention/cycle", map[string]int{"iterations": iterations}, &st)
	return st, err
}

// ReasonAboutGoal fetches the reachability reasoning for a goal.
func (c *Client) ReasonAboutGoal(ctx context.Context, goal string) (*engine.GoalReasoning, error) {
	var r engine.GoalReasoning
	if err := c.do(ctx, http.MethodGet, "/api/goals/"+url.PathEscape(goal)+"/reasoning", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ExecuteWorkflow runs a workflow created on the server.
func (c *Client) ExecuteWorkflow(ctx context.Context, id string) (*workflow.Report, error) {
	var rep workflow.Report
	if err := c.do(ctx, http.MethodPost, "/api/workflows/"+url.PathEscape(id)+"/execute", nil, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// StatusError is returned for 4xx and 5xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}
