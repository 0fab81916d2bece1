package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/necyberteam/qabot/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Result is the normalized outcome of one proxy POST. Submit never retries
// automatically; retry is a user-initiated re-traversal of the flow.
type Result struct {
	Success   bool
	Status    int
	TicketKey string
	TicketURL string
	Err       string
	Data      map[string]any
}

// Client posts prepared payloads to the ticketing proxy.
type Client struct {
	base   string
	httpc  *http.Client
	logger *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a proxy client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		httpc:  &http.Client{Timeout: defaultTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts the payload to base URL + endpoint. A non-2xx response or a
// transport failure produces a failed Result; it never returns through a
// panic or a Go error, so a dialog can always render the outcome.
func (c *Client) Submit(ctx context.Context, payload *Payload, endpoint string) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Err: err.Error()}
	}

	url := c.base + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Err: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("ticket submission failed", "endpoint", endpoint, "err", err)
		return Result{Err: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode, Err: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("ticket submission rejected", "endpoint", endpoint, "status", resp.StatusCode)
		return Result{Status: resp.StatusCode, Err: strings.TrimSpace(string(raw))}
	}

	var parsed struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{Status: resp.StatusCode, Err: err.Error()}
	}

	result := Result{
		Success: true,
		Status:  resp.StatusCode,
		Data:    parsed.Data,
	}
	if key, ok := parsed.Data["ticketKey"].(string); ok {
		result.TicketKey = key
	}
	if url, ok := parsed.Data["ticketUrl"].(string); ok {
		result.TicketURL = url
	}
	return result
}
