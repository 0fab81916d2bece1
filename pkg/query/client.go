// Package query talks to the AI backend: one question per turn, each
// correlated by a freshly minted query id, plus the rating endpoint that
// links thumbs feedback back to the specific answer it rates.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/necyberteam/qabot/internal/logging"
)

// Origin identifies which bot deployment a rating belongs to.
type Origin string

const (
	OriginAccess  Origin = "access"
	OriginMetrics Origin = "metrics"
)

// Apology is the fixed text returned when the AI backend is unreachable.
const Apology = "Sorry, I'm having trouble reaching the assistant right now. Please try again in a moment."

const defaultTimeout = 60 * time.Second

// Answer is the outcome of one AI query. Failed answers carry the apology
// text so the dialog can render them directly; the flag lets the branch
// function fall back to the main menu instead of looping forever.
type Answer struct {
	Text    string
	QueryID string
	Failed  bool
}

// Client calls the AI query and rating endpoints.
type Client struct {
	base      string
	apiKey    string
	sessionID string
	origin    Origin
	httpc     *http.Client
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithOrigin sets the rating origin (default "access").
func WithOrigin(origin Origin) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// NewClient creates an AI client bound to one session.
func NewClient(baseURL, apiKey, sessionID string, opts ...Option) *Client {
	c := &Client{
		base:      strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		sessionID: sessionID,
		origin:    OriginAccess,
		httpc:     &http.Client{Timeout: defaultTimeout},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID returns the session this client is bound to.
func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) headers(req *http.Request, queryID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-Session-ID", c.sessionID)
	req.Header.Set("X-Query-ID", queryID)
}

// Ask sends one question, minting a fresh query id for it. Backend or
// parse failures are reported as a failed Answer carrying the apology
// text, never as an error.
func (c *Client) Ask(ctx context.Context, question string) Answer {
	queryID := uuid.NewString()

	body, err := json.Marshal(map[string]string{"query": question})
	if err != nil {
		return Answer{Text: Apology, QueryID: queryID, Failed: true}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/query", bytes.NewReader(body))
	if err != nil {
		return Answer{Text: Apology, QueryID: queryID, Failed: true}
	}
	c.headers(req, queryID)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("AI query failed", "query_id", queryID, "err", err)
		return Answer{Text: Apology, QueryID: queryID, Failed: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("AI query rejected", "query_id", queryID, "status", resp.StatusCode)
		return Answer{Text: Apology, QueryID: queryID, Failed: true}
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Warn("AI response parse failed", "query_id", queryID, "err", err)
		return Answer{Text: Apology, QueryID: queryID, Failed: true}
	}

	return Answer{Text: parsed.Response, QueryID: queryID}
}

// Rate reports thumbs feedback for the answer identified by queryID.
func (c *Client) Rate(ctx context.Context, queryID string, positive bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/rating", nil)
	if err != nil {
		return err
	}
	c.headers(req, queryID)
	req.Header.Set("X-Origin", string(c.origin))
	feedback := "0"
	if positive {
		feedback = "1"
	}
	req.Header.Set("X-Feedback", feedback)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("rating request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("rating rejected with status %d", resp.StatusCode)
	}
	return nil
}
