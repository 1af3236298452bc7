// Package anki is a minimal client for the AnkiConnect add-on.
//
// AnkiConnect speaks a small JSON-RPC dialect over HTTP POST: every request is
// {"action", "params", "version"} and every well-formed response is an object with
// exactly two keys, "error" and "result".
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
)

const (
	// DefaultURL is where AnkiConnect listens unless reconfigured.
	DefaultURL = "http://127.0.0.1:8765"

	// ProtocolVersion is the AnkiConnect API version this client speaks.
	ProtocolVersion = 6

	defaultHTTPTimeout = 60 * time.Second
	maxErrorSnippet    = 256
)

// Client calls a single AnkiConnect endpoint. It holds no per-request state and is
// safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient constructs a client for the given AnkiConnect URL. An empty URL means
// DefaultURL.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	c := &Client{
		endpoint: u.String(),
		http:     &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the resolved AnkiConnect URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func parseEndpoint(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = DefaultURL
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse anki connect url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("anki connect url must include a host (got %q)", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

type request struct {
	Action  string `json:"action"`
	Params  any    `json:"params"`
	Version int    `json:"version"`
}

// Invoke performs one AnkiConnect action and decodes the result into out (which may
// be nil when the result is ignored). Every failure is a *StoreError.
func (c *Client) Invoke(ctx context.Context, action string, params any, out any) error {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(request{Action: action, Params: params, Version: ProtocolVersion})
	if err != nil {
		return newStoreError(action, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return newStoreError(action, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return newStoreError(action, "failed to reach AnkiConnect at "+c.endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return newStoreError(action, "read response", err)
	}
	if resp.StatusCode/100 != 2 {
		return &StoreError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Message:    "unexpected http status: " + redact.Truncate(string(b), maxErrorSnippet),
		}
	}

	result, err := decodeEnvelope(action, b)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return newStoreError(action, "decode result", err)
	}
	return nil
}

// decodeEnvelope validates the two-key response contract and returns the raw result.
func decodeEnvelope(action string, body []byte) (json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, newStoreError(action, "response is not a JSON object", err)
	}
	if len(env) != 2 {
		return nil, newStoreError(action, "response has an unexpected number of fields", nil)
	}
	rawErr, ok := env["error"]
	if !ok {
		return nil, newStoreError(action, "response is missing required error field", nil)
	}
	result, ok := env["result"]
	if !ok {
		return nil, newStoreError(action, "response is missing required result field", nil)
	}
	if msg, isErr := remoteError(rawErr); isErr {
		return nil, newStoreError(action, msg, nil)
	}
	return result, nil
}

// remoteError reports whether the error field is non-null and renders it as text.
func remoteError(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return redact.Truncate(s, maxErrorSnippet), true
	}
	return redact.Truncate(string(trimmed), maxErrorSnippet), true
}
