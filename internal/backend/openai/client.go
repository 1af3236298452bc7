// Package openai is a small REST client for the OpenAI endpoints the media tools
// use: image generation, text-to-speech, responses and model listing.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/core"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
)

const (
	DefaultBaseURL = "https://api.openai.com"

	defaultHTTPTimeout = 5 * time.Minute
	maxErrorSnippet    = 512
)

// Config captures the settings required to talk to the API.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client calls the OpenAI REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a client. The API key is required.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse openai base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "openai: api error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("openai %s: http %d: %s", e.Op, e.StatusCode, msg)
}

// Transient reports whether a retry may succeed.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode/100 == 5
}

type errorBody struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func newAPIError(op string, status int, body []byte) *APIError {
	msg := ""
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != nil {
		msg = eb.Error.Message
	}
	if strings.TrimSpace(msg) == "" {
		msg = string(body)
	}
	return &APIError{Op: op, StatusCode: status, Message: redact.Truncate(msg, maxErrorSnippet)}
}

// classifyErr marks failures the worker pool may retry.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Transient() {
			return &core.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &core.TransientError{Err: err}
	}
	return err
}

// send issues one request and returns the open response for 2xx answers. The caller
// closes the body.
func (c *Client) send(ctx context.Context, op, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("openai %s: encode body: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("openai %s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyErr(fmt.Errorf("openai %s: %w", op, err))
	}
	if resp.StatusCode/100 != 2 {
		defer func() {
			_ = resp.Body.Close()
		}()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, classifyErr(newAPIError(op, resp.StatusCode, b))
	}
	return resp, nil
}

// doJSON issues one request and decodes a JSON answer into out.
func (c *Client) doJSON(ctx context.Context, op, method, path string, payload, out any) error {
	resp, err := c.send(ctx, op, method, path, payload)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classifyErr(fmt.Errorf("openai %s: decode response: %w", op, err))
	}
	return nil
}
