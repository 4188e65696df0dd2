package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"curator/internal/config"
)

const (
	defaultBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultHTTPTimeout = 180 * time.Second
	defaultTemperature = 0.4
)

// ErrNotConfigured reports a rewrite requested without an API key.
var ErrNotConfigured = errors.New("rewrite api key not configured")

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg   config.Rewrite
	http  *http.Client
	retry retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithRetryMaxAttempts sets the total number of attempts, first call included.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the cap.
func WithRetryBackoff(base, maxDelay time.Duration) Option {
	return func(c *Client) { c.retry.base, c.retry.max = base, maxDelay }
}

// WithSleeper replaces the retry wait.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleep = sleep }
}

// NewClient builds a client from the [rewrite] section.
func NewClient(cfg config.Rewrite, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL = strings.TrimSpace(cfg.BaseURL); cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		retry: retryPolicy{attempts: 4, base: 2 * time.Second, max: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Complete sends one system+user exchange and returns the assistant text.
// Timeouts, 408, 429, 5xx and empty answers are retried.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return "", errors.New("rewrite: user prompt required")
	}
	req := chatCompletionRequest{Model: c.cfg.Model, Temperature: defaultTemperature}
	if systemPrompt = strings.TrimSpace(systemPrompt); systemPrompt != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: userPrompt})
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("rewrite request: encode body: %w", err)
	}

	for attempt := 1; ; attempt++ {
		content, err := c.completeOnce(ctx, body)
		if err == nil {
			return content, nil
		}
		delay, again := c.retry.wait(err, attempt)
		if !again {
			if attempt > 1 {
				return "", fmt.Errorf("rewrite: failed after %d attempts: %w", attempt, err)
			}
			return "", err
		}
		if perr := c.retry.pause(ctx, delay); perr != nil {
			return "", perr
		}
	}
}

// HealthCheck issues a minimal completion to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.Complete(ctx, "Answer with a single word.", "Reply with OK.")
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("rewrite health: empty response")
	}
	return nil
}

func (c *Client) completeOnce(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("rewrite request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("rewrite request (timeout=%s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("rewrite request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("rewrite request: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("rewrite request: api error: %s", strings.TrimSpace(out.Error.Message))
	}
	content, finish, refusal := out.answer()
	if content != "" {
		return content, nil
	}
	if len(out.Choices) == 0 {
		return "", &emptyContentError{Snippet: snippet(string(raw))}
	}
	return "", &emptyContentError{FinishReason: finish, Refusal: refusal, Snippet: snippet(string(raw))}
}
