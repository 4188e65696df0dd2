package transcriptapi

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
	"unicode/utf8"

	"curator/internal/config"
)

const (
	summarizePath   = "/summarizeWithConfig"
	defaultLanguage = "zh-Hans"
	maxErrorBody    = 512
)

var (
	// ErrMissingAPIKey reports that no credential is configured.
	ErrMissingAPIKey = errors.New("transcript api key not configured")
	// ErrPaymentRequired reports exhausted credit or an unpaid plan.
	ErrPaymentRequired = errors.New("transcript api payment required")
	// ErrEmptyTranscript reports a successful response without transcript text.
	ErrEmptyTranscript = errors.New("transcript api returned empty transcript")
	// ErrTransport marks retryable failures (network, 429, 5xx).
	ErrTransport = errors.New("transcript api transport failure")
)

// TransportError wraps a retryable failure.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transcript api: http %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transcript api: %v", e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// APIError is a terminal rejection reported by the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	parts := []string{"transcript api error"}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("http %d", e.StatusCode))
	}
	if e.Code != "" {
		parts = append(parts, "code "+e.Code)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	return strings.Join(parts, ": ")
}

// Transcript is the decoded service result.
type Transcript struct {
	Text            string
	Summary         string
	Title           string
	CoverURL        string
	Language        string
	DurationSeconds int
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client calls the transcript service.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New constructs a client from configuration.
func New(cfg config.TranscriptAPI, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	c := &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Transcribe requests the transcript of url. It makes exactly one HTTP call.
func (c *Client) Transcribe(ctx context.Context, url string) (Transcript, error) {
	if !c.Configured() {
		return Transcript{}, ErrMissingAPIKey
	}
	body, err := json.Marshal(map[string]any{"url": url, "includeDetail": true})
	if err != nil {
		return Transcript{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+summarizePath, bytes.NewReader(body))
	if err != nil {
		return Transcript{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Transcript{}, ctx.Err()
		}
		return Transcript{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcript{}, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusPaymentRequired:
		return Transcript{}, fmt.Errorf("%w: %s", ErrPaymentRequired, snippet(raw))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Transcript{}, &TransportError{StatusCode: resp.StatusCode, Err: errors.New(snippet(raw))}
	case resp.StatusCode >= 400:
		return Transcript{}, &APIError{StatusCode: resp.StatusCode, Message: snippet(raw)}
	}
	return decodeResponse(raw)
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	if text == "" {
		return "empty body"
	}
	return text
}
