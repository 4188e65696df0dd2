package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"curator/internal/config"
)

const (
	tokenPath          = "/auth/v3/tenant_access_token/internal"
	uploadPath         = "/drive/v1/medias/upload_all"
	defaultHTTPTimeout = 30 * time.Second
	defaultPageSize    = 100

	// codeTokenInvalid is returned when the tenant token expired early.
	codeTokenInvalid = 99991663
)

// APIError is a non-zero code reported by the Open API.
type APIError struct {
	Op         string
	HTTPStatus int
	Code       int
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("feishu %s: http %d: code %d: %s", e.Op, e.HTTPStatus, e.Code, e.Msg)
}

// Record is a Bitable row.
type Record struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
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

// WithClock overrides the time source for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTokenCache shares a token cache between clients.
func WithTokenCache(cache *TokenCache) Option {
	return func(c *Client) {
		if cache != nil {
			c.tokens = cache
		}
	}
}

// Client talks to one Bitable table.
type Client struct {
	baseURL    string
	appID      string
	appSecret  string
	appToken   string
	tableID    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     *TokenCache
	now        func() time.Time
}

// NewClient builds a client from configuration.
func NewClient(cfg config.Feishu, opts ...Option) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		appToken:   cfg.BitableAppToken,
		tableID:    cfg.TableID,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		now:        time.Now,
	}
	c.tokens = NewTokenCache(c.fetchTenantToken, DefaultTokenMargin)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAuth fetches (or reuses) a tenant token to confirm the credentials.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.tokens.Token(ctx, c.now())
	return err
}

// AppToken returns the Bitable app token the client writes to.
func (c *Client) AppToken() string { return c.appToken }

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) fetchTenantToken(ctx context.Context) (string, int, error) {
	body, err := json.Marshal(map[string]string{"app_id": c.appID, "app_secret": c.appSecret})
	if err != nil {
		return "", 0, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("feishu token: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("feishu token: %w", err)
	}
	defer resp.Body.Close()
	var payload struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("feishu token: decode: %w", err)
	}
	if payload.Code != 0 {
		return "", 0, &APIError{Op: "token", HTTPStatus: resp.StatusCode, Code: payload.Code, Msg: payload.Msg}
	}
	return payload.TenantAccessToken, payload.Expire, nil
}

// do sends an authenticated request and decodes data into out. A token
// rejected as invalid is refreshed once.
func (c *Client) do(ctx context.Context, op string, build func() (*http.Request, error), out any) error {
	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx, op, build, out)
		var apiErr *APIError
		if attempt == 0 && errors.As(err, &apiErr) && apiErr.Code == codeTokenInvalid {
			c.tokens.Invalidate()
			continue
		}
		return err
	}
}

func (c *Client) doOnce(ctx context.Context, op string, build func() (*http.Request, error), out any) error {
	token, err := c.tokens.Token(ctx, c.now())
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := build()
	if err != nil {
		return fmt.Errorf("feishu %s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feishu %s: %w", op, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("feishu %s: read body: %w", op, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Op: op, HTTPStatus: resp.StatusCode, Code: -1, Msg: snippet(raw)}
	}
	if env.Code != 0 {
		return &APIError{Op: op, HTTPStatus: resp.StatusCode, Code: env.Code, Msg: env.Msg}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("feishu %s: decode data: %w", op, err)
		}
	}
	return nil
}

func (c *Client) recordsURL(parts ...string) string {
	base := fmt.Sprintf("%s/bitable/v1/apps/%s/tables/%s/records", c.baseURL, url.PathEscape(c.appToken), url.PathEscape(c.tableID))
	for _, part := range parts {
		base += "/" + url.PathEscape(part)
	}
	return base
}

func jsonRequest(ctx context.Context, method, endpoint string, body any) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json; charset=utf-8")
		}
		return req, nil
	}
}

// AddRecord creates a row and returns its record id.
func (c *Client) AddRecord(ctx context.Context, fields map[string]any) (string, error) {
	var out struct {
		Record Record `json:"record"`
	}
	build := jsonRequest(ctx, http.MethodPost, c.recordsURL(), map[string]any{"fields": fields})
	if err := c.do(ctx, "add record", build, &out); err != nil {
		return "", err
	}
	return out.Record.RecordID, nil
}

// UpdateRecord overwrites the given fields of an existing row.
func (c *Client) UpdateRecord(ctx context.Context, recordID string, fields map[string]any) error {
	build := jsonRequest(ctx, http.MethodPut, c.recordsURL(recordID), map[string]any{"fields": fields})
	return c.do(ctx, "update record", build, nil)
}

// ListRecords pages through every row of the table.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var all []Record
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(defaultPageSize))
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		var page struct {
			Items     []Record `json:"items"`
			HasMore   bool     `json:"has_more"`
			PageToken string   `json:"page_token"`
		}
		build := jsonRequest(ctx, http.MethodGet, c.recordsURL()+"?"+query.Encode(), nil)
		if err := c.do(ctx, "list records", build, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore || page.PageToken == "" {
			return all, nil
		}
		pageToken = page.PageToken
	}
}

// UploadImage uploads a cover image as a Bitable attachment and returns its file token.
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("feishu upload: read %s: %w", path, err)
	}
	name := filepath.Base(path)
	build := func() (*http.Request, error) {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		fields := [][2]string{
			{"file_name", name},
			{"parent_type", "bitable_image"},
			{"parent_node", c.appToken},
			{"size", strconv.Itoa(len(data))},
		}
		for _, f := range fields {
			if err := form.WriteField(f[0], f[1]); err != nil {
				return nil, err
			}
		}
		part, err := form.CreateFormFile("file", name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := form.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", form.FormDataContentType())
		return req, nil
	}
	var out struct {
		FileToken string `json:"file_token"`
	}
	if err := c.do(ctx, "upload image", build, &out); err != nil {
		return "", err
	}
	return out.FileToken, nil
}

func snippet(raw []byte) string {
	text := strings.Join(strings.Fields(string(raw)), " ")
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
