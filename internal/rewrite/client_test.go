package rewrite

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"curator/internal/config"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, _ *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": content},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}
}

func testConfig(baseURL string) config.Rewrite {
	return config.Rewrite{Enabled: true, APIKey: "test", BaseURL: baseURL, Model: "demo-model", Referer: "https://example.test", Title: "Test"}
}

func TestClientSendsAttributionHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("authorization = %q", got)
		}
		if r.Header.Get("HTTP-Referer") != "https://example.test" || r.Header.Get("X-Title") != "Test" {
			t.Errorf("missing attribution headers: %v", r.Header)
		}
		var body chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "demo-model" || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected request %+v", body)
		}
		completionHandler(t, "OK")(w, r)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestClientRequiresKey(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.APIKey = " "
	client := NewClient(cfg)
	if _, err := client.Complete(context.Background(), "", "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestClientDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": "fallback content"}},
		"legacy": {"text": "fallback content"},
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{choice}})
			}))
			defer server.Close()
			got, err := NewClient(testConfig(server.URL)).Complete(context.Background(), "", "hi")
			if err != nil || got != "fallback content" {
				t.Fatalf("Complete = %q, %v", got, err)
			}
		})
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, ""))
	defer server.Close()

	client := NewClient(testConfig(server.URL), WithRetryBackoff(0, 0), WithSleeper(func(time.Duration) {}))
	_, err := client.Complete(context.Background(), "", "hi")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		completionHandler(t, "# 标题")(w, r)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(testConfig(server.URL),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	got, err := client.Complete(context.Background(), "", "hi")
	if err != nil || got != "# 标题" {
		t.Fatalf("Complete = %q, %v", got, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), WithSleeper(func(time.Duration) {}))
	if _, err := client.Complete(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("400 retried: %d calls", calls)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(testConfig(""), WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := client.retry.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %s, want %s", i+1, got, w)
		}
	}
}
