package feishu

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenCacheRefreshesInsideMargin(t *testing.T) {
	calls := 0
	cache := NewTokenCache(func(context.Context) (string, int, error) {
		calls++
		return "tok-" + string(rune('0'+calls)), 7200, nil
	}, 0)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := cache.Token(context.Background(), start)
	if err != nil || got != "tok-1" {
		t.Fatalf("first Token = %q, %v", got, err)
	}
	if got, _ := cache.Token(context.Background(), start.Add(7200*time.Second-61*time.Second)); got != "tok-1" {
		t.Fatalf("token refreshed too early: %q", got)
	}
	if got, _ := cache.Token(context.Background(), start.Add(7200*time.Second-60*time.Second)); got != "tok-2" {
		t.Fatalf("token not refreshed at margin: %q", got)
	}
	if calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", calls)
	}
}

func TestTokenCacheInvalidate(t *testing.T) {
	calls := 0
	cache := NewTokenCache(func(context.Context) (string, int, error) {
		calls++
		return "tok", 7200, nil
	}, time.Minute)
	now := time.Now()
	_, _ = cache.Token(context.Background(), now)
	cache.Invalidate()
	_, _ = cache.Token(context.Background(), now)
	if calls != 2 {
		t.Fatalf("fetch calls = %d, want 2", calls)
	}
}

func TestTokenCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	cache := NewTokenCache(func(context.Context) (string, int, error) { return "", 0, boom }, 0)
	if _, err := cache.Token(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	empty := NewTokenCache(func(context.Context) (string, int, error) { return "", 7200, nil }, 0)
	if _, err := empty.Token(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for empty token")
	}
}
