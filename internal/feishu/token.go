package feishu

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTokenMargin is subtracted from the token lifetime before refresh.
const DefaultTokenMargin = 60 * time.Second

// TokenFetcher obtains a new token and its lifetime in seconds.
type TokenFetcher func(ctx context.Context) (token string, expireSeconds int, err error)

// TokenCache caches a tenant access token until it nears expiry.
type TokenCache struct {
	fetch  TokenFetcher
	margin time.Duration

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenCache wraps fetch with a refresh margin (DefaultTokenMargin when zero).
func NewTokenCache(fetch TokenFetcher, margin time.Duration) *TokenCache {
	if margin <= 0 {
		margin = DefaultTokenMargin
	}
	return &TokenCache{fetch: fetch, margin: margin}
}

// Token returns the cached token, refreshing when now >= expiry - margin.
func (c *TokenCache) Token(ctx context.Context, now time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && now.Before(c.expiry.Add(-c.margin)) {
		return c.token, nil
	}
	if c.fetch == nil {
		return "", errors.New("feishu token: no fetcher configured")
	}
	token, expire, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.New("feishu token: empty token returned")
	}
	c.token = token
	c.expiry = now.Add(time.Duration(expire) * time.Second)
	return c.token, nil
}

// Invalidate drops the cached token so the next call refreshes.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expiry = time.Time{}
	c.mu.Unlock()
}

// Expiry returns the expiry of the cached token.
func (c *TokenCache) Expiry() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expiry
}
