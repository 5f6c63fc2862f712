package auth

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// expiryBuffer is how close to expiry a token may get before it is
// re-exchanged.
const expiryBuffer = 120 * time.Second

// Token is a short-lived Copilot API token with its validity window, both in
// Unix seconds as reported by the exchange endpoint.
type Token struct {
	Value     string
	ExpiresAt int64
	RefreshIn int64
}

// ExchangeFunc swaps a GitHub token for a Copilot token.
type ExchangeFunc func(ctx context.Context, ghToken string) (Token, error)

type cachedToken struct {
	value     string
	expiresAt int64
}

func (t cachedToken) isValid(now time.Time) bool {
	return t.expiresAt > now.Add(expiryBuffer).Unix()
}

// TokenCache keeps one short-lived Copilot token per GitHub token.
//
// Tokens are exchanged lazily on first use and re-exchanged when they expire
// or come close to it. Concurrent requests with the same GitHub token may
// trigger duplicate exchanges; the exchange is idempotent so that is
// harmless.
type TokenCache struct {
	exchange ExchangeFunc

	mu      sync.RWMutex
	entries map[string]cachedToken
}

func NewTokenCache(exchange ExchangeFunc) *TokenCache {
	return &TokenCache{
		exchange: exchange,
		entries:  make(map[string]cachedToken),
	}
}

// GetCopilotToken returns a valid Copilot token for the given GitHub token,
// exchanging if needed.
func (c *TokenCache) GetCopilotToken(ctx context.Context, ghToken string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[ghToken]
	c.mu.RUnlock()
	if ok {
		if entry.isValid(time.Now()) {
			return entry.value, nil
		}
		logrus.Debug("cached copilot token expired or expiring soon, refreshing")
	}

	tok, err := c.exchange(ctx, ghToken)
	if err != nil {
		return "", err
	}
	logrus.Infof("copilot token exchanged (expires_at=%d refresh_in=%d)", tok.ExpiresAt, tok.RefreshIn)

	c.mu.Lock()
	c.entries[ghToken] = cachedToken{value: tok.Value, expiresAt: tok.ExpiresAt}
	c.mu.Unlock()

	return tok.Value, nil
}

// Refresh proactively re-exchanges the token for a specific GitHub token and
// returns the upstream's suggested refresh interval in seconds. Used by the
// background loop for the default token.
func (c *TokenCache) Refresh(ctx context.Context, ghToken string) (int64, error) {
	tok, err := c.exchange(ctx, ghToken)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.entries[ghToken] = cachedToken{value: tok.Value, expiresAt: tok.ExpiresAt}
	c.mu.Unlock()

	return tok.RefreshIn, nil
}

// EvictExpired removes entries past their expiry. Called periodically so the
// cache does not grow without bound when many distinct GitHub tokens are
// used.
func (c *TokenCache) EvictExpired() {
	now := time.Now().Unix()

	c.mu.Lock()
	before := len(c.entries)
	for gh, entry := range c.entries {
		if entry.expiresAt <= now {
			delete(c.entries, gh)
		}
	}
	evicted := before - len(c.entries)
	remaining := len(c.entries)
	c.mu.Unlock()

	if evicted > 0 {
		logrus.Debugf("evicted %d expired copilot tokens, %d remaining", evicted, remaining)
	}
}
