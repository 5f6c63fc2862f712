package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exchangeReturning(calls *atomic.Int64, tok Token, err error) ExchangeFunc {
	return func(ctx context.Context, ghToken string) (Token, error) {
		calls.Add(1)
		return tok, err
	}
}

func TestGetCopilotTokenExchangesOnce(t *testing.T) {
	var calls atomic.Int64
	cache := NewTokenCache(exchangeReturning(&calls, Token{
		Value:     "cop_token",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		RefreshIn: 1500,
	}, nil))

	got, err := cache.GetCopilotToken(context.Background(), "ghp_a")
	require.NoError(t, err)
	assert.Equal(t, "cop_token", got)

	got, err = cache.GetCopilotToken(context.Background(), "ghp_a")
	require.NoError(t, err)
	assert.Equal(t, "cop_token", got)
	assert.Equal(t, int64(1), calls.Load())
}

func TestGetCopilotTokenReexchangesNearExpiry(t *testing.T) {
	var calls atomic.Int64
	// Expires inside the 120s buffer, so every call re-exchanges.
	cache := NewTokenCache(exchangeReturning(&calls, Token{
		Value:     "cop_short",
		ExpiresAt: time.Now().Add(30 * time.Second).Unix(),
	}, nil))

	_, err := cache.GetCopilotToken(context.Background(), "ghp_a")
	require.NoError(t, err)
	_, err = cache.GetCopilotToken(context.Background(), "ghp_a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestGetCopilotTokenExchangeError(t *testing.T) {
	var calls atomic.Int64
	cache := NewTokenCache(exchangeReturning(&calls, Token{}, errors.New("upstream said no")))

	_, err := cache.GetCopilotToken(context.Background(), "ghp_a")
	assert.Error(t, err)
}

func TestRefreshUpdatesCache(t *testing.T) {
	var calls atomic.Int64
	cache := NewTokenCache(exchangeReturning(&calls, Token{
		Value:     "cop_fresh",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
		RefreshIn: 1500,
	}, nil))

	refreshIn, err := cache.Refresh(context.Background(), "ghp_a")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), refreshIn)

	got, err := cache.GetCopilotToken(context.Background(), "ghp_a")
	require.NoError(t, err)
	assert.Equal(t, "cop_fresh", got)
	assert.Equal(t, int64(1), calls.Load())
}

func TestEvictExpired(t *testing.T) {
	cache := NewTokenCache(nil)
	cache.entries["ghp_old"] = cachedToken{value: "dead", expiresAt: time.Now().Add(-time.Minute).Unix()}
	cache.entries["ghp_new"] = cachedToken{value: "alive", expiresAt: time.Now().Add(time.Hour).Unix()}

	cache.EvictExpired()

	_, oldKept := cache.entries["ghp_old"]
	_, newKept := cache.entries["ghp_new"]
	assert.False(t, oldKept)
	assert.True(t, newKept)
}
