package background

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tingly-dev/copilot-bridge/internal/auth"
)

// TokenRefresher keeps the default credential's Copilot token warm and evicts
// expired cache entries. Only started when a default credential is
// configured.
type TokenRefresher struct {
	cache   *auth.TokenCache
	ghToken string

	initialDelay  time.Duration
	failureRetry  time.Duration
	refreshSlack  time.Duration
	evictInterval time.Duration

	stopChan chan struct{}
	mu       sync.RWMutex
	running  bool
}

// NewTokenRefresher creates a refresher for the given default credential.
func NewTokenRefresher(cache *auth.TokenCache, ghToken string) *TokenRefresher {
	return &TokenRefresher{
		cache:   cache,
		ghToken: ghToken,
		// The startup exchange just ran, so the first refresh can wait.
		initialDelay:  10 * time.Minute,
		failureRetry:  30 * time.Second,
		refreshSlack:  time.Minute,
		evictInterval: 5 * time.Minute,
	}
}

// Start runs the refresh and eviction loops until the context is cancelled or
// Stop is called. Blocks; run it in a goroutine.
func (tr *TokenRefresher) Start(ctx context.Context) {
	tr.mu.Lock()
	if tr.running {
		tr.mu.Unlock()
		return
	}
	tr.running = true
	tr.stopChan = make(chan struct{})
	stopChan := tr.stopChan
	tr.mu.Unlock()

	defer func() {
		tr.mu.Lock()
		tr.running = false
		tr.mu.Unlock()
	}()

	go tr.evictLoop(ctx, stopChan)

	delay := tr.initialDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopChan:
			return
		case <-time.After(delay):
		}

		refreshIn, err := tr.cache.Refresh(ctx, tr.ghToken)
		if err != nil {
			logrus.Errorf("background token refresh failed, retrying in %s: %v", tr.failureRetry, err)
			delay = tr.failureRetry
			continue
		}

		delay = time.Duration(refreshIn)*time.Second - tr.refreshSlack
		if delay < 0 {
			delay = 0
		}
		logrus.Debugf("copilot token refreshed, next refresh in %s", delay)
	}
}

func (tr *TokenRefresher) evictLoop(ctx context.Context, stopChan chan struct{}) {
	ticker := time.NewTicker(tr.evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopChan:
			return
		case <-ticker.C:
			tr.cache.EvictExpired()
		}
	}
}

// Stop terminates both loops.
func (tr *TokenRefresher) Stop() {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if tr.running {
		close(tr.stopChan)
		tr.stopChan = make(chan struct{})
	}
}

// Running reports whether the loops are active.
func (tr *TokenRefresher) Running() bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.running
}
