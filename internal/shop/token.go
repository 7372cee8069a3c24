package shop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/five82/stockroom/internal/storage"
)

// TokenStore caches the bearer token in memory and writes it through to
// durable storage under storage.KeyAuthToken.
type TokenStore struct {
	mu      sync.RWMutex
	token   string
	backing storage.Storage
	logger  *slog.Logger
}

// NewTokenStore loads any persisted token from backing. A nil backing keeps
// the token in memory only.
func NewTokenStore(ctx context.Context, backing storage.Storage, logger *slog.Logger) *TokenStore {
	if logger == nil {
		logger = slog.Default()
	}
	ts := &TokenStore{backing: backing, logger: logger}
	if backing == nil {
		return ts
	}
	token, err := backing.Get(ctx, storage.KeyAuthToken)
	switch {
	case err == nil:
		ts.token = token
	case errors.Is(err, storage.ErrNotFound):
	default:
		logger.Warn("load auth token failed", "error", err)
	}
	return ts
}

// Token returns the cached token, empty when logged out.
func (t *TokenStore) Token() string {
	if t == nil {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// SetToken updates the cache and writes through. A storage failure is logged;
// the in-memory token stays authoritative.
func (t *TokenStore) SetToken(ctx context.Context, token string) {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
	if t.backing == nil {
		return
	}
	if err := t.backing.Set(ctx, storage.KeyAuthToken, token); err != nil {
		t.log().Warn("persist auth token failed", "error", err)
	}
}

// ClearToken drops the token from memory and storage.
func (t *TokenStore) ClearToken(ctx context.Context) {
	t.mu.Lock()
	t.token = ""
	t.mu.Unlock()
	if t.backing == nil {
		return
	}
	if err := t.backing.Delete(ctx, storage.KeyAuthToken); err != nil {
		t.log().Warn("clear auth token failed", "error", err)
	}
}

func (t *TokenStore) log() *slog.Logger {
	if t.logger == nil {
		return slog.Default()
	}
	return t.logger
}
