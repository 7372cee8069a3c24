package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Keys used by the client for durable state.
const (
	KeyAppState  = "app-state"
	KeyAuthToken = "auth-token"
)

// ErrNotFound is returned by Get when the key has never been written or was
// deleted.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a durable string key/value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds a Storage from a URL.
// Supported schemes: memory://, sqlite://path, postgres://..., redis://...
// SQLite URLs: sqlite://relative/file.db or sqlite:///absolute/file.db
func Open(ctx context.Context, rawURL string) (Storage, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("storage url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid storage url: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		path := u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
		if path == "" {
			return nil, fmt.Errorf("sqlite storage url %q has no path", rawURL)
		}
		return openSQL(ctx, "sqlite3", path)
	case "postgres", "postgresql":
		return openSQL(ctx, "postgres", trimmed)
	case "redis", "rediss":
		return openRedis(ctx, trimmed)
	default:
		return nil, fmt.Errorf("unsupported storage scheme: %s (expected memory, sqlite, postgres or redis)", u.Scheme)
	}
}
