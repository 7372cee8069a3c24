package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/stockroom/internal/autosync"
	"github.com/five82/stockroom/internal/config"
	"github.com/five82/stockroom/internal/events"
	"github.com/five82/stockroom/internal/repo"
	"github.com/five82/stockroom/internal/shop"
	"github.com/five82/stockroom/internal/state"
	"github.com/five82/stockroom/internal/storage"
)

// Options configure Open.
type Options struct {
	ConfigPath string
	// APIBase and Storage override the configured values when set.
	APIBase string
	Storage string
	// LogWriter replaces the configured log file when set.
	LogWriter io.Writer
}

// App is the wired client: durable storage, the state store and its bus,
// the request client, the repositories and the sync scheduler.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Bus    *events.Bus
	Store  *state.Store
	Client *shop.Client
	Repos  *repo.Repos
	Sync   *autosync.Scheduler

	storage storage.Storage
	closers []io.Closer
}

// Open loads the configuration and builds the App.
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIBase != "" {
		cfg.APIBase = opts.APIBase
	}
	if opts.Storage != "" {
		cfg.Storage = opts.Storage
	}
	return New(ctx, cfg, opts.LogWriter)
}

// New builds the App from cfg. Persisted state is hydrated before anything
// else can write to the store. A nil logWriter logs to cfg.LogFile.
func New(ctx context.Context, cfg config.Config, logWriter io.Writer) (*App, error) {
	a := &App{Config: cfg}

	if logWriter == nil {
		file, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, file)
		logWriter = file
	}
	a.Logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: cfg.Level()}))

	backing, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a.storage = backing

	a.Bus = events.NewBus(a.Logger)
	a.Store = state.NewStore(state.Options{Bus: a.Bus, Storage: backing, Logger: a.Logger})
	a.Store.Hydrate()

	client, err := shop.NewClient(cfg.APIBase,
		shop.WithTokenStore(shop.NewTokenStore(ctx, backing, a.Logger)),
		shop.WithTimeout(cfg.RequestTimeout),
		shop.WithRetryPolicy(shop.RetryPolicy{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		}),
		shop.WithLogger(a.Logger),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init storefront client: %w", err)
	}
	a.Client = client
	a.Repos = repo.New(client)

	a.Sync = autosync.New(a.Store, autosync.Sources{
		Products:  a.Repos.Products,
		Orders:    a.Repos.Orders,
		Inventory: a.Repos.Inventory,
	}, autosync.Options{
		Period: cfg.SyncInterval,
		Thresholds: map[autosync.Domain]time.Duration{
			autosync.Products:  cfg.ProductsStaleAfter,
			autosync.Orders:    cfg.OrdersStaleAfter,
			autosync.Inventory: cfg.InventoryStaleAfter,
		},
		Bus:    a.Bus,
		Logger: a.Logger,
	})

	a.Logger.Debug("stockroom ready", "api", cfg.APIBase, "storage", storageScheme(cfg.Storage))
	return a, nil
}

// Close stops the scheduler and releases storage and the log file.
func (a *App) Close() error {
	if a.Sync != nil {
		a.Sync.Stop()
	}
	var errs []error
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// storageScheme keeps credentials in storage URLs out of the log.
func storageScheme(raw string) string {
	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return "unknown"
	}
	return scheme
}
