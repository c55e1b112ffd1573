package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/storyloom"
	"github.com/aretw0/storyloom/internal/config"
	"github.com/aretw0/storyloom/internal/logging"
	"github.com/aretw0/storyloom/pkg/adapters/completion"
	"github.com/aretw0/storyloom/pkg/adapters/file"
	"github.com/aretw0/storyloom/pkg/adapters/memory"
	"github.com/aretw0/storyloom/pkg/adapters/redis"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/observability"
	"github.com/aretw0/storyloom/pkg/parser"
	"github.com/aretw0/storyloom/pkg/persistence/middleware"
	"github.com/aretw0/storyloom/pkg/ports"
)

// App bundles everything a command needs: the configured service, its metrics and logger.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Service  *storyloom.Service
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	closers []func() error
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	client ports.CompletionClient
	logger *slog.Logger
	store  ports.StateStore
}

// WithCompletionClient bypasses the provider factory.
func WithCompletionClient(client ports.CompletionClient) AppOption {
	return func(o *appOptions) {
		o.client = client
	}
}

// WithAppLogger overrides the logger built from the log settings.
func WithAppLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithBaseStore replaces the configured backend. Middleware still applies.
func WithBaseStore(store ports.StateStore) AppOption {
	return func(o *appOptions) {
		o.store = store
	}
}

// NewApp wires the completion client, the store chain and the service from cfg.
func NewApp(ctx context.Context, cfg *config.Config, opts ...AppOption) (*App, error) {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 1. Logger
	logger := o.logger
	if logger == nil {
		logger = logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	}

	app := &App{Config: cfg, Logger: logger}

	// 2. Completion client
	client := o.client
	if client == nil {
		var err error
		client, err = completion.New(ctx, completion.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Timeout:  cfg.LLM.Timeout,
		})
		if err != nil {
			return nil, err
		}
	}
	client = completion.Wrap(client,
		completion.WithLogging(logger, providerName(cfg.LLM.Provider)),
		completion.WithTimeout(cfg.LLM.Timeout),
	)

	// 3. Persistence
	store := o.store
	var locker ports.DistributedLocker
	if store == nil {
		var err error
		store, locker, err = app.openStore(cfg.Store)
		if err != nil {
			return nil, err
		}
	}
	store, err := decorateStore(store, cfg.Store)
	if err != nil {
		app.Close()
		return nil, err
	}

	// 4. Observability
	app.Registry = prometheus.NewRegistry()
	app.Metrics = observability.NewMetrics(app.Registry)
	hooks := observability.Combine(app.Metrics.Hooks(), observability.LoggingHooks(logger))

	// 5. Service
	svcOpts := []storyloom.Option{
		storyloom.WithStore(store),
		storyloom.WithParser(parser.ForName(cfg.Dialogue.Parser)),
		storyloom.WithTemperatures(storyloom.Temperatures{
			Generate: cfg.Temperature.Generate,
			Dialogue: cfg.Temperature.Dialogue,
			Improve:  cfg.Temperature.Improve,
		}),
		storyloom.WithHistoryWindow(cfg.Dialogue.HistoryWindow),
		storyloom.WithLifecycleHooks(hooks),
		storyloom.WithLogger(logger),
	}
	if locker != nil {
		svcOpts = append(svcOpts, storyloom.WithLocker(locker))
	}

	svc, err := storyloom.NewService(client, svcOpts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Service = svc

	logger.Debug("Service ready",
		"provider", providerName(cfg.LLM.Provider),
		"store", cfg.Store.Backend,
		"parser", cfg.Dialogue.Parser,
	)
	return app, nil
}

// Close releases backend connections.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.Logger.Warn("Failed to close resource", "err", err)
		}
	}
	a.closers = nil
}

func (a *App) openStore(cfg config.StoreConfig) (ports.StateStore, ports.DistributedLocker, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return memory.NewStore(), nil, nil
	case "file":
		return file.New(cfg.Dir), nil, nil
	case "redis":
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, store.Close)
		return store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrConfiguration, cfg.Backend)
	}
}

// decorateStore applies encryption and PII redaction.
// Redaction runs first so the masked state is what gets encrypted.
func decorateStore(store ports.StateStore, cfg config.StoreConfig) (ports.StateStore, error) {
	var mws []middleware.Middleware
	if cfg.RedactPII {
		mws = append(mws, middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns))
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: store.encryption_key: %v", domain.ErrConfiguration, err)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), nil
}

func providerName(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return completion.ProviderGroq
	}
	return p
}
