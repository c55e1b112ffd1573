package storyloom

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/storyloom/internal/logging"
	"github.com/aretw0/storyloom/internal/runtime"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
)

// Temperatures are the sampling temperatures used per operation.
type Temperatures = runtime.Temperatures

// DefaultTemperatures returns 0.7 for generation, 0.4 for the dialogue and 0.5 for improvement.
func DefaultTemperatures() Temperatures {
	return runtime.DefaultTemperatures()
}

// Engine is the high-level entry point for the story generation and clarification loop.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	logger  *slog.Logger
}

type options struct {
	parser        ports.ResponseParser
	temperatures  *Temperatures
	historyWindow int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	now           func() time.Time

	store   ports.StateStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
}

// Option configures the Engine and the Service.
type Option func(*options)

// WithParser sets the strategy that splits a completion into body and question.
func WithParser(p ports.ResponseParser) Option {
	return func(o *options) {
		o.parser = p
	}
}

// WithTemperatures overrides the per-operation sampling temperatures.
func WithTemperatures(t Temperatures) Option {
	return func(o *options) {
		o.temperatures = &t
	}
}

// WithHistoryWindow limits how many past turns are replayed to the completion service (0 = all).
func WithHistoryWindow(n int) Option {
	return func(o *options) {
		o.historyWindow = n
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock replaces time.Now, mostly for tests and export file names.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithStore sets the session store used by the Service (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLocker enables distributed locking of sessions, for replicas sharing one store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed session locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.lockTTL = ttl
	}
}

func newOptions(opts []Option) *options {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	// Ensure logger is initialized (so we don't pass nil to runtime, which would overwrite its default)
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// New initializes an Engine on top of a completion client.
func New(client ports.CompletionClient, opts ...Option) (*Engine, error) {
	return newEngine(client, newOptions(opts))
}

func newEngine(client ports.CompletionClient, o *options) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: completion client is required", domain.ErrConfiguration)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(o.hooks),
		runtime.WithLogger(o.logger),
		runtime.WithHistoryWindow(o.historyWindow),
		runtime.WithClock(o.now),
	}
	if o.parser != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithParser(o.parser))
	}
	if o.temperatures != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithTemperatures(*o.temperatures))
	}

	return &Engine{
		runtime: runtime.NewEngine(client, runtimeOpts...),
		logger:  o.logger,
	}, nil
}

// Generate produces a story and its first clarification question.
// The returned state carries no session ID.
func (e *Engine) Generate(ctx context.Context, req domain.Requirement) (*domain.State, error) {
	return e.runtime.Generate(ctx, req)
}

// GenerateDraft is Generate without building a state.
func (e *Engine) GenerateDraft(ctx context.Context, req domain.Requirement) (domain.Draft, error) {
	return e.runtime.GenerateDraft(ctx, req)
}

// Advance answers the pending question and returns the next state.
// The story is never rewritten; on failure the given state is returned as is.
func (e *Engine) Advance(ctx context.Context, state *domain.State, answer string) (*domain.State, error) {
	return e.runtime.Advance(ctx, state, answer)
}

// Ask records the user's own question about the story together with the answer.
func (e *Engine) Ask(ctx context.Context, state *domain.State, question string) (*domain.State, error) {
	return e.runtime.Ask(ctx, state, question)
}

// Improve replaces the story with a revised one and starts a fresh dialogue.
func (e *Engine) Improve(ctx context.Context, state *domain.State) (*domain.State, error) {
	return e.runtime.Improve(ctx, state)
}

// ImproveArtifact improves a story that is not attached to a session.
func (e *Engine) ImproveArtifact(ctx context.Context, artifact string) (domain.Draft, error) {
	return e.runtime.ImproveArtifact(ctx, artifact)
}
