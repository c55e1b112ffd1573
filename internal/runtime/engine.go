package runtime

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/storyloom/internal/logging"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/parser"
	"github.com/aretw0/storyloom/pkg/ports"
)

// Operation names reported in events and CompletionError.
const (
	OpGenerate = "generate"
	OpAdvance  = "advance"
	OpAsk      = "ask"
	OpImprove  = "improve"
)

var errEmptyResponse = errors.New("empty response")

// Temperatures holds the sampling temperature of each operation.
type Temperatures struct {
	Generate float64
	Dialogue float64
	Improve  float64
}

// DefaultTemperatures returns the temperatures the tool ships with.
func DefaultTemperatures() Temperatures {
	return Temperatures{Generate: 0.7, Dialogue: 0.4, Improve: 0.5}
}

// Engine generates stories and runs the clarification dialogue.
// Every transition takes a state and returns a new snapshot; the input is never mutated.
type Engine struct {
	client        ports.CompletionClient
	parser        ports.ResponseParser
	temperatures  Temperatures
	historyWindow int
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	now           func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithParser sets the strategy used to split completions.
func WithParser(p ports.ResponseParser) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.parser = p
		}
	}
}

// WithTemperatures overrides the default temperatures.
func WithTemperatures(t Temperatures) EngineOption {
	return func(e *Engine) {
		e.temperatures = t
	}
}

// WithHistoryWindow limits how many past turns are replayed. 0 replays all of them.
func WithHistoryWindow(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.historyWindow = n
		}
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates a new engine around a completion client.
func NewEngine(client ports.CompletionClient, opts ...EngineOption) *Engine {
	e := &Engine{
		client:       client,
		parser:       parser.NewTagged(),
		temperatures: DefaultTemperatures(),
		logger:       logging.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) prompts() promptBuilder {
	return promptBuilder{parser: e.parser, historyWindow: e.historyWindow}
}

// complete performs one completion call and reports it through the hooks.
// An empty response is a failure.
func (e *Engine) complete(ctx context.Context, op, sessionID string, msgs []domain.Message, temperature float64) (string, error) {
	evt := &domain.CompletionEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      domain.EventCompletionCall,
			SessionID: sessionID,
		},
		Operation:   op,
		Messages:    len(msgs),
		Temperature: temperature,
	}
	e.emitCompletionCall(ctx, evt)

	start := time.Now()
	raw, err := e.client.Complete(ctx, msgs, temperature)
	if err == nil && strings.TrimSpace(raw) == "" {
		err = errEmptyResponse
	}

	ret := *evt
	ret.Type = domain.EventCompletionReturn
	ret.Timestamp = e.now()
	ret.Duration = time.Since(start)
	ret.IsError = err != nil
	e.emitCompletionReturn(ctx, &ret)

	if err != nil {
		e.logger.Warn("completion failed", "op", op, "session_id", sessionID, "err", err)
		return "", &domain.CompletionError{Op: op, Err: err}
	}
	e.logger.Debug("completion returned", "op", op, "session_id", sessionID, "duration", ret.Duration)
	return raw, nil
}

func (e *Engine) emitCompletionCall(ctx context.Context, evt *domain.CompletionEvent) {
	if e.hooks.OnCompletionCall != nil {
		e.hooks.OnCompletionCall(ctx, evt)
	}
}

func (e *Engine) emitCompletionReturn(ctx context.Context, evt *domain.CompletionEvent) {
	if e.hooks.OnCompletionReturn != nil {
		e.hooks.OnCompletionReturn(ctx, evt)
	}
}

func (e *Engine) emitTurnAppended(ctx context.Context, state *domain.State) {
	if e.hooks.OnTurnAppended == nil {
		return
	}
	turn, ok := state.LastTurn()
	if !ok {
		return
	}
	e.hooks.OnTurnAppended(ctx, &domain.TurnEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      domain.EventTurnAppended,
			SessionID: state.SessionID,
		},
		Turn:  turn,
		Index: len(state.Turns) - 1,
	})
}

func (e *Engine) emitArtifactReplaced(ctx context.Context, state *domain.State) {
	if e.hooks.OnArtifactReplaced == nil {
		return
	}
	e.hooks.OnArtifactReplaced(ctx, &domain.ArtifactEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      domain.EventArtifactReplaced,
			SessionID: state.SessionID,
		},
		Revision: state.Revision,
		Length:   len(state.Artifact),
	})
}
