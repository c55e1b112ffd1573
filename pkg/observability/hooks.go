package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/storyloom/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level, and failed completions as warnings.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCompletionCall: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.DebugContext(ctx, "completion_call",
				"session_id", e.SessionID,
				"op", e.Operation,
				"messages", e.Messages,
				"temperature", e.Temperature,
			)
		},
		OnCompletionReturn: func(ctx context.Context, e *domain.CompletionEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "completion_return",
				"session_id", e.SessionID,
				"op", e.Operation,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
		OnTurnAppended: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_appended", "session_id", e.SessionID, "kind", e.Turn.Kind, "index", e.Index)
		},
		OnArtifactReplaced: func(ctx context.Context, e *domain.ArtifactEvent) {
			logger.DebugContext(ctx, "artifact_replaced", "session_id", e.SessionID, "revision", e.Revision, "length", e.Length)
		},
	}
}

// Combine fans every event out to all given hook sets, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCompletionCall: func(ctx context.Context, e *domain.CompletionEvent) {
			for _, h := range sets {
				if h.OnCompletionCall != nil {
					h.OnCompletionCall(ctx, e)
				}
			}
		},
		OnCompletionReturn: func(ctx context.Context, e *domain.CompletionEvent) {
			for _, h := range sets {
				if h.OnCompletionReturn != nil {
					h.OnCompletionReturn(ctx, e)
				}
			}
		},
		OnTurnAppended: func(ctx context.Context, e *domain.TurnEvent) {
			for _, h := range sets {
				if h.OnTurnAppended != nil {
					h.OnTurnAppended(ctx, e)
				}
			}
		},
		OnArtifactReplaced: func(ctx context.Context, e *domain.ArtifactEvent) {
			for _, h := range sets {
				if h.OnArtifactReplaced != nil {
					h.OnArtifactReplaced(ctx, e)
				}
			}
		},
	}
}
