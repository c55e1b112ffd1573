package completion

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
)

// Middleware decorates a CompletionClient with a cross-cutting concern.
type Middleware func(ports.CompletionClient) ports.CompletionClient

// Wrap applies middlewares in left-to-right order: Wrap(inner, A, B) => A(B(inner)).
func Wrap(inner ports.CompletionClient, mws ...Middleware) ports.CompletionClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// WithTimeout bounds every call. A zero or negative timeout disables it.
func WithTimeout(d time.Duration) Middleware {
	return func(next ports.CompletionClient) ports.CompletionClient {
		if d <= 0 {
			return next
		}
		return ports.CompletionFunc(func(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Complete(ctx, messages, temperature)
		})
	}
}

// WithLogging logs request size, latency and errors.
func WithLogging(logger *slog.Logger, provider string) Middleware {
	return func(next ports.CompletionClient) ports.CompletionClient {
		return ports.CompletionFunc(func(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
			size := 0
			for _, m := range messages {
				size += len(m.Content)
			}
			logger.Debug("completion request", "provider", provider, "messages", len(messages), "bytes", size, "temperature", temperature)

			start := time.Now()
			raw, err := next.Complete(ctx, messages, temperature)
			if err != nil {
				logger.Error("completion error", "provider", provider, "duration", time.Since(start), "err", err)
				return raw, err
			}
			logger.Debug("completion response", "provider", provider, "duration", time.Since(start), "bytes", len(raw))
			return raw, nil
		})
	}
}
