package ports

import (
	"context"

	"github.com/aretw0/storyloom/pkg/domain"
)

// CompletionClient is the single capability the engine needs from a text-generation service.
// Implementations must be safe to call from one goroutine at a time; the engine never issues
// parallel calls for a session.
type CompletionClient interface {
	// Complete returns the generated text for the given messages.
	// Temperature is a sampling scalar in [0,1].
	Complete(ctx context.Context, messages []domain.Message, temperature float64) (string, error)
}

// CompletionFunc adapts a plain function to CompletionClient.
type CompletionFunc func(ctx context.Context, messages []domain.Message, temperature float64) (string, error)

// Complete calls f.
func (f CompletionFunc) Complete(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
	return f(ctx, messages, temperature)
}

// ResponseParser separates a generated free-text block into two semantically distinct parts.
type ResponseParser interface {
	// Split returns the body (story or acknowledgement) and the trailing question.
	Split(raw string) domain.Draft

	// Instruction tells the completion service how to lay out its answer so Split can find the parts.
	// bodyLabel names the body part (e.g. "user story", "acknowledgement").
	Instruction(bodyLabel string) string
}
