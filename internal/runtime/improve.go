package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

// ImproveArtifact asks for a clearer, more detailed and more testable version of artifact.
func (e *Engine) ImproveArtifact(ctx context.Context, artifact string) (domain.Draft, error) {
	return e.improve(ctx, "", artifact)
}

// Improve replaces the artifact with an improved revision.
// The history is cleared because it refers to the previous text, and the new trailing
// question becomes pending.
func (e *Engine) Improve(ctx context.Context, state *domain.State) (*domain.State, error) {
	if !state.HasArtifact() {
		return state, domain.ErrNoArtifact
	}

	draft, err := e.improve(ctx, state.SessionID, state.Artifact)
	if err != nil {
		return state, err
	}

	next := state.Snapshot()
	next.Artifact = draft.Body
	next.PendingQuestion = draft.Question
	next.Revision++
	next.Turns = []domain.Turn{}
	next.UpdatedAt = e.now().UTC()

	e.emitArtifactReplaced(ctx, next)
	return next, nil
}

func (e *Engine) improve(ctx context.Context, sessionID, artifact string) (domain.Draft, error) {
	if strings.TrimSpace(artifact) == "" {
		return domain.Draft{}, domain.ErrNoArtifact
	}

	raw, err := e.complete(ctx, OpImprove, sessionID, e.prompts().improve(artifact), e.temperatures.Improve)
	if err != nil {
		return domain.Draft{}, err
	}
	return e.split(raw), nil
}
