package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

// Advance answers the pending question. The answer is recorded whitespace-trimmed.
// The artifact is left untouched: a follow_up turn with the model's acknowledgement is appended
// and the next question becomes pending. On failure the input state is returned unchanged.
func (e *Engine) Advance(ctx context.Context, state *domain.State, answer string) (*domain.State, error) {
	// 1. Preconditions
	if !state.HasArtifact() {
		return state, domain.ErrNoArtifact
	}
	if !state.HasPendingQuestion() {
		return state, domain.ErrNoPendingQuestion
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return state, domain.ErrEmptyInput
	}

	// 2. Ask the completion service
	msgs := e.prompts().advance(state, answer)
	raw, err := e.complete(ctx, OpAdvance, state.SessionID, msgs, e.temperatures.Dialogue)
	if err != nil {
		return state, err
	}
	draft := e.parser.Split(raw)

	// 3. Build the next snapshot
	next := state.Snapshot()
	now := e.now().UTC()
	next.Turns = append(next.Turns, domain.Turn{
		Kind:            domain.TurnFollowUp,
		Question:        state.PendingQuestion,
		Answer:          answer,
		Acknowledgement: strings.TrimSpace(draft.Body),
		CreatedAt:       now,
	})
	next.PendingQuestion = draft.Question
	next.UpdatedAt = now

	e.emitTurnAppended(ctx, next)
	return next, nil
}

// Ask lets the user raise their own question about the artifact.
// The answer is recorded as a user_question turn; the pending question does not move.
func (e *Engine) Ask(ctx context.Context, state *domain.State, question string) (*domain.State, error) {
	if !state.HasArtifact() {
		return state, domain.ErrNoArtifact
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return state, domain.ErrEmptyInput
	}

	msgs := e.prompts().ask(state, question)
	raw, err := e.complete(ctx, OpAsk, state.SessionID, msgs, e.temperatures.Dialogue)
	if err != nil {
		return state, err
	}

	next := state.Snapshot()
	now := e.now().UTC()
	next.Turns = append(next.Turns, domain.Turn{
		Kind:      domain.TurnUserQuestion,
		Question:  question,
		Answer:    strings.TrimSpace(raw),
		CreatedAt: now,
	})
	next.UpdatedAt = now

	e.emitTurnAppended(ctx, next)
	return next, nil
}
