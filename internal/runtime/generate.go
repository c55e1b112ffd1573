package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/storyloom/pkg/domain"
)

// GenerateDraft asks the completion service for user stories and splits the answer.
func (e *Engine) GenerateDraft(ctx context.Context, req domain.Requirement) (domain.Draft, error) {
	if strings.TrimSpace(req.Text) == "" {
		return domain.Draft{}, domain.ErrEmptyInput
	}

	raw, err := e.complete(ctx, OpGenerate, "", e.prompts().generate(req), e.temperatures.Generate)
	if err != nil {
		return domain.Draft{}, err
	}
	return e.split(raw), nil
}

// Generate produces a fresh conversation for the requirement.
// The returned state has no SessionID; the caller owns identity and persistence.
func (e *Engine) Generate(ctx context.Context, req domain.Requirement) (*domain.State, error) {
	draft, err := e.GenerateDraft(ctx, req)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	state := &domain.State{
		Requirement:     req,
		Artifact:        draft.Body,
		PendingQuestion: draft.Question,
		Turns:           []domain.Turn{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	e.emitArtifactReplaced(ctx, state)
	return state, nil
}

// split applies the parser and guarantees a non-empty body.
// The fragments are kept exactly as the parser returns them, so for the legacy parser
// parser.Join(split(raw)) == strings.TrimSpace(raw).
// When the parser finds no body the whole response becomes the body and no question is kept,
// so a pending question never exists without an artifact.
func (e *Engine) split(raw string) domain.Draft {
	d := e.parser.Split(raw)
	if strings.TrimSpace(d.Body) == "" {
		d.Body = strings.TrimSpace(raw)
		d.Question = ""
	}
	return d
}
