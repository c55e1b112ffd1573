package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

// DefaultPIIPatterns match e-mail addresses and phone numbers.
var DefaultPIIPatterns = []string{
	`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	`\+?\d[\d\s\-().]{7,}\d`,
}

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks text matching the patterns before it is persisted.
// Every free-text field of the conversation is scanned. The caller's state is not modified.
// It panics on an invalid pattern.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	// 1. Deep Clone to avoid side effects on the caller's state.
	cloned := state.Snapshot()

	// 2. Mask PII
	cloned.Requirement.Text = m.mask(cloned.Requirement.Text)
	cloned.Requirement.Context = m.mask(cloned.Requirement.Context)
	cloned.Artifact = m.mask(cloned.Artifact)
	cloned.PendingQuestion = m.mask(cloned.PendingQuestion)
	for i := range cloned.Turns {
		t := &cloned.Turns[i]
		t.Question = m.mask(t.Question)
		t.Answer = m.mask(t.Answer)
		t.Acknowledgement = m.mask(t.Acknowledgement)
	}

	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
