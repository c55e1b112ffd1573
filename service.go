package storyloom

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/storyloom/pkg/adapters/memory"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/export"
	"github.com/aretw0/storyloom/pkg/extract"
	"github.com/aretw0/storyloom/pkg/ports"
	"github.com/aretw0/storyloom/pkg/sanitizer"
	"github.com/aretw0/storyloom/pkg/session"
)

// ExportOptions selects how a session is rendered by Service.Export.
type ExportOptions struct {
	// Format is docx, html or md. Empty means docx.
	Format string
	// IncludeTranscript appends the clarification dialogue after the story.
	IncludeTranscript bool
	// Now stamps the file name. Zero means the service clock.
	Now time.Time
}

// Service runs the clarification loop for stored sessions.
// Operations on the same session are serialized; each one loads the state, applies
// one transition and saves the result, or saves nothing when the transition fails.
type Service struct {
	engine  *Engine
	manager *session.Manager
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a Service and its Engine from the same options.
func NewService(client ports.CompletionClient, opts ...Option) (*Service, error) {
	o := newOptions(opts)
	engine, err := newEngine(client, o)
	if err != nil {
		return nil, err
	}

	store := o.store
	if store == nil {
		store = memory.NewStore()
	}

	managerOpts := []session.Option{session.WithLogger(o.logger)}
	if o.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(o.locker))
	}
	if o.lockTTL > 0 {
		managerOpts = append(managerOpts, session.WithLockTTL(o.lockTTL))
	}

	return &Service{
		engine:  engine,
		manager: session.NewManager(store, managerOpts...),
		logger:  o.logger,
		now:     o.now,
	}, nil
}

// Engine returns the stateless engine behind the service.
func (s *Service) Engine() *Engine {
	return s.engine
}

// Store returns the session store.
func (s *Service) Store() ports.StateStore {
	return s.manager.Store()
}

// Submit generates a story for req and makes it the state of sessionID,
// replacing whatever the session held. An empty sessionID starts a new session.
func (s *Service) Submit(ctx context.Context, sessionID string, req domain.Requirement) (*domain.State, error) {
	text, err := sanitizer.Input(req.Text)
	if err != nil {
		return nil, err
	}
	req.Text = text
	return s.submit(ctx, sessionID, req)
}

// SubmitDocument extracts the requirement from an uploaded file and submits it.
// The larger document size limit applies to the extracted text.
func (s *Service) SubmitDocument(ctx context.Context, sessionID string, data []byte, mimeType, fileName, domainContext string) (*domain.State, error) {
	text, err := extract.Text(data, mimeType, fileName)
	if err != nil {
		return nil, err
	}
	text, err = sanitizer.Document(text)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, sessionID, domain.Requirement{Text: text, Context: domainContext, Source: fileName})
}

func (s *Service) submit(ctx context.Context, sessionID string, req domain.Requirement) (*domain.State, error) {
	// 1. Validate before spending a completion call
	ctxText, err := sanitizer.Input(req.Context)
	if err != nil {
		return nil, err
	}
	req.Context = strings.TrimSpace(ctxText)
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, domain.ErrEmptyInput
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	// 2. Generate
	state, err := s.engine.Generate(ctx, req)
	if err != nil {
		s.logger.Warn("Story generation failed", "session_id", sessionID, "err", err)
		return nil, err
	}
	state.SessionID = sessionID

	// 3. Replace the session
	if err := s.manager.Save(ctx, sessionID, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.logger.Info("Story generated", "session_id", sessionID, "pending_question", state.HasPendingQuestion())
	return state, nil
}

// Answer replies to the pending clarification question of a session.
func (s *Service) Answer(ctx context.Context, sessionID, answer string) (*domain.State, error) {
	answer, err := s.clean(answer)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sessionID, "answer", func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return s.engine.Advance(ctx, st, answer)
	})
}

// Ask asks the service a question of the user's own about the session's story.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*domain.State, error) {
	question, err := s.clean(question)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sessionID, "ask", func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return s.engine.Ask(ctx, st, question)
	})
}

// Improve replaces the session's story with an improved revision.
func (s *Service) Improve(ctx context.Context, sessionID string) (*domain.State, error) {
	return s.update(ctx, sessionID, "improve", s.engine.Improve)
}

// Get returns the current state of a session.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.State, error) {
	return s.manager.Load(ctx, sessionID)
}

// Reset discards a session.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	return s.manager.Delete(ctx, sessionID)
}

// List returns the IDs of stored sessions.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.manager.List(ctx)
}

// Export renders the session's story as a downloadable file.
func (s *Service) Export(ctx context.Context, sessionID string, opts ExportOptions) (*export.File, error) {
	exporter, err := export.ForFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	state, err := s.manager.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	doc, err := export.FromState(state, opts.IncludeTranscript)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = s.now()
	}
	return export.Render(exporter, doc, now)
}

func (s *Service) clean(input string) (string, error) {
	input, err := sanitizer.Input(input)
	if err != nil {
		return "", err
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return "", domain.ErrEmptyInput
	}
	return input, nil
}

func (s *Service) update(ctx context.Context, sessionID, op string, fn func(context.Context, *domain.State) (*domain.State, error)) (*domain.State, error) {
	next, err := s.manager.Update(ctx, sessionID, fn)
	if err != nil {
		s.logger.Warn("Session update failed", "session_id", sessionID, "op", op, "err", err)
		return nil, err
	}
	s.logger.Debug("Session updated", "session_id", sessionID, "op", op, "turns", len(next.Turns))
	return next, nil
}
