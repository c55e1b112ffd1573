package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/storyloom"
	"github.com/aretw0/storyloom/internal/logging"
	"github.com/aretw0/storyloom/pkg/domain"
)

const helpText = `Type a requirement to generate user stories, then answer the clarification questions.
Commands:
  /ask <question>   ask your own question about the story
  /improve          rewrite the story to be clearer and more testable
  /export [format]  save the story (docx, html, md)
  /history          show the clarification dialogue
  /new <text>       replace the story with one for a new requirement
  /reset            discard the session
  /quit             leave`

// Runner handles the chat loop of a storyloom.Service using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Confirm guards commands that discard a story.
	// If nil, the user is asked, or everything is approved when Headless.
	Confirm Confirmer

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	SessionID     string
	DomainContext string
	Headless      bool
	Renderer      ContentRenderer

	ExportDir    string
	ExportFormat string
	Transcript   bool
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Without options it chats over Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:    logging.NewNop(),
		ExportDir: ".",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run executes the chat loop until /quit, end of input or an interrupt at the prompt.
// If SessionID names a stored session, it is resumed.
func (r *Runner) Run(ctx context.Context, svc *storyloom.Service) error {
	// 1. Setup Phase
	handler := r.resolveHandler()
	confirm := r.resolveConfirmer(handler)

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	state, err := r.resume(ctx, svc)
	if err != nil {
		return err
	}
	if state != nil {
		if err := handler.Output(ctx, Blocks(nil, state)); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	} else if !r.Headless {
		if err := handler.SystemOutput(ctx, "Describe your requirement. /help lists the commands."); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}

	// 2. Chat Loop
	for {
		line, err := handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			if errors.Is(err, io.EOF) || signals.Context().Err() != nil {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if line == "" {
			continue
		}

		cmd, arg := parseCommand(line)
		if cmd == "quit" {
			return nil
		}

		next, err := r.dispatch(signals, handler, confirm, svc, state, cmd, arg)
		if err != nil {
			if signals.Interrupted() {
				// Ctrl+C during a completion only aborts that call.
				signals.Reset()
				_ = handler.SystemOutput(ctx, "Cancelled.")
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.Logger.Debug("Command failed", "command", cmd, "session_id", r.SessionID, "err", err)
			if err := handler.SystemOutput(ctx, "Error: "+describe(err)); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
			continue
		}
		state = next
	}
}

// dispatch runs one command and returns the state to continue with.
func (r *Runner) dispatch(
	signals *SignalManager,
	handler IOHandler,
	confirm Confirmer,
	svc *storyloom.Service,
	state *domain.State,
	cmd, arg string,
) (*domain.State, error) {
	ctx := signals.Context()

	switch cmd {
	case "help":
		return state, handler.SystemOutput(ctx, helpText)

	case "history":
		if !state.HasArtifact() {
			return state, domain.ErrNoArtifact
		}
		if len(state.Turns) == 0 {
			return state, handler.SystemOutput(ctx, "No clarification dialogue yet.")
		}
		return state, handler.Output(ctx, History(state))

	case "export":
		return state, r.export(ctx, handler, svc, arg)

	case "reset":
		if state == nil {
			return nil, nil
		}
		if ok, err := confirm(ctx, "Discard the current story?"); err != nil || !ok {
			return state, err
		}
		if err := svc.Reset(ctx, state.SessionID); err != nil {
			return state, err
		}
		r.SessionID = ""
		return nil, handler.SystemOutput(ctx, "Session discarded. Describe a new requirement.")

	case "new":
		if state.HasArtifact() {
			if ok, err := confirm(ctx, "Replace the current story?"); err != nil || !ok {
				return state, err
			}
		}
		return r.call(ctx, handler, state, func(ctx context.Context) (*domain.State, error) {
			return svc.Submit(ctx, r.SessionID, domain.Requirement{Text: arg, Context: r.DomainContext})
		})

	case "ask":
		if !state.HasArtifact() {
			return state, domain.ErrNoArtifact
		}
		return r.call(ctx, handler, state, func(ctx context.Context) (*domain.State, error) {
			return svc.Ask(ctx, state.SessionID, arg)
		})

	case "improve":
		if !state.HasArtifact() {
			return state, domain.ErrNoArtifact
		}
		return r.call(ctx, handler, state, func(ctx context.Context) (*domain.State, error) {
			return svc.Improve(ctx, state.SessionID)
		})

	case "":
		// Plain text: a requirement first, then answers, then free questions.
		switch {
		case !state.HasArtifact():
			return r.call(ctx, handler, state, func(ctx context.Context) (*domain.State, error) {
				return svc.Submit(ctx, r.SessionID, domain.Requirement{Text: arg, Context: r.DomainContext})
			})
		case state.HasPendingQuestion():
			return r.call(ctx, handler, state, func(ctx context.Context) (*domain.State, error) {
				return svc.Answer(ctx, state.SessionID, arg)
			})
		default:
			return r.call(ctx, handler, state, func(ctx context.Context) (*domain.State, error) {
				return svc.Ask(ctx, state.SessionID, arg)
			})
		}
	}

	return state, fmt.Errorf("unknown command /%s (try /help)", cmd)
}

// call runs a completion-backed operation and shows what changed.
func (r *Runner) call(ctx context.Context, handler IOHandler, prev *domain.State, fn func(context.Context) (*domain.State, error)) (*domain.State, error) {
	_ = handler.Signal(ctx, SignalThinking, nil)
	next, err := fn(ctx)
	_ = handler.Signal(ctx, SignalDone, nil)
	if err != nil {
		return prev, err
	}

	r.SessionID = next.SessionID
	if err := handler.Output(ctx, Blocks(prev, next)); err != nil {
		return next, fmt.Errorf("output error: %w", err)
	}
	return next, nil
}

func (r *Runner) export(ctx context.Context, handler IOHandler, svc *storyloom.Service, format string) error {
	if r.SessionID == "" {
		return domain.ErrNoArtifact
	}
	if format == "" {
		format = r.ExportFormat
	}

	file, err := svc.Export(ctx, r.SessionID, storyloom.ExportOptions{
		Format:            format,
		IncludeTranscript: r.Transcript,
	})
	if err != nil {
		return err
	}

	path := filepath.Join(r.ExportDir, file.Name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	r.Logger.Info("Story exported", "session_id", r.SessionID, "path", path)
	return handler.SystemOutput(ctx, "Saved "+path)
}

func (r *Runner) resume(ctx context.Context, svc *storyloom.Service) (*domain.State, error) {
	if r.SessionID == "" {
		return nil, nil
	}
	state, err := svc.Get(ctx, r.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", r.SessionID, err)
	}
	return state, nil
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	r.Handler = NewTextHandler(os.Stdout, WithStdin(), WithTextHandlerRenderer(r.Renderer))
	return r.Handler
}

// resolveConfirmer returns the configured or default policy.
func (r *Runner) resolveConfirmer(h IOHandler) Confirmer {
	if r.Confirm != nil {
		return r.Confirm
	}
	if r.Headless {
		return AutoApproveMiddleware()
	}
	return ConfirmationMiddleware(h)
}

// parseCommand splits "/cmd arg" lines. Plain text yields an empty command.
func parseCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "exit", "quit":
		return "quit", ""
	}
	if !strings.HasPrefix(line, "/") {
		return "", line
	}
	cmd, arg, _ := strings.Cut(line[1:], " ")
	cmd = strings.ToLower(cmd)
	if cmd == "exit" || cmd == "q" {
		cmd = "quit"
	}
	return cmd, strings.TrimSpace(arg)
}

// describe turns service errors into a line for the user.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		return "please type something first"
	case errors.Is(err, domain.ErrNoArtifact):
		return "there is no story yet; describe a requirement first"
	case errors.Is(err, domain.ErrCompletionFailed):
		return "the completion service failed, try again: " + err.Error()
	default:
		return err.Error()
	}
}
