package runner

import (
	"log/slog"
)

// DefaultInputBufferSize is the default number of lines to buffer for input handlers.
const DefaultInputBufferSize = 64

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithHeadless disables the greeting and auto-approves destructive commands.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.Headless = headless
	}
}

// WithSessionID resumes (or names) a session. Empty means a new session per requirement.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithConfirmer configures the policy for destructive commands.
func WithConfirmer(confirm Confirmer) Option {
	return func(r *Runner) {
		r.Confirm = confirm
	}
}

// WithDomainContext attaches free-text domain context to every requirement submitted.
func WithDomainContext(text string) Option {
	return func(r *Runner) {
		r.DomainContext = text
	}
}

// WithExport sets where /export writes, the default format and whether the dialogue is included.
func WithExport(dir, format string, transcript bool) Option {
	return func(r *Runner) {
		r.ExportDir = dir
		r.ExportFormat = format
		r.Transcript = transcript
	}
}
