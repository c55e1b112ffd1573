package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/storyloom"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/runner"
)

// OutputOptions selects how one-shot commands print the resulting state.
type OutputOptions struct {
	JSON   bool
	Writer io.Writer
}

func (o OutputOptions) writer() io.Writer {
	if o.Writer == nil {
		return os.Stdout
	}
	return o.Writer
}

// GenerateOptions describes a requirement given on the command line or as a file.
type GenerateOptions struct {
	SessionID string
	Text      string
	File      string
	Context   string
}

// Generate submits a requirement and prints the story with its first question.
func Generate(ctx context.Context, app *App, opts GenerateOptions, out OutputOptions) (*domain.State, error) {
	var (
		state *domain.State
		err   error
	)
	if opts.File != "" {
		data, readErr := os.ReadFile(opts.File)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read requirement file: %w", readErr)
		}
		state, err = app.Service.SubmitDocument(ctx, opts.SessionID, data, "", filepath.Base(opts.File), opts.Context)
	} else {
		state, err = app.Service.Submit(ctx, opts.SessionID, domain.Requirement{Text: opts.Text, Context: opts.Context})
	}
	if err != nil {
		return nil, err
	}
	return state, printTransition(ctx, out, nil, state)
}

// Answer replies to the pending question of a session.
func Answer(ctx context.Context, app *App, sessionID, answer string, out OutputOptions) (*domain.State, error) {
	return step(ctx, app, sessionID, out, func(ctx context.Context) (*domain.State, error) {
		return app.Service.Answer(ctx, sessionID, answer)
	})
}

// Ask puts a free question about the story of a session.
func Ask(ctx context.Context, app *App, sessionID, question string, out OutputOptions) (*domain.State, error) {
	return step(ctx, app, sessionID, out, func(ctx context.Context) (*domain.State, error) {
		return app.Service.Ask(ctx, sessionID, question)
	})
}

// Improve rewrites the story of a session.
func Improve(ctx context.Context, app *App, sessionID string, out OutputOptions) (*domain.State, error) {
	return step(ctx, app, sessionID, out, func(ctx context.Context) (*domain.State, error) {
		return app.Service.Improve(ctx, sessionID)
	})
}

// ExportOptions controls the export command.
type ExportOptions struct {
	SessionID  string
	Format     string
	Transcript bool
	// Output is the target path. Empty writes the generated file name into Dir.
	Output string
	Dir    string
}

// Export renders a session to a document on disk and returns its path.
func Export(ctx context.Context, app *App, opts ExportOptions, w io.Writer) (string, error) {
	format := opts.Format
	if format == "" {
		format = app.Config.Export.Format
	}
	file, err := app.Service.Export(ctx, opts.SessionID, storyloom.ExportOptions{
		Format:            format,
		IncludeTranscript: opts.Transcript || app.Config.Export.Transcript,
	})
	if err != nil {
		return "", err
	}

	path := opts.Output
	if path == "" {
		dir := opts.Dir
		if dir == "" {
			dir = app.Config.Export.Dir
		}
		path = filepath.Join(dir, file.Name)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	if w != nil {
		printSystemMessage(w, "Saved %s", path)
	}
	return path, nil
}

func step(ctx context.Context, app *App, sessionID string, out OutputOptions, fn func(context.Context) (*domain.State, error)) (*domain.State, error) {
	prev, err := app.Service.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	return next, printTransition(ctx, out, prev, next)
}

func printTransition(ctx context.Context, out OutputOptions, prev, next *domain.State) error {
	w := out.writer()
	if out.JSON {
		return json.NewEncoder(w).Encode(runner.Respond(prev, next))
	}
	if err := runner.NewTextHandler(w).Output(ctx, runner.Blocks(prev, next)); err != nil {
		return err
	}
	printSystemMessage(w, "Session %s", next.SessionID)
	return nil
}
