package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/storyloom"
	"github.com/aretw0/storyloom/internal/presentation/tui"
	"github.com/aretw0/storyloom/pkg/runner"
)

// ChatOptions contains all the configuration for the chat command.
type ChatOptions struct {
	SessionID string
	Context   string
	Headless  bool
	JSON      bool
	Fresh     bool

	// ExportFormat and ExportDir override the export settings when set.
	ExportFormat string
	ExportDir    string

	Stdin  io.Reader
	Stdout io.Writer
}

// RunChat runs the interactive clarification loop against app's service.
func RunChat(ctx context.Context, app *App, opts ChatOptions) error {
	stdin, stdout := opts.Stdin, opts.Stdout
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	quiet := opts.JSON || opts.Headless

	if !quiet {
		tui.PrintBanner(stdout, storyloom.Version)
	}

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	if opts.Fresh && opts.SessionID != "" {
		if err := app.Service.Reset(sigCtx, opts.SessionID); err != nil {
			app.Logger.Warn("Failed to reset session", "session_id", opts.SessionID, "err", err)
		}
	}

	if opts.SessionID != "" && !quiet {
		if state, err := app.Service.Get(sigCtx, opts.SessionID); err == nil && state.HasArtifact() {
			printSystemMessage(stdout, "Resuming session '%s' (%d turns).", opts.SessionID, len(state.Turns))
		} else {
			printSystemMessage(stdout, "Session '%s' active.", opts.SessionID)
		}
	}

	format := opts.ExportFormat
	if format == "" {
		format = app.Config.Export.Format
	}
	dir := opts.ExportDir
	if dir == "" {
		dir = app.Config.Export.Dir
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(app.Logger),
		runner.WithHeadless(opts.Headless),
		runner.WithSessionID(opts.SessionID),
		runner.WithDomainContext(opts.Context),
		runner.WithExport(dir, format, app.Config.Export.Transcript),
	}
	switch {
	case opts.JSON:
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewJSONHandler(stdout, stdin)))
	case opts.Headless:
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewTextHandler(stdout, runner.WithInputReader(stdin))))
	default:
		renderer := tui.NewRenderer()
		runnerOpts = append(runnerOpts,
			runner.WithRenderer(renderer),
			runner.WithInputHandler(runner.NewTextHandler(stdout,
				runner.WithInputReader(stdin),
				runner.WithTextHandlerRenderer(renderer),
			)),
		)
	}

	err := runner.NewRunner(runnerOpts...).Run(sigCtx, app.Service)
	if sigCtx.Err() != nil && err == nil {
		err = sigCtx.Err()
	}

	if !quiet && sigCtx.Signal() != nil {
		printSystemMessage(stdout, "Interrupted.")
	}
	return handleExecutionError(err)
}
