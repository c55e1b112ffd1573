package runner

import (
	"context"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents dialogue blocks to the user.
	Output(ctx context.Context, blocks []Block) error

	// Input reads one line from the user.
	Input(ctx context.Context) (string, error)

	// Signal notifies the handler of an event (e.g. "thinking", "done").
	// This is used for visual feedback while a completion is in flight.
	Signal(ctx context.Context, name string, args map[string]any) error

	// SystemOutput presents a meta-message to the user (e.g. help, errors, saved files).
	// This is distinct from dialogue content.
	SystemOutput(ctx context.Context, msg string) error
}

// Signals sent to IOHandler.Signal.
const (
	SignalThinking = "thinking"
	SignalDone     = "done"
)
