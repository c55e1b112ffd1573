package runner

import (
	"context"
	"strings"
)

// Confirmer decides whether a destructive command (discarding a story) may proceed.
type Confirmer func(ctx context.Context, prompt string) (bool, error)

// ConfirmationMiddleware asks the user via the provided Handler before allowing the command.
// Only "y" or "yes" approve.
func ConfirmationMiddleware(handler IOHandler) Confirmer {
	return func(ctx context.Context, prompt string) (bool, error) {
		// 1. Show the question as a system message
		if err := handler.SystemOutput(ctx, prompt+" [y/N]"); err != nil {
			return false, err
		}

		// 2. Read Response
		input, err := handler.Input(ctx)
		if err != nil {
			return false, err
		}

		// 3. Validate
		input = strings.TrimSpace(strings.ToLower(input))
		return input == "y" || input == "yes", nil
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() Confirmer {
	return func(ctx context.Context, prompt string) (bool, error) {
		return true, nil
	}
}
