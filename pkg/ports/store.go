package ports

import (
	"context"

	"github.com/aretw0/storyloom/pkg/domain"
)

// StateStore defines the interface for persisting conversation state.
// It is the session persistence boundary: one key per session, surviving repeated
// interactions of the same session.
type StateStore interface {
	// Save persists the state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
