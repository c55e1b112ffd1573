package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		// 1. Create a conversation with history
		state := domain.NewState(sessionID)
		state.Requirement = domain.Requirement{Text: "Users log in with a one-time code.", Context: "banking"}
		state.Artifact = "As a customer, I want to log in with a code, so that I stay secure."
		state.PendingQuestion = "How long is a code valid?"
		state.Turns = append(state.Turns, domain.Turn{
			Kind:            domain.TurnFollowUp,
			Question:        "Which channel delivers the code?",
			Answer:          "SMS",
			Acknowledgement: "Understood, SMS delivery.",
			CreatedAt:       time.Now().UTC(),
		})

		// 2. Save
		err := store.Save(ctx, sessionID, state)
		require.NoError(t, err, "Save should not return error")

		// 3. Load
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Artifact, loaded.Artifact)
		assert.Equal(t, state.PendingQuestion, loaded.PendingQuestion)
		assert.Equal(t, state.Requirement, loaded.Requirement)
		require.Len(t, loaded.Turns, 1)
		assert.Equal(t, "SMS", loaded.Turns[0].Answer)
		assert.Equal(t, domain.TurnFollowUp, loaded.Turns[0].Kind)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)

		// Mutating what we got back must not leak into the store.
		loaded.Artifact = "tampered"
		loaded.Turns = append(loaded.Turns, domain.Turn{Question: "extra"})

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEqual(t, "tampered", again.Artifact)
		assert.Len(t, again.Turns, 1)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		// Setup
		err := store.Save(ctx, sessionID, domain.NewState(sessionID))
		require.NoError(t, err)

		// Delete
		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		// Verify
		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		// Setup: Create 2 sessions
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1))
		_ = store.Save(ctx, id2, domain.NewState(id2))

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		// List
		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
