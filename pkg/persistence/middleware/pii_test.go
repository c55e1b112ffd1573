package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"
	state := domain.NewState(sessionID)
	state.Requirement.Text = "Send the code to +55 11 91234-5678 and confirm to ana@example.com"
	state.Artifact = "As a user, I want a code by SMS."
	state.Turns = []domain.Turn{{Kind: domain.TurnFollowUp, Question: "Which support address?", Answer: "help@example.org"}}

	// 1. Save
	require.NoError(t, secureStore.Save(ctx, sessionID, state))

	// The caller's state is not modified.
	assert.Equal(t, "help@example.org", state.Turns[0].Answer)

	// 2. Stored copy is masked
	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Send the code to *** and confirm to ***", stored.Requirement.Text)
	assert.Equal(t, "***", stored.Turns[0].Answer)
	assert.Equal(t, state.Artifact, stored.Artifact, "text without PII is untouched")
}

func TestChain_Order(t *testing.T) {
	underlyingStore := NewMockStore()
	store := middleware.Chain(underlyingStore,
		middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ctx := context.Background()

	state := domain.NewState("s")
	state.Artifact = "Contact bob@example.com"
	require.NoError(t, store.Save(ctx, "s", state))

	// Masked first, then encrypted.
	raw, err := underlyingStore.Load(ctx, "s")
	require.NoError(t, err)
	assert.NotContains(t, raw.Artifact, "@example.com")

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "Contact ***", loaded.Artifact)
}
