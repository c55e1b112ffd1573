package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretState(id string) *domain.State {
	s := domain.NewState(id)
	s.Requirement.Text = "Confidential payroll export"
	s.Artifact = "As an accountant, I want to export payroll."
	s.PendingQuestion = "Which format?"
	s.Turns = []domain.Turn{{Kind: domain.TurnFollowUp, Question: "Who?", Answer: "HR only"}}
	return s
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	sessionID := "test-session"
	original := secretState(sessionID)

	// 1. Save
	require.NoError(t, secureStore.Save(ctx, sessionID, original))

	// 2. Underlying store only sees the envelope
	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.NotContains(t, stored.Artifact, "payroll")
	assert.Empty(t, stored.Requirement.Text)
	assert.Empty(t, stored.Turns)
	assert.Empty(t, stored.PendingQuestion)
	assert.Equal(t, sessionID, stored.SessionID)

	// 3. Load via Middleware
	loaded, err := secureStore.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, original.Artifact, loaded.Artifact)
	assert.Equal(t, original.Requirement, loaded.Requirement)
	assert.Equal(t, "HR only", loaded.Turns[0].Answer)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	sessionID := "rotation-session"

	// 1. Save with OLD key
	require.NoError(t, secureStoreOld.Save(ctx, sessionID, secretState(sessionID)))

	// 2. Load with NEW key (Active) + OLD key (Fallback)
	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Which format?", loaded.PendingQuestion)

	// 3. Save again, now under the NEW key
	loaded.PendingQuestion = "CSV or XLSX?"
	require.NoError(t, secureStoreNew.Save(ctx, sessionID, loaded))

	// 4. The OLD key alone no longer works
	_, err = secureStoreOld.Load(ctx, sessionID)
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RefusesPlainState(t *testing.T) {
	underlyingStore := NewMockStore()
	require.NoError(t, underlyingStore.Save(context.Background(), "plain", secretState("plain")))
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	_, err := secureStore.Load(context.Background(), "plain")

	assert.ErrorIs(t, err, middleware.ErrNotEncrypted)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    generateKey(t),
			FallbackKeys: [][]byte{[]byte("retired-short-key")},
		})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	fromHex, err := middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, fromHex)

	fromB64, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, fromB64)

	_, err = middleware.ParseKey("too-short")
	assert.Error(t, err)
}
