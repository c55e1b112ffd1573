package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/storyloom/pkg/adapters/memory"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_SaveCopies(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state := domain.NewState("s1")
	state.Artifact = "story"
	require.NoError(t, store.Save(ctx, "s1", state))

	state.Artifact = "changed after save"
	state.Turns = append(state.Turns, domain.Turn{Answer: "late"})

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "story", loaded.Artifact)
	assert.Empty(t, loaded.Turns)
}
