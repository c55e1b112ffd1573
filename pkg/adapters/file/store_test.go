package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/storyloom/pkg/adapters/file"
	"github.com/aretw0/storyloom/pkg/domain"
	"github.com/aretw0/storyloom/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.StateStore = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	state := domain.NewState("s1")
	state.Artifact = "As a user, I want X."
	require.NoError(t, store.Save(ctx, "s1", state))

	data, err := os.ReadFile(filepath.Join(dir, "s1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"artifact": "As a user, I want X."`)

	// Overwrite keeps a single file.
	state.Artifact = "v2"
	require.NoError(t, store.Save(ctx, "s1", state))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_ListIgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.json.tmp-123"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, store.Save(context.Background(), "b", domain.NewState("b")))
	require.NoError(t, store.Save(context.Background(), "a", domain.NewState("a")))

	ids, err := store.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFileStore_ListsTmpPrefixedSessions(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	state := domain.NewState("tmp-1")
	state.Artifact = "v1"
	require.NoError(t, store.Save(ctx, "tmp-1", state))
	state.Artifact = "v2"
	require.NoError(t, store.Save(ctx, "tmp-1", state))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp-1"}, ids)

	loaded, err := store.Load(ctx, "tmp-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", loaded.Artifact)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "does", "not", "exist"))

	ids, err := store.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "../escape", domain.NewState("x")))
	_, err := store.Load(ctx, "")
	assert.Error(t, err)
}
