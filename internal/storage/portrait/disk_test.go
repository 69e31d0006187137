package portrait

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveAndOverwrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir, "/uploads")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "rook.png", strings.NewReader("first")))
	require.NoError(t, store.Save(ctx, "rook.png", strings.NewReader("second")))

	data, err := os.ReadFile(filepath.Join(dir, "rook.png"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be cleaned up")
}

func TestDiskStoreRejectsNestedNames(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	assert.Error(t, store.Save(context.Background(), "../escape.png", strings.NewReader("x")))
	assert.Error(t, store.Save(context.Background(), "", strings.NewReader("x")))
}

func TestDiskStoreDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/uploads")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "rook.png", strings.NewReader("img")))
	require.NoError(t, store.Delete(ctx, "rook.png"))
	assert.NoFileExists(t, filepath.Join(dir, "rook.png"))

	// Deleting again is fine, escaping the directory is not
	assert.NoError(t, store.Delete(ctx, "rook.png"))
	assert.Error(t, store.Delete(ctx, "../rook.png"))
}

func TestDiskStoreURL(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/rook.png", store.URL("rook.png"))
}

func TestNewDiskStoreRequiresDir(t *testing.T) {
	_, err := NewDiskStore(" ", "/uploads")
	assert.Error(t, err)
}
