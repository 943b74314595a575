package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStorePutGetRoundTrip(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "dt=2024-06-01/london_14.json", []byte(`[]`), "application/json"))

	data, err := store.Get(ctx, "dt=2024-06-01/london_14.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), data)
}

func TestFSStoreGetMissingKey(t *testing.T) {
	store := NewFSStore(t.TempDir())

	_, err := store.Get(context.Background(), "dt=2024-06-01/london_14.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotExist))
}

func TestFSStorePutOverwrites(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key.json", []byte("first"), "application/json"))
	require.NoError(t, store.Put(ctx, "key.json", []byte("second"), "application/json"))

	data, err := store.Get(ctx, "key.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestFSStoreList(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	keys := []string{
		"dt=2024-06-01/london_14.json",
		"dt=2024-06-01/tokyo_02.json",
		"dt=2024-06-02/london_08.json",
	}
	for _, key := range keys {
		require.NoError(t, store.Put(ctx, key, []byte("{}"), "application/json"))
	}

	t.Run("prefix filters and sorts", func(t *testing.T) {
		got, err := store.List(ctx, "dt=2024-06-01/")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"dt=2024-06-01/london_14.json",
			"dt=2024-06-01/tokyo_02.json",
		}, got)
	})

	t.Run("empty prefix lists everything", func(t *testing.T) {
		got, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("unknown prefix is empty, not an error", func(t *testing.T) {
		got, err := store.List(ctx, "dt=2030-01-01/")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestFSStoreListMissingRoot(t *testing.T) {
	store := NewFSStore(filepath.Join(t.TempDir(), "never-created"))

	got, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFSStoreListHidesInFlightWrites(t *testing.T) {
	dir := t.TempDir()
	store := NewFSStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a/done.json", []byte("{}"), "application/json"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "partial.json.123.tmp"), []byte("x"), 0o600))

	got, err := store.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/done.json"}, got)
}

func TestFSStoreDelete(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key.json", []byte("{}"), "application/json"))
	require.NoError(t, store.Delete(ctx, "key.json"))

	_, err := store.Get(ctx, "key.json")
	assert.True(t, errors.Is(err, ErrNotExist))

	// Deleting an already-absent key is a no-op.
	assert.NoError(t, store.Delete(ctx, "key.json"))
}

func TestOpenLocalRoot(t *testing.T) {
	store, err := Open(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FSStore{}, store)
}

func TestOpenInvalidS3Root(t *testing.T) {
	_, err := Open(context.Background(), "s3://")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}
