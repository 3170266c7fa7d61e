package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpbiotech/configurator/pkg/blob"
)

func TestLocalStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("read missing key", func(t *testing.T) {
		t.Parallel()
		s, err := blob.NewLocalStorage(t.TempDir())
		require.NoError(t, err)

		_, err = s.Read(ctx, "licenses.csv")
		require.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("write replaces content", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		s, err := blob.NewLocalStorage(dir)
		require.NoError(t, err)

		require.NoError(t, s.Write(ctx, "licenses.csv", []byte("first")))
		require.NoError(t, s.Write(ctx, "licenses.csv", []byte("second")))

		data, err := s.Read(ctx, "licenses.csv")
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1, "temporary files must not be left behind")
		assert.Equal(t, "licenses.csv", entries[0].Name())
	})

	t.Run("nested key", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		s, err := blob.NewLocalStorage(dir)
		require.NoError(t, err)

		require.NoError(t, s.Write(ctx, "backup/licenses.csv", []byte("x")))
		_, err = os.Stat(filepath.Join(dir, "backup", "licenses.csv"))
		require.NoError(t, err)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		t.Parallel()
		s, err := blob.NewLocalStorage(t.TempDir())
		require.NoError(t, err)

		require.ErrorIs(t, s.Write(ctx, "../escape.csv", []byte("x")), blob.ErrInvalidKey)
		_, err = s.Read(ctx, "")
		require.ErrorIs(t, err, blob.ErrInvalidKey)
	})

	t.Run("empty base dir", func(t *testing.T) {
		t.Parallel()
		_, err := blob.NewLocalStorage("")
		require.ErrorIs(t, err, blob.ErrInvalidConfig)
	})
}

func TestMemoryStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := blob.NewMemoryStorage()

	_, err := s.Read(ctx, "k")
	require.ErrorIs(t, err, blob.ErrNotFound)

	data := []byte("abc")
	require.NoError(t, s.Write(ctx, "k", data))
	data[0] = 'z'

	got, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "storage must copy input")
	assert.Equal(t, 1, s.Writes())
}

func TestNew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, closeFn, err := blob.New(ctx, blob.Config{Backend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, closeFn)
	assert.IsType(t, &blob.MemoryStorage{}, s)
	require.NoError(t, closeFn())

	s, _, err = blob.New(ctx, blob.Config{Backend: "local", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &blob.LocalStorage{}, s)

	_, _, err = blob.New(ctx, blob.Config{Backend: "ftp"})
	require.ErrorIs(t, err, blob.ErrInvalidConfig)
}
