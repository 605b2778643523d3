package diskstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douaaea/schoolhub/core/artifact"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := New(dir)
	require.NoError(t, err)

	key := artifact.NewKey("essay.pdf")
	require.NoError(t, s.Put(ctx, key, strings.NewReader("%PDF-1.4")))

	onDisk, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(onDisk))

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4", string(data))

	t.Run("no overwrite", func(t *testing.T) {
		assert.Error(t, s.Put(ctx, key, strings.NewReader("other")))
		onDisk, err := os.ReadFile(filepath.Join(dir, key))
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(onDisk))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, key))
		ok, err := s.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.Open(ctx, key)
		assert.Equal(t, artifact.ErrNotExist, err)
		assert.NoError(t, s.Delete(ctx, key))
	})
}

func TestStore_invalidKeys(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../escape.pdf", "a/b.pdf", `a\b.pdf`} {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, artifact.ErrInvalidKey, s.Put(ctx, key, strings.NewReader("x")))
			_, err := s.Open(ctx, key)
			assert.Equal(t, artifact.ErrInvalidKey, err)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestStore_Put_removesPartialFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	key := artifact.NewKey("broken.docx")
	assert.Error(t, s.Put(ctx, key, failingReader{}))

	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))
}
