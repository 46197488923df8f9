package blob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	path, err := s.SaveImage("img-1", []byte("pixels"))
	require.NoError(t, err)
	assert.Contains(t, path, "img-1")

	data, err := s.GetImage(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)

	tpath, err := s.SaveThumbnail("img-1", []byte("tiny"))
	require.NoError(t, err)
	assert.NotEqual(t, path, tpath)
}

func TestStore_SaveOverwrites(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	p1, err := s.SaveImage("img-1", []byte("v1"))
	require.NoError(t, err)
	p2, err := s.SaveImage("img-1", []byte("v2"))
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	data, err := s.GetImage(p2)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)

	path, err := s.SaveImage("img-1", []byte("pixels"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteImage(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// second delete and empty path are no-ops
	require.NoError(t, s.DeleteImage(path))
	require.NoError(t, s.DeleteThumbnail(""))

	_, err = os.Stat(filepath.Join(root, "thumbnails"))
	assert.NoError(t, err)
}
