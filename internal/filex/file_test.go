package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSubDir(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureSubDir(root, "images")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "images"), dir)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// idempotent
	again, err := EnsureSubDir(root, "images")
	require.NoError(t, err)
	assert.Equal(t, dir, again)
}

func TestWriteFileAtomic(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "manifest.json")

	require.NoError(t, WriteFileAtomic(path, []byte("v1")))
	require.NoError(t, WriteFileAtomic(path, []byte("v2")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
