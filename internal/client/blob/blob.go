// Package blob stores image binaries and thumbnails on the local filesystem,
// id-addressed. The returned paths are what the entity store records in the
// local-only storage_path / thumbnail_path columns.
package blob

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/filex"
)

const (
	imagesDir = "images"
	thumbsDir = "thumbnails"
)

// Store is a directory-backed blob store with separate image and thumbnail
// subdirectories.
type Store struct {
	root string
}

// NewStore creates (if needed) the blob directories under root.
func NewStore(root string) (*Store, error) {
	if _, err := filex.EnsureSubDir(root, imagesDir); err != nil {
		return nil, err
	}
	if _, err := filex.EnsureSubDir(root, thumbsDir); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

// SaveImage writes the image blob for id and returns its path.
func (s *Store) SaveImage(id string, data []byte) (string, error) {
	return s.save(imagesDir, id, data)
}

// SaveThumbnail writes the thumbnail blob for id and returns its path.
func (s *Store) SaveThumbnail(id string, data []byte) (string, error) {
	return s.save(thumbsDir, id, data)
}

func (s *Store) save(dir, id string, data []byte) (string, error) {
	path := filepath.Join(s.root, dir, id)
	if err := filex.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("save blob %s: %w", id, err)
	}
	return path, nil
}

// GetImage reads a blob back by the path previously returned from a save.
func (s *Store) GetImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", path, err)
	}
	return data, nil
}

// DeleteImage removes a blob by path. Removing an absent path is a no-op.
func (s *Store) DeleteImage(path string) error {
	return s.remove(path)
}

// DeleteThumbnail removes a thumbnail by path. Removing an absent path is a
// no-op.
func (s *Store) DeleteThumbnail(path string) error {
	return s.remove(path)
}

func (s *Store) remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", path, err)
	}
	return nil
}
