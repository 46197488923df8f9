package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/codec"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/common"
)

// snapshot is the encoded view of one entity type's local rows, taken once
// at the start of a cycle so comparison and upload see the same bytes.
type snapshot struct {
	items   []LocalItem
	encoded map[string][]byte
	updated map[string]time.Time
	parent  map[string]string
}

func newSnapshot() *snapshot {
	return &snapshot{
		encoded: map[string][]byte{},
		updated: map[string]time.Time{},
		parent:  map[string]string{},
	}
}

func (s *snapshot) add(id, parentID string, updatedAt time.Time, data []byte) {
	s.items = append(s.items, LocalItem{ID: id, Hash: codec.Hash(data), UpdatedAt: updatedAt})
	s.encoded[id] = data
	s.updated[id] = updatedAt
	s.parent[id] = parentID
}

func parentTypeOf(t models.EntityType) models.EntityType {
	switch t {
	case models.TypeCharacter, models.TypeEdition:
		return models.TypeProject
	case models.TypeImage:
		return models.TypeCharacter
	case models.TypeScriptPage:
		return models.TypeEdition
	case models.TypePanel:
		return models.TypeScriptPage
	}
	return ""
}

func (e *Engine) snapshotType(ctx context.Context, t models.EntityType) (*snapshot, error) {
	snap := newSnapshot()
	switch t {
	case models.TypeProject:
		list, err := e.store.Projects.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			data, err := codec.EncodeProject(p)
			if err != nil {
				return nil, err
			}
			snap.add(p.ID, "", p.UpdatedAt, data)
		}
	case models.TypeCharacter:
		list, err := e.store.Characters.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range list {
			sections, err := e.store.CharacterTree(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			data, err := codec.EncodeCharacter(c, sections)
			if err != nil {
				return nil, err
			}
			snap.add(c.ID, c.ProjectID, c.UpdatedAt, data)
		}
	case models.TypeImage:
		list, err := e.store.Images.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, img := range list {
			data, err := codec.EncodeImage(img)
			if err != nil {
				return nil, err
			}
			snap.add(img.ID, img.CharacterID, img.UpdatedAt, data)
		}
	case models.TypeEdition:
		list, err := e.store.Editions.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, ed := range list {
			data, err := codec.EncodeEdition(ed)
			if err != nil {
				return nil, err
			}
			snap.add(ed.ID, ed.ProjectID, ed.UpdatedAt, data)
		}
	case models.TypeScriptPage:
		list, err := e.store.Pages.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			data, err := codec.EncodeScriptPage(p)
			if err != nil {
				return nil, err
			}
			snap.add(p.ID, p.EditionID, p.UpdatedAt, data)
		}
	case models.TypePanel:
		list, err := e.store.Panels.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			data, err := codec.EncodePanel(p)
			if err != nil {
				return nil, err
			}
			snap.add(p.ID, p.PageID, p.UpdatedAt, data)
		}
	default:
		return nil, fmt.Errorf("unknown entity type %q", t)
	}
	return snap, nil
}

// encodeEntity re-encodes a single live entity, used by conflict resolution
// where the cycle snapshot is gone.
func (e *Engine) encodeEntity(ctx context.Context, t models.EntityType, id string) ([]byte, time.Time, error) {
	switch t {
	case models.TypeProject:
		p, err := e.store.Projects.Get(ctx, id)
		if err != nil {
			return nil, time.Time{}, err
		}
		data, err := codec.EncodeProject(p)
		return data, p.UpdatedAt, err
	case models.TypeCharacter:
		c, err := e.store.Characters.Get(ctx, id)
		if err != nil {
			return nil, time.Time{}, err
		}
		sections, err := e.store.CharacterTree(ctx, id)
		if err != nil {
			return nil, time.Time{}, err
		}
		data, err := codec.EncodeCharacter(c, sections)
		return data, c.UpdatedAt, err
	case models.TypeImage:
		img, err := e.store.Images.Get(ctx, id)
		if err != nil {
			return nil, time.Time{}, err
		}
		data, err := codec.EncodeImage(img)
		return data, img.UpdatedAt, err
	case models.TypeEdition:
		ed, err := e.store.Editions.Get(ctx, id)
		if err != nil {
			return nil, time.Time{}, err
		}
		data, err := codec.EncodeEdition(ed)
		return data, ed.UpdatedAt, err
	case models.TypeScriptPage:
		p, err := e.store.Pages.Get(ctx, id)
		if err != nil {
			return nil, time.Time{}, err
		}
		data, err := codec.EncodeScriptPage(p)
		return data, p.UpdatedAt, err
	case models.TypePanel:
		p, err := e.store.Panels.Get(ctx, id)
		if err != nil {
			return nil, time.Time{}, err
		}
		data, err := codec.EncodePanel(p)
		return data, p.UpdatedAt, err
	}
	return nil, time.Time{}, fmt.Errorf("unknown entity type %q", t)
}

// applyRecord decodes and writes one downloaded record. It reports false
// without writing when the record's parent is gone, which marks the record
// as cascade garbage on the remote.
func (e *Engine) applyRecord(ctx context.Context, c *cycle, t models.EntityType, id string, data []byte) (bool, error) {
	switch t {
	case models.TypeProject:
		p, err := codec.DecodeProject(data)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		return true, e.store.Projects.Put(ctx, p)

	case models.TypeCharacter:
		ch, sections, err := codec.DecodeCharacter(data)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		alive, err := e.parentAlive(ctx, c, models.TypeProject, ch.ProjectID)
		if err != nil || !alive {
			return false, err
		}
		return true, e.store.PutCharacterTree(ctx, ch, sections)

	case models.TypeImage:
		img, err := codec.DecodeImage(data)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		alive, err := e.parentAlive(ctx, c, models.TypeCharacter, img.CharacterID)
		if err != nil || !alive {
			return false, err
		}
		if err := e.downloadImageBlobs(ctx, img); err != nil {
			return false, err
		}
		return true, e.store.Images.Put(ctx, img)

	case models.TypeEdition:
		ed, err := codec.DecodeEdition(data)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		alive, err := e.parentAlive(ctx, c, models.TypeProject, ed.ProjectID)
		if err != nil || !alive {
			return false, err
		}
		return true, e.store.Editions.Put(ctx, ed)

	case models.TypeScriptPage:
		p, err := codec.DecodeScriptPage(data)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		alive, err := e.parentAlive(ctx, c, models.TypeEdition, p.EditionID)
		if err != nil || !alive {
			return false, err
		}
		return true, e.store.Pages.Put(ctx, p)

	case models.TypePanel:
		p, err := codec.DecodePanel(data)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		alive, err := e.parentAlive(ctx, c, models.TypeScriptPage, p.PageID)
		if err != nil || !alive {
			return false, err
		}
		return true, e.store.Panels.Put(ctx, p)
	}
	return false, fmt.Errorf("unknown entity type %q", t)
}

// parentAlive reports whether a parent id exists locally and is not being
// deleted this cycle. Parents sync before children, so a live parent has
// already been applied by the time this runs. False with a nil error means
// the parent is definitively gone (the child is cascade garbage); a non-nil
// error means the parent merely is not available, e.g. its own download
// failed, and the child must be flagged rather than collected.
func (e *Engine) parentAlive(ctx context.Context, c *cycle, pt models.EntityType, parentID string) (bool, error) {
	if c != nil && c.dead[pt][parentID] {
		return false, nil
	}
	var err error
	switch pt {
	case models.TypeProject:
		_, err = e.store.Projects.Get(ctx, parentID)
	case models.TypeCharacter:
		_, err = e.store.Characters.Get(ctx, parentID)
	case models.TypeEdition:
		_, err = e.store.Editions.Get(ctx, parentID)
	case models.TypeScriptPage:
		_, err = e.store.Pages.Get(ctx, parentID)
	default:
		return false, fmt.Errorf("unexpected parent type %q", pt)
	}
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return false, err
	}
	if c != nil && c.remote != nil {
		if _, live := c.remote.Items(pt)[parentID]; live {
			return false, fmt.Errorf("parent %s %s not available locally", pt, parentID)
		}
	}
	return false, nil
}

func (e *Engine) downloadImageBlobs(ctx context.Context, img *models.MoodboardImage) error {
	var data []byte
	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		var err error
		data, err = e.remote.GetImageFile(ctx, img.ID)
		return err
	}); err != nil {
		return fmt.Errorf("fetching image file: %w", err)
	}

	var thumb []byte
	err := e.retryRemote(ctx, func(ctx context.Context) error {
		var err error
		thumb, err = e.remote.GetThumbnailFile(ctx, img.ID)
		return err
	})
	if errors.Is(err, common.ErrNotFound) {
		// No thumbnail was ever uploaded; regenerating one is the UI's
		// concern, not the sync layer's.
		thumb = nil
	} else if err != nil {
		return fmt.Errorf("fetching thumbnail file: %w", err)
	}

	return codec.Materialize(img, e.blobs, data, thumb)
}

// deleteLocalEntity applies a remote tombstone: clean up blob files, run the
// cascade delete, and drop the tombstone the cascade logged since this
// deletion is already propagated.
func (e *Engine) deleteLocalEntity(ctx context.Context, t models.EntityType, id string) error {
	if err := e.deleteLocalBlobs(ctx, t, id); err != nil {
		// Stray files are not worth failing the cycle over.
		e.log.Warn(ctx, "blob cleanup failed", "type", string(t), "id", id, "error", err)
	}

	var err error
	switch t {
	case models.TypeProject:
		err = e.store.DeleteProject(ctx, id)
	case models.TypeCharacter:
		err = e.store.DeleteCharacter(ctx, id)
	case models.TypeImage:
		err = e.store.DeleteImage(ctx, id)
	case models.TypeEdition:
		err = e.store.DeleteEdition(ctx, id)
	case models.TypeScriptPage:
		err = e.store.DeleteScriptPage(ctx, id)
	case models.TypePanel:
		err = e.store.DeletePanel(ctx, id)
	default:
		err = fmt.Errorf("unknown entity type %q", t)
	}
	if err != nil {
		return err
	}
	return e.store.Tombstones.Remove(ctx, id, t)
}

func (e *Engine) deleteLocalBlobs(ctx context.Context, t models.EntityType, id string) error {
	switch t {
	case models.TypeImage:
		img, err := e.store.Images.Get(ctx, id)
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return e.removeImageFiles(img)
	case models.TypeCharacter:
		imgs, err := e.store.Images.ListByCharacter(ctx, id)
		if err != nil {
			return err
		}
		for _, img := range imgs {
			if err := e.removeImageFiles(img); err != nil {
				return err
			}
		}
	case models.TypeProject:
		chars, err := e.store.Characters.ListByProject(ctx, id)
		if err != nil {
			return err
		}
		for _, ch := range chars {
			if err := e.deleteLocalBlobs(ctx, models.TypeCharacter, ch.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) removeImageFiles(img *models.MoodboardImage) error {
	if err := e.blobs.DeleteImage(img.StoragePath); err != nil {
		return err
	}
	return e.blobs.DeleteThumbnail(img.ThumbnailPath)
}

// deleteRemoteObjects removes one entity's record, and for images its blob
// files, from the remote. Absent objects are fine; the delete is idempotent.
func (e *Engine) deleteRemoteObjects(ctx context.Context, t models.EntityType, id string) error {
	if t == models.TypeImage {
		if err := e.retryRemote(ctx, func(ctx context.Context) error {
			return e.remote.DeleteImageFile(ctx, id)
		}); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if err := e.retryRemote(ctx, func(ctx context.Context) error {
			return e.remote.DeleteThumbnailFile(ctx, id)
		}); err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
	}
	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		return e.remote.DeleteRecord(ctx, t, id)
	}); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return nil
}
