package sync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

// SchemaVersion is the manifest format this client reads and writes.
// A remote manifest with a higher schemaVersion aborts the cycle with
// ErrSchemaTooNew; an older one is read and rewritten at this version.
const SchemaVersion = 1

// ItemSyncMeta is one entity's entry in the manifest. Hash is the sole
// change signal; UpdatedAt only breaks ties during conflict resolution.
type ItemSyncMeta struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updatedAt"`
	Version   int64     `json:"version"`
}

// Manifest is the remote's table of contents: per-type entity metadata plus
// the tombstone log. The whole sync protocol runs off two manifest reads
// (remote and cached baseline) and one manifest write.
type Manifest struct {
	Version                int64     `json:"version"`
	SchemaVersion          int       `json:"schemaVersion"`
	LastModified           time.Time `json:"lastModified"`
	LastModifiedDeviceID   string    `json:"lastModifiedDeviceId"`
	LastModifiedDeviceName string    `json:"lastModifiedDeviceName"`

	Projects    map[string]ItemSyncMeta `json:"projects"`
	Characters  map[string]ItemSyncMeta `json:"characters"`
	Images      map[string]ItemSyncMeta `json:"images"`
	Editions    map[string]ItemSyncMeta `json:"editions"`
	ScriptPages map[string]ItemSyncMeta `json:"scriptPages"`
	Panels      map[string]ItemSyncMeta `json:"panels"`

	DeletedItems []models.Tombstone `json:"deletedItems"`
}

func NewManifest() *Manifest {
	m := &Manifest{SchemaVersion: SchemaVersion}
	m.init()
	return m
}

func (m *Manifest) init() {
	if m.Projects == nil {
		m.Projects = map[string]ItemSyncMeta{}
	}
	if m.Characters == nil {
		m.Characters = map[string]ItemSyncMeta{}
	}
	if m.Images == nil {
		m.Images = map[string]ItemSyncMeta{}
	}
	if m.Editions == nil {
		m.Editions = map[string]ItemSyncMeta{}
	}
	if m.ScriptPages == nil {
		m.ScriptPages = map[string]ItemSyncMeta{}
	}
	if m.Panels == nil {
		m.Panels = map[string]ItemSyncMeta{}
	}
}

// Items returns the metadata map for one entity type. The map is the live
// one, so callers may mutate it.
func (m *Manifest) Items(t models.EntityType) map[string]ItemSyncMeta {
	switch t {
	case models.TypeProject:
		return m.Projects
	case models.TypeCharacter:
		return m.Characters
	case models.TypeImage:
		return m.Images
	case models.TypeEdition:
		return m.Editions
	case models.TypeScriptPage:
		return m.ScriptPages
	case models.TypePanel:
		return m.Panels
	}
	return nil
}

// Tombstone looks up a tombstone by id and type.
func (m *Manifest) Tombstone(id string, t models.EntityType) (models.Tombstone, bool) {
	for _, ts := range m.DeletedItems {
		if ts.ID == id && ts.Type == t {
			return ts, true
		}
	}
	return models.Tombstone{}, false
}

// AddTombstone merges a tombstone into the log, keeping the newest deletion
// time for the id, and drops any live entry for it. An id is either alive or
// dead in a manifest, never both.
func (m *Manifest) AddTombstone(ts models.Tombstone) {
	delete(m.Items(ts.Type), ts.ID)
	for i, existing := range m.DeletedItems {
		if existing.ID == ts.ID && existing.Type == ts.Type {
			if ts.DeletedAt.After(existing.DeletedAt) {
				m.DeletedItems[i] = ts
			}
			return
		}
	}
	m.DeletedItems = append(m.DeletedItems, ts)
}

// RemoveTombstone drops a tombstone, used when a resurrection wins over a
// deletion.
func (m *Manifest) RemoveTombstone(id string, t models.EntityType) {
	for i, ts := range m.DeletedItems {
		if ts.ID == id && ts.Type == t {
			m.DeletedItems = append(m.DeletedItems[:i], m.DeletedItems[i+1:]...)
			return
		}
	}
}

// Clone deep-copies the manifest so a cycle can mutate a working copy while
// keeping the original for comparison.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Projects = cloneMeta(m.Projects)
	c.Characters = cloneMeta(m.Characters)
	c.Images = cloneMeta(m.Images)
	c.Editions = cloneMeta(m.Editions)
	c.ScriptPages = cloneMeta(m.ScriptPages)
	c.Panels = cloneMeta(m.Panels)
	c.DeletedItems = append([]models.Tombstone(nil), m.DeletedItems...)
	return &c
}

func cloneMeta(src map[string]ItemSyncMeta) map[string]ItemSyncMeta {
	dst := make(map[string]ItemSyncMeta, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// EncodeManifest serializes a manifest for storage.
func EncodeManifest(m *Manifest) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding manifest: %v", ErrSerialization, err)
	}
	return data, nil
}

// DecodeManifest parses a manifest, refusing schemas newer than this client
// understands.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decoding manifest: %v", ErrSerialization, err)
	}
	if m.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("%w: remote schema %d, supported %d", ErrSchemaTooNew, m.SchemaVersion, SchemaVersion)
	}
	m.init()
	return &m, nil
}
