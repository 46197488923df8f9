package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/common"
)

// MemoryAdapter is an in-memory Adapter for tests and for wiring a second
// "device" against the same remote in multi-device scenarios. Safe for
// concurrent use.
type MemoryAdapter struct {
	mu       sync.Mutex
	manifest []byte
	records  map[string][]byte
	images   map[string][]byte
	thumbs   map[string][]byte
	calls    map[string]int

	// ConnectErr, when set, is returned from Connect (credential failures).
	ConnectErr error
	// FailOn, when set, is consulted before every record/blob write or read;
	// a non-nil return is surfaced as the operation's error.
	FailOn func(op, id string) error
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		records: make(map[string][]byte),
		images:  make(map[string][]byte),
		thumbs:  make(map[string][]byte),
		calls:   make(map[string]int),
	}
}

func (m *MemoryAdapter) recordKey(typ models.EntityType, id string) string {
	return fmt.Sprintf("%s/%s", typ, id)
}

func (m *MemoryAdapter) count(op string) {
	m.calls[op]++
}

// Calls returns how many times op ran ("SaveRecord", "GetRecord", ...).
func (m *MemoryAdapter) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemoryAdapter) fail(op, id string) error {
	if m.FailOn != nil {
		return m.FailOn(op, id)
	}
	return nil
}

func (m *MemoryAdapter) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("Connect")
	return m.ConnectErr
}

func (m *MemoryAdapter) GetManifest(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("GetManifest")
	if err := m.fail("GetManifest", ""); err != nil {
		return nil, err
	}
	if m.manifest == nil {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), m.manifest...), nil
}

func (m *MemoryAdapter) SaveManifest(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("SaveManifest")
	if err := m.fail("SaveManifest", ""); err != nil {
		return err
	}
	m.manifest = append([]byte(nil), data...)
	return nil
}

func (m *MemoryAdapter) GetRecord(ctx context.Context, typ models.EntityType, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("GetRecord")
	if err := m.fail("GetRecord", id); err != nil {
		return nil, err
	}
	data, ok := m.records[m.recordKey(typ, id)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryAdapter) SaveRecord(ctx context.Context, typ models.EntityType, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("SaveRecord")
	if err := m.fail("SaveRecord", id); err != nil {
		return err
	}
	m.records[m.recordKey(typ, id)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryAdapter) DeleteRecord(ctx context.Context, typ models.EntityType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("DeleteRecord")
	if err := m.fail("DeleteRecord", id); err != nil {
		return err
	}
	delete(m.records, m.recordKey(typ, id))
	return nil
}

func (m *MemoryAdapter) getBlob(bucket map[string][]byte, op, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count(op)
	if err := m.fail(op, id); err != nil {
		return nil, err
	}
	data, ok := bucket[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryAdapter) saveBlob(bucket map[string][]byte, op, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count(op)
	if err := m.fail(op, id); err != nil {
		return err
	}
	bucket[id] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryAdapter) deleteBlob(bucket map[string][]byte, op, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count(op)
	if err := m.fail(op, id); err != nil {
		return err
	}
	delete(bucket, id)
	return nil
}

func (m *MemoryAdapter) GetImageFile(ctx context.Context, id string) ([]byte, error) {
	return m.getBlob(m.images, "GetImageFile", id)
}

func (m *MemoryAdapter) SaveImageFile(ctx context.Context, id string, data []byte) error {
	return m.saveBlob(m.images, "SaveImageFile", id, data)
}

func (m *MemoryAdapter) DeleteImageFile(ctx context.Context, id string) error {
	return m.deleteBlob(m.images, "DeleteImageFile", id)
}

func (m *MemoryAdapter) GetThumbnailFile(ctx context.Context, id string) ([]byte, error) {
	return m.getBlob(m.thumbs, "GetThumbnailFile", id)
}

func (m *MemoryAdapter) SaveThumbnailFile(ctx context.Context, id string, data []byte) error {
	return m.saveBlob(m.thumbs, "SaveThumbnailFile", id, data)
}

func (m *MemoryAdapter) DeleteThumbnailFile(ctx context.Context, id string) error {
	return m.deleteBlob(m.thumbs, "DeleteThumbnailFile", id)
}
