package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/dbx"
)

const (
	stateKeyManifest   = "cached_manifest"
	stateKeyDeviceID   = "device_id"
	stateKeyDeviceName = "device_name"
)

// SyncStateRepo is a small key/value table holding the cached last-synced
// manifest and the device identity.
type SyncStateRepo struct {
	db dbx.DBTX
}

func NewSyncStateRepo(db dbx.DBTX) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

// Get returns the stored value for key, or nil when absent.
func (r *SyncStateRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync_state[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SyncStateRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set sync_state[%s]: %w", key, err)
	}
	return nil
}

func (r *SyncStateRepo) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sync_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete sync_state[%s]: %w", key, err)
	}
	return nil
}

// CachedManifest returns the last successfully synced manifest document, or
// nil before the first sync.
func (r *SyncStateRepo) CachedManifest(ctx context.Context) ([]byte, error) {
	return r.Get(ctx, stateKeyManifest)
}

// SetCachedManifest replaces the cached manifest. Called as the last step of
// a sync cycle.
func (r *SyncStateRepo) SetCachedManifest(ctx context.Context, data []byte) error {
	return r.Set(ctx, stateKeyManifest, data)
}

// EnsureDevice returns the stable device identity, generating and persisting
// it on first use.
func (r *SyncStateRepo) EnsureDevice(ctx context.Context, defaultName string) (id, name string, err error) {
	idb, err := r.Get(ctx, stateKeyDeviceID)
	if err != nil {
		return "", "", err
	}
	if idb == nil {
		idb = []byte(uuid.NewString())
		if err := r.Set(ctx, stateKeyDeviceID, idb); err != nil {
			return "", "", err
		}
	}

	nb, err := r.Get(ctx, stateKeyDeviceName)
	if err != nil {
		return "", "", err
	}
	if nb == nil {
		nb = []byte(defaultName)
		if err := r.Set(ctx, stateKeyDeviceName, nb); err != nil {
			return "", "", err
		}
	}

	return string(idb), string(nb), nil
}
