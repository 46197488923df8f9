package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/codec"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/common"
)

// PendingConflicts lists conflicts deferred by the last cycle under
// StrategyAsk, in deterministic order.
func (e *Engine) PendingConflicts() []Conflict {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Conflict, 0, len(e.pending))
	for _, c := range e.pending {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ResolveConflicts applies per-item choices for conflicts a previous cycle
// deferred. Items missing from choices stay pending; resolving an already
// resolved (or vanished) item is a no-op, so the call is idempotent.
func (e *Engine) ResolveConflicts(ctx context.Context, choices map[string]Action) (*Result, error) {
	if !e.begin() {
		return nil, ErrSyncInFlight
	}
	defer e.end()

	res := &Result{}
	pending := e.PendingConflicts()
	if len(pending) == 0 {
		e.setPhase(PhaseIdle)
		return res, nil
	}

	if err := e.remote.Connect(ctx); err != nil {
		e.setPhase(PhaseError)
		return res, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	// Work off a fresh remote manifest; the conflicts were found against a
	// snapshot that other devices may have advanced since.
	data, err := e.remote.GetManifest(ctx)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		e.setPhase(PhaseError)
		return res, fmt.Errorf("%w: reading manifest: %v", ErrNetwork, err)
	}
	work := NewManifest()
	var remoteVersion int64
	if err == nil {
		m, err := DecodeManifest(data)
		if err != nil {
			e.setPhase(PhaseError)
			return res, err
		}
		work = m.Clone()
		remoteVersion = m.Version
	}

	dirty := false
	for _, conf := range pending {
		action, ok := choices[conf.ID]
		if !ok {
			res.Pending = append(res.Pending, conf)
			continue
		}
		switch action {
		case ActionSkip:
			res.Skipped++
		case ActionLocal:
			written, err := e.resolveWithLocal(ctx, work, conf)
			switch {
			case err != nil:
				res.record(ItemError{Type: conf.Type, ID: conf.ID, Op: "upload", Err: err})
				e.log.Warn(ctx, "conflict resolution upload failed", "type", string(conf.Type), "id", conf.ID, "error", err)
			case !written:
				res.Skipped++
			default:
				res.Uploaded++
				dirty = true
			}
		case ActionRemote:
			if err := e.resolveWithRemote(ctx, conf); err != nil {
				res.record(ItemError{Type: conf.Type, ID: conf.ID, Op: "download", Err: err})
				e.log.Warn(ctx, "conflict resolution download failed", "type", string(conf.Type), "id", conf.ID, "error", err)
			} else {
				res.Downloaded++
			}
		}
		e.dropPending(conf.ID)
	}

	if dirty {
		work.Version = remoteVersion + 1
		work.SchemaVersion = SchemaVersion
		work.LastModified = time.Now().UTC()
		deviceID, deviceName, err := e.store.State.EnsureDevice(ctx, e.cfg.DeviceName)
		if err != nil {
			e.setPhase(PhaseError)
			return res, err
		}
		work.LastModifiedDeviceID = deviceID
		work.LastModifiedDeviceName = deviceName

		encoded, err := EncodeManifest(work)
		if err != nil {
			e.setPhase(PhaseError)
			return res, err
		}
		if err := e.retryRemote(ctx, func(ctx context.Context) error {
			return e.remote.SaveManifest(ctx, encoded)
		}); err != nil {
			e.setPhase(PhaseError)
			return res, fmt.Errorf("%w: writing manifest: %v", ErrNetwork, err)
		}
		// Ids still pending or failed keep their old baseline meta so the
		// next cycle re-detects them instead of reading them as local edits.
		var baseline *Manifest
		if cached, err := e.store.State.CachedManifest(ctx); err != nil {
			e.setPhase(PhaseError)
			return res, err
		} else if len(cached) > 0 {
			if m, err := DecodeManifest(cached); err == nil {
				baseline = m
			}
		}
		if err := e.cacheBaseline(ctx, baseline, work, res.Pending, res.Errors); err != nil {
			e.setPhase(PhaseError)
			return res, err
		}
	}

	res.Partial = res.Failed > 0 || len(res.Pending) > 0
	if len(res.Pending) > 0 {
		e.setPhase(PhaseConflictsPending)
	} else {
		e.setPhase(PhaseIdle)
	}
	return res, nil
}

func (e *Engine) dropPending(id string) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

// resolveWithLocal pushes the local copy over the remote one. It reports
// false without writing when the entity was deleted locally since the cycle;
// the tombstone path owns it then, and no manifest write is owed.
func (e *Engine) resolveWithLocal(ctx context.Context, work *Manifest, conf Conflict) (bool, error) {
	data, updatedAt, err := e.encodeEntity(ctx, conf.Type, conf.ID)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if conf.Type == models.TypeImage {
		if err := e.uploadImageBlobs(ctx, conf.ID); err != nil {
			return false, err
		}
	}
	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		return e.remote.SaveRecord(ctx, conf.Type, conf.ID, data)
	}); err != nil {
		return false, err
	}
	items := work.Items(conf.Type)
	prev := items[conf.ID]
	items[conf.ID] = ItemSyncMeta{
		ID:        conf.ID,
		Hash:      codec.Hash(data),
		UpdatedAt: updatedAt,
		Version:   prev.Version + 1,
	}
	return true, nil
}

func (e *Engine) resolveWithRemote(ctx context.Context, conf Conflict) error {
	var data []byte
	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		var err error
		data, err = e.remote.GetRecord(ctx, conf.Type, conf.ID)
		return err
	}); err != nil {
		return err
	}
	applied, err := e.applyRecord(ctx, nil, conf.Type, conf.ID, data)
	if err != nil {
		return err
	}
	if !applied {
		// Parent vanished since the conflict was found; nothing to keep.
		return nil
	}
	return e.store.Tombstones.Remove(ctx, conf.ID, conf.Type)
}

// Status summarizes local divergence from the last synced baseline without
// touching the network.
type Status struct {
	Phase            Phase
	PendingUpload    int
	PendingDeletes   int
	PendingConflicts int
	LastSyncedAt     time.Time
	LastSyncedDevice string
	ManifestVersion  int64
}

func (e *Engine) Status(ctx context.Context) (*Status, error) {
	st := &Status{Phase: e.Phase()}

	var baseline *Manifest
	cached, err := e.store.State.CachedManifest(ctx)
	switch {
	case err != nil:
		return nil, err
	case len(cached) == 0:
	default:
		m, err := DecodeManifest(cached)
		if err == nil {
			baseline = m
			st.LastSyncedAt = m.LastModified
			st.LastSyncedDevice = m.LastModifiedDeviceName
			st.ManifestVersion = m.Version
		}
	}

	for _, t := range models.TypesInOrder() {
		snap, err := e.snapshotType(ctx, t)
		if err != nil {
			return nil, err
		}
		var base map[string]ItemSyncMeta
		if baseline != nil {
			base = baseline.Items(t)
		}
		for _, it := range snap.items {
			meta, ok := base[it.ID]
			if !ok || meta.Hash != it.Hash {
				st.PendingUpload++
			}
		}
	}

	tombs, err := e.store.Tombstones.List(ctx)
	if err != nil {
		return nil, err
	}
	st.PendingDeletes = len(tombs)

	e.mu.Lock()
	st.PendingConflicts = len(e.pending)
	e.mu.Unlock()
	return st, nil
}
