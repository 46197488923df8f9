// Package sync implements the manifest-based reconciliation cycle between
// the local store and a remote object store: hash-driven change detection,
// three-way diffing against a cached baseline, tombstone propagation and
// conflict resolution.
package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/blob"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/codec"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/remote"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/store"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/common"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/logging"
)

// Config tunes a sync engine.
type Config struct {
	// Strategy settles conflicting edits. Defaults to newest-wins.
	Strategy Strategy
	// DeviceName labels this device in the manifest it writes.
	DeviceName string
	// MaxItemRetries bounds retries per item before it is skipped and
	// flagged. Defaults to 3.
	MaxItemRetries int
	// Parallelism caps concurrent uploads within one entity type.
	// Defaults to 4.
	Parallelism int
	// OnProgress, when set, receives phase and per-item progress reports.
	OnProgress ProgressFunc
}

// Engine runs sync cycles. At most one cycle runs at a time; a second
// PerformSync while one is in flight fails with ErrSyncInFlight.
type Engine struct {
	store  *store.Store
	remote remote.Adapter
	blobs  *blob.Store
	log    logging.Logger
	cfg    Config

	mu      stdsync.Mutex
	running bool
	phase   Phase
	pending map[string]Conflict
}

func New(st *store.Store, rem remote.Adapter, blobs *blob.Store, log logging.Logger, cfg Config) *Engine {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyNewestWins
	}
	if cfg.MaxItemRetries <= 0 {
		cfg.MaxItemRetries = 3
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	return &Engine{
		store:   st,
		remote:  rem,
		blobs:   blobs,
		log:     log,
		cfg:     cfg,
		phase:   PhaseIdle,
		pending: map[string]Conflict{},
	}
}

// Options modifies a single sync cycle.
type Options struct {
	// Force runs the full cycle and rewrites the manifest even when the
	// comparison finds nothing to transfer.
	Force bool
}

// Phase reports where the engine currently is.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

func (e *Engine) begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *Engine) end() {
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
	e.report(Progress{Phase: p})
}

func (e *Engine) report(p Progress) {
	if e.cfg.OnProgress != nil {
		e.cfg.OnProgress(p)
	}
}

// cycle carries one sync run's state between phases.
type cycle struct {
	mu stdsync.Mutex

	res      *Result
	remote   *Manifest // nil until the remote has been synced to once
	baseline *Manifest
	work     *Manifest // manifest this cycle will publish
	snaps    map[models.EntityType]*snapshot
	diffs    map[models.EntityType]Diff
	tombs    []models.Tombstone
	dead     map[models.EntityType]map[string]bool

	deviceID   string
	deviceName string

	// dirty is set once any remote object was written or removed, which
	// obliges a manifest write.
	dirty bool
}

// PerformSync runs one full sync cycle.
func (e *Engine) PerformSync(ctx context.Context, opts Options) (*Result, error) {
	if !e.begin() {
		return nil, ErrSyncInFlight
	}
	defer e.end()

	res, err := e.run(ctx, opts)
	if err != nil {
		e.setPhase(PhaseError)
		e.log.Error(ctx, "sync cycle failed", "error", err)
		return res, err
	}
	if len(res.Pending) > 0 {
		e.setPhase(PhaseConflictsPending)
	} else {
		e.setPhase(PhaseIdle)
	}
	return res, nil
}

func (e *Engine) run(ctx context.Context, opts Options) (*Result, error) {
	c := &cycle{res: &Result{}}

	e.setPhase(PhaseConnecting)
	if err := e.remote.Connect(ctx); err != nil {
		return c.res, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	e.setPhase(PhaseChecking)
	if err := e.check(ctx, c); err != nil {
		return c.res, err
	}

	e.setPhase(PhaseComparing)
	if err := e.compare(ctx, c); err != nil {
		return c.res, err
	}

	if !opts.Force && c.nothingToDo() {
		e.log.Info(ctx, "sync: nothing to do",
			"remoteVersion", c.remoteVersion())
		if err := e.pruneSettledTombstones(ctx, c); err != nil {
			return c.res, err
		}
		// The remote manifest may have advanced immaterially (another
		// device's no-op write); track it as the new baseline either way.
		if c.remote != nil {
			if err := e.cacheBaseline(ctx, c.baseline, c.remote, c.res.Pending, c.res.Errors); err != nil {
				return c.res, err
			}
		}
		e.setPending(nil)
		return c.res, nil
	}

	e.resolveConflicts(ctx, c)

	e.setPhase(PhaseUploading)
	if err := e.uploadAll(ctx, c); err != nil {
		return c.res, err
	}

	e.setPhase(PhaseDownloading)
	if err := e.downloadAll(ctx, c); err != nil {
		return c.res, err
	}

	e.setPhase(PhaseMerging)
	if err := e.applyDeletes(ctx, c); err != nil {
		return c.res, err
	}
	if err := e.store.CheckIntegrity(ctx); err != nil {
		return c.res, fmt.Errorf("%w: %v", ErrCascadeIntegrity, err)
	}

	e.setPhase(PhaseFinalizing)
	if err := e.finalize(ctx, c, opts); err != nil {
		return c.res, err
	}

	c.res.Partial = c.res.Failed > 0 || len(c.res.Pending) > 0
	e.log.Info(ctx, "sync cycle complete",
		"uploaded", c.res.Uploaded,
		"downloaded", c.res.Downloaded,
		"deletedLocal", c.res.DeletedLocal,
		"deletedRemote", c.res.DeletedRemote,
		"failed", c.res.Failed,
		"pendingConflicts", len(c.res.Pending))
	return c.res, nil
}

// check loads both manifests and the device identity.
func (e *Engine) check(ctx context.Context, c *cycle) error {
	data, err := e.remote.GetManifest(ctx)
	switch {
	case errors.Is(err, common.ErrNotFound):
		// First contact with this remote.
	case err != nil:
		return fmt.Errorf("%w: reading manifest: %v", ErrNetwork, err)
	default:
		m, err := DecodeManifest(data)
		if err != nil {
			return err
		}
		c.remote = m
	}

	cached, err := e.store.State.CachedManifest(ctx)
	switch {
	case err != nil:
		return err
	case len(cached) == 0:
		// Never synced from this store.
	default:
		m, err := DecodeManifest(cached)
		if err != nil {
			// A corrupt cache degrades to a baseline-less compare.
			e.log.Warn(ctx, "discarding unreadable cached manifest", "error", err)
		} else {
			c.baseline = m
		}
	}

	c.deviceID, c.deviceName, err = e.store.State.EnsureDevice(ctx, e.cfg.DeviceName)
	if err != nil {
		return err
	}

	if c.remote != nil {
		c.work = c.remote.Clone()
	} else {
		c.work = NewManifest()
	}
	return nil
}

// compare snapshots local state and computes per-type diffs, then prunes
// children of items that die this cycle so no orphan is ever transferred.
func (e *Engine) compare(ctx context.Context, c *cycle) error {
	var err error
	c.tombs, err = e.store.Tombstones.List(ctx)
	if err != nil {
		return err
	}

	c.snaps = map[models.EntityType]*snapshot{}
	c.diffs = map[models.EntityType]Diff{}
	for _, t := range models.TypesInOrder() {
		snap, err := e.snapshotType(ctx, t)
		if err != nil {
			return err
		}
		c.snaps[t] = snap
		c.diffs[t] = ComputeDiff(t, snap.items, c.baseline, c.remote, c.tombs)
	}

	// Cascade: a child of an item deleted this cycle must not upload or
	// conflict; its rows go with the parent's cascade delete.
	c.dead = map[models.EntityType]map[string]bool{}
	for _, t := range models.TypesInOrder() {
		d := c.diffs[t]
		deadSet := map[string]bool{}
		for _, id := range d.DeleteLocal {
			deadSet[id] = true
		}
		for _, id := range d.DeleteRemote {
			deadSet[id] = true
		}
		if pt := parentTypeOf(t); pt != "" {
			for id, parent := range c.snaps[t].parent {
				if c.dead[pt][parent] {
					deadSet[id] = true
					d.ToUpload = removeID(d.ToUpload, id)
					d.Conflicts = removeID(d.Conflicts, id)
				}
			}
		}
		c.dead[t] = deadSet
		c.diffs[t] = d
	}
	return nil
}

func (c *cycle) nothingToDo() bool {
	for _, d := range c.diffs {
		if !d.Empty() {
			return false
		}
	}
	return true
}

func (c *cycle) remoteVersion() int64 {
	if c.remote == nil {
		return 0
	}
	return c.remote.Version
}

// pruneSettledTombstones drops local tombstones that no longer match a live
// remote entry. On the nothing-to-do path every local tombstone is settled.
func (e *Engine) pruneSettledTombstones(ctx context.Context, c *cycle) error {
	for _, ts := range c.tombs {
		if err := e.store.Tombstones.Remove(ctx, ts.ID, ts.Type); err != nil {
			return err
		}
	}
	return nil
}

// resolveConflicts turns the diff's conflict sets into upload or download
// work per the configured strategy. Under ask, conflicts are parked.
func (e *Engine) resolveConflicts(ctx context.Context, c *cycle) {
	var all []Conflict
	for _, t := range models.TypesInOrder() {
		for _, id := range c.diffs[t].Conflicts {
			all = append(all, Conflict{
				Type:            t,
				ID:              id,
				LocalUpdatedAt:  c.snaps[t].updated[id],
				RemoteUpdatedAt: c.remote.Items(t)[id].UpdatedAt,
			})
		}
	}
	if len(all) == 0 {
		e.setPending(nil)
		return
	}

	actions, pending := Resolve(e.cfg.Strategy, all)
	for _, conf := range all {
		d := c.diffs[conf.Type]
		switch actions[conf.ID] {
		case ActionLocal:
			d.ToUpload = append(d.ToUpload, conf.ID)
		case ActionRemote:
			d.ToDownload = append(d.ToDownload, conf.ID)
		}
		c.diffs[conf.Type] = d
	}

	c.res.Pending = pending
	e.setPending(pending)
	e.log.Info(ctx, "conflicts resolved",
		"strategy", string(e.cfg.Strategy),
		"total", len(all),
		"pending", len(pending))
}

func (e *Engine) setPending(pending []Conflict) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = map[string]Conflict{}
	for _, c := range pending {
		e.pending[c.ID] = c
	}
}

// uploadAll pushes changed records type by type, parents first, with bounded
// parallelism inside each type. An item failing past its retries is flagged
// and skipped; only context cancellation aborts the phase.
func (e *Engine) uploadAll(ctx context.Context, c *cycle) error {
	for _, t := range models.TypesInOrder() {
		ids := c.diffs[t].ToUpload
		if len(ids) == 0 {
			continue
		}
		t := t
		total := len(ids)
		done := 0

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Parallelism)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				err := e.uploadOne(gctx, c, t, id)
				c.mu.Lock()
				defer c.mu.Unlock()
				done++
				e.report(Progress{Phase: PhaseUploading, EntityType: t, Current: done, Total: total})
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					c.res.record(ItemError{Type: t, ID: id, Op: "upload", Err: err})
					e.log.Warn(gctx, "upload failed, skipping item", "type", string(t), "id", id, "error", err)
					return nil
				}
				c.res.Uploaded++
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) uploadOne(ctx context.Context, c *cycle, t models.EntityType, id string) error {
	data, ok := c.snaps[t].encoded[id]
	if !ok {
		return fmt.Errorf("no local snapshot for %s %s", t, id)
	}

	if t == models.TypeImage {
		if err := e.uploadImageBlobs(ctx, id); err != nil {
			return err
		}
	}

	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		return e.remote.SaveRecord(ctx, t, id, data)
	}); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.work.Items(t)
	prev := items[id]
	items[id] = ItemSyncMeta{
		ID:        id,
		Hash:      codec.Hash(data),
		UpdatedAt: c.snaps[t].updated[id],
		Version:   prev.Version + 1,
	}
	// An upload over a tombstone is a resurrection.
	c.work.RemoveTombstone(id, t)
	c.dirty = true
	return nil
}

func (e *Engine) uploadImageBlobs(ctx context.Context, id string) error {
	img, err := e.store.Images.Get(ctx, id)
	if err != nil {
		return err
	}
	data, err := e.blobs.GetImage(img.StoragePath)
	if err != nil {
		return fmt.Errorf("reading local image file: %w", err)
	}
	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		return e.remote.SaveImageFile(ctx, id, data)
	}); err != nil {
		return err
	}
	if img.ThumbnailPath != "" {
		thumb, err := e.blobs.GetImage(img.ThumbnailPath)
		if err != nil {
			return fmt.Errorf("reading local thumbnail file: %w", err)
		}
		if err := e.retryRemote(ctx, func(ctx context.Context) error {
			return e.remote.SaveThumbnailFile(ctx, id, thumb)
		}); err != nil {
			return err
		}
	}
	return nil
}

// downloadAll pulls remote records type by type, parents first. Downloads
// apply sequentially so each record's parent is already in place when it is
// written.
func (e *Engine) downloadAll(ctx context.Context, c *cycle) error {
	for _, t := range models.TypesInOrder() {
		ids := c.diffs[t].ToDownload
		total := len(ids)
		for i, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.downloadOne(ctx, c, t, id); err != nil {
				c.res.record(ItemError{Type: t, ID: id, Op: "download", Err: err})
				e.log.Warn(ctx, "download failed, skipping item", "type", string(t), "id", id, "error", err)
			}
			e.report(Progress{Phase: PhaseDownloading, EntityType: t, Current: i + 1, Total: total})
		}
	}
	return nil
}

func (e *Engine) downloadOne(ctx context.Context, c *cycle, t models.EntityType, id string) error {
	var data []byte
	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		var err error
		data, err = e.remote.GetRecord(ctx, t, id)
		return err
	}); err != nil {
		return err
	}

	applied, err := e.applyRecord(ctx, c, t, id, data)
	if err != nil {
		return err
	}
	if !applied {
		// Orphan left behind by a remote-side cascade: collect it instead
		// of resurrecting it.
		return e.collectRemoteGarbage(ctx, c, t, id)
	}

	// A download over a pending local tombstone is a resurrection.
	if err := e.store.Tombstones.Remove(ctx, id, t); err != nil {
		return err
	}
	c.mu.Lock()
	c.res.Downloaded++
	c.mu.Unlock()
	return nil
}

func (e *Engine) collectRemoteGarbage(ctx context.Context, c *cycle, t models.EntityType, id string) error {
	e.log.Debug(ctx, "removing orphaned remote record", "type", string(t), "id", id)
	if err := e.deleteRemoteObjects(ctx, t, id); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.work.Items(t), id)
	c.dirty = true
	c.mu.Unlock()
	return nil
}

// applyDeletes propagates tombstones in both directions, parents first.
func (e *Engine) applyDeletes(ctx context.Context, c *cycle) error {
	for _, t := range models.TypesInOrder() {
		d := c.diffs[t]

		for _, id := range d.DeleteLocal {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.deleteLocalEntity(ctx, t, id); err != nil {
				return err
			}
			c.res.DeletedLocal++
		}

		for _, id := range d.DeleteRemote {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.deleteRemoteObjects(ctx, t, id); err != nil {
				c.res.record(ItemError{Type: t, ID: id, Op: "delete", Err: err})
				e.log.Warn(ctx, "remote delete failed, skipping item", "type", string(t), "id", id, "error", err)
				// The tombstone still merges into the manifest below, so
				// the record is unreferenced even though its bytes remain.
			} else {
				c.res.DeletedRemote++
			}
			if ts, ok := tombstoneFor(c.tombs, id, t); ok {
				c.work.AddTombstone(ts)
			}
			c.dirty = true
		}
	}
	return nil
}

func tombstoneFor(tombs []models.Tombstone, id string, t models.EntityType) (models.Tombstone, bool) {
	for _, ts := range tombs {
		if ts.ID == id && ts.Type == t {
			return ts, true
		}
	}
	return models.Tombstone{}, false
}

// finalize publishes the cycle's manifest and caches it as the new baseline.
func (e *Engine) finalize(ctx context.Context, c *cycle, opts Options) error {
	// Local tombstones still on file were either propagated above or belong
	// to ids the remote never had; the manifest carries them either way so
	// other devices converge.
	remaining, err := e.store.Tombstones.List(ctx)
	if err != nil {
		return err
	}
	for _, ts := range remaining {
		c.work.AddTombstone(ts)
		c.dirty = true
	}

	if !c.dirty && !opts.Force {
		// Downloads only: the remote is untouched, just refresh the baseline.
		if c.remote != nil {
			return e.cacheBaseline(ctx, c.baseline, c.remote, c.res.Pending, c.res.Errors)
		}
		return nil
	}

	c.work.Version = c.remoteVersion() + 1
	c.work.SchemaVersion = SchemaVersion
	c.work.LastModified = time.Now().UTC()
	c.work.LastModifiedDeviceID = c.deviceID
	c.work.LastModifiedDeviceName = c.deviceName

	data, err := EncodeManifest(c.work)
	if err != nil {
		return err
	}
	if err := e.retryRemote(ctx, func(ctx context.Context) error {
		return e.remote.SaveManifest(ctx, data)
	}); err != nil {
		return fmt.Errorf("%w: writing manifest: %v", ErrNetwork, err)
	}
	if err := e.cacheBaseline(ctx, c.baseline, c.work, c.res.Pending, c.res.Errors); err != nil {
		return err
	}

	// Deletions are in the published manifest now; the local log is done.
	for _, ts := range remaining {
		if err := e.store.Tombstones.Remove(ctx, ts.ID, ts.Type); err != nil {
			return err
		}
	}
	return nil
}

// cacheBaseline stores m as the next cycle's baseline. Items with a pending
// conflict or a failed transfer keep their old baseline meta (from baseline,
// which may be nil): caching the fresh remote meta for an item this cycle
// never actually applied would make the next cycle read the unresolved remote
// change as a plain local edit and upload the stale copy over it.
func (e *Engine) cacheBaseline(ctx context.Context, baseline, m *Manifest, pending []Conflict, errs []ItemError) error {
	type typedID struct {
		t  models.EntityType
		id string
	}
	var unsettled []typedID
	for _, conf := range pending {
		unsettled = append(unsettled, typedID{conf.Type, conf.ID})
	}
	for _, ie := range errs {
		unsettled = append(unsettled, typedID{ie.Type, ie.ID})
	}

	if len(unsettled) > 0 {
		m = m.Clone()
		for _, u := range unsettled {
			items := m.Items(u.t)
			if baseline != nil {
				if bmeta, ok := baseline.Items(u.t)[u.id]; ok {
					items[u.id] = bmeta
					continue
				}
			}
			delete(items, u.id)
		}
	}
	data, err := EncodeManifest(m)
	if err != nil {
		return err
	}
	return e.store.State.SetCachedManifest(ctx, data)
}

// retryRemote runs a remote operation with exponential backoff. Absence is
// not transient and fails immediately.
func (e *Engine) retryRemote(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(uint64(e.cfg.MaxItemRetries), retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil || errors.Is(err, common.ErrNotFound) {
			return err
		}
		return retry.RetryableError(err)
	})
}
