package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/blob"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/remote"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/store"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/common"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/logging"
)

// newDevice wires a full engine around its own store and blob dir, sharing
// the given remote. Two devices against one MemoryAdapter model the
// multi-device scenarios.
func newDevice(t *testing.T, rem remote.Adapter, cfg Config) (*Engine, *store.Store, *blob.Store) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	st, err := store.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	if cfg.MaxItemRetries == 0 {
		cfg.MaxItemRetries = 1
	}
	log := logging.NewDefault(slog.LevelError)
	return New(st, rem, blobs, log, cfg), st, blobs
}

func seedProject(t *testing.T, st *store.Store, id, title string, at time.Time) {
	t.Helper()
	require.NoError(t, st.Projects.Put(context.Background(), &models.Project{
		ID:        id,
		Title:     title,
		Tags:      []string{"fantasy", "wip"},
		CreatedAt: t0,
		UpdatedAt: at,
	}))
}

func seedCharacter(t *testing.T, st *store.Store, id, projectID string, at time.Time) {
	t.Helper()
	require.NoError(t, st.Characters.Put(context.Background(), &models.Character{
		ID:        id,
		ProjectID: projectID,
		Name:      "Aria",
		Profile: models.Profile{
			Personality: []string{"brave", "loyal"},
		},
		Canvas: models.CanvasState{
			Zoom: 1.5,
			Items: []models.CanvasItem{
				{ID: "ci1", ImageID: "i1", X: 10, Y: 20, Width: 200, Height: 150, ZIndex: 1},
				{ID: "ci2", ImageID: "i2", X: 300, Y: 40, Width: 120, Height: 90, ZIndex: 2},
			},
		},
		CreatedAt: t0,
		UpdatedAt: at,
	}))
}

func seedImage(t *testing.T, st *store.Store, blobs *blob.Store, id, characterID string, at time.Time) {
	t.Helper()
	path, err := blobs.SaveImage(id, []byte("png-bytes-"+id))
	require.NoError(t, err)
	tpath, err := blobs.SaveThumbnail(id, []byte("thumb-"+id))
	require.NoError(t, err)
	require.NoError(t, st.Images.Put(context.Background(), &models.MoodboardImage{
		ID:            id,
		CharacterID:   characterID,
		FileName:      "ref.png",
		MimeType:      "image/png",
		Width:         800,
		Height:        600,
		SizeBytes:     9,
		Palette:       []string{"#402711", "#f0e6d2"},
		StoragePath:   path,
		ThumbnailPath: tpath,
		CreatedAt:     t0,
		UpdatedAt:     at,
	}))
}

func seedScript(t *testing.T, st *store.Store, projectID string, at time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Editions.Put(ctx, &models.Edition{
		ID: "e1", ProjectID: projectID, Title: "Issue One", CreatedAt: t0, UpdatedAt: at,
	}))
	require.NoError(t, st.Pages.Put(ctx, &models.ScriptPage{
		ID: "pg1", EditionID: "e1", PageNumber: 1, CreatedAt: t0, UpdatedAt: at,
	}))
	require.NoError(t, st.Panels.Put(ctx, &models.Panel{
		ID: "pn1", PageID: "pg1", Position: 1, Description: "Aria at the gate",
		Dialogues: []models.PanelDialogue{{Speaker: "Aria", Text: "We go now."}},
		CreatedAt: t0, UpdatedAt: at,
	}))
}

func remoteManifest(t *testing.T, rem remote.Adapter) *Manifest {
	t.Helper()
	data, err := rem.GetManifest(context.Background())
	require.NoError(t, err)
	m, err := DecodeManifest(data)
	require.NoError(t, err)
	return m
}

func TestPerformSync_FirstSyncUploadsEverything(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, blobsA := newDevice(t, rem, Config{DeviceName: "device-a"})

	seedProject(t, stA, "p1", "Epic Fantasy", t0)
	seedCharacter(t, stA, "c1", "p1", t0)
	require.NoError(t, stA.Sections.Put(ctx, &models.Section{
		ID: "s1", CharacterID: "c1", Title: "Expressions", CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, stA.Sections.PutItem(ctx, &models.SectionItem{
		ID: "si1", SectionID: "s1", ImageID: "i1", Width: 100, Height: 80,
	}))
	seedImage(t, stA, blobsA, "i1", "c1", t0)
	seedScript(t, stA, "p1", t0)

	res, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Uploaded)
	assert.Zero(t, res.Failed)
	assert.False(t, res.Partial)
	assert.Equal(t, PhaseIdle, engA.Phase())

	m := remoteManifest(t, rem)
	assert.Equal(t, int64(1), m.Version)
	assert.Equal(t, "device-a", m.LastModifiedDeviceName)
	assert.Contains(t, m.Projects, "p1")
	assert.Contains(t, m.Characters, "c1")
	assert.Contains(t, m.Images, "i1")
	assert.Contains(t, m.Editions, "e1")
	assert.Contains(t, m.ScriptPages, "pg1")
	assert.Contains(t, m.Panels, "pn1")
	// Sections ride inside the character record, never as manifest items.
	assert.Len(t, m.Characters, 1)
}

func TestPerformSync_SecondDeviceDownloadsEverything(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, blobsA := newDevice(t, rem, Config{DeviceName: "device-a"})
	seedProject(t, stA, "p1", "Epic Fantasy", t0)
	seedCharacter(t, stA, "c1", "p1", t0)
	seedImage(t, stA, blobsA, "i1", "c1", t0)
	seedScript(t, stA, "p1", t0)
	require.NoError(t, stA.Sections.Put(ctx, &models.Section{
		ID: "s1", CharacterID: "c1", Title: "Expressions", CreatedAt: t0, UpdatedAt: t0,
	}))
	require.NoError(t, stA.Sections.PutItem(ctx, &models.SectionItem{ID: "si1", SectionID: "s1", ImageID: "i1"}))
	_, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)

	engB, stB, blobsB := newDevice(t, rem, Config{DeviceName: "device-b"})
	res, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Downloaded)
	assert.Zero(t, res.Uploaded)

	p, err := stB.Projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Epic Fantasy", p.Title)

	c, err := stB.Characters.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"brave", "loyal"}, c.Profile.Personality)
	assert.Len(t, c.Canvas.Items, 2)

	secs, err := stB.Sections.ListByCharacter(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, secs, 1)
	items, err := stB.Sections.ListItems(ctx, secs[0].ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	img, err := stB.Images.Get(ctx, "i1")
	require.NoError(t, err)
	require.NotEmpty(t, img.StoragePath)
	data, err := blobsB.GetImage(img.StoragePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes-i1"), data)
	require.NotEmpty(t, img.ThumbnailPath)

	pn, err := stB.Panels.Get(ctx, "pn1")
	require.NoError(t, err)
	require.Len(t, pn.Dialogues, 1)
	assert.Equal(t, "We go now.", pn.Dialogues[0].Text)
}

func TestPerformSync_SecondRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	eng, st, blobs := newDevice(t, rem, Config{DeviceName: "device-a"})
	seedProject(t, st, "p1", "Epic Fantasy", t0)
	seedCharacter(t, st, "c1", "p1", t0)
	seedImage(t, st, blobs, "i1", "c1", t0)

	_, err := eng.PerformSync(ctx, Options{})
	require.NoError(t, err)
	saves := rem.Calls("SaveRecord")
	manifests := rem.Calls("SaveManifest")

	res, err := eng.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Uploaded)
	assert.Zero(t, res.Downloaded)
	assert.Equal(t, saves, rem.Calls("SaveRecord"))
	assert.Equal(t, manifests, rem.Calls("SaveManifest"))
}

func TestPerformSync_ForceRewritesManifest(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	eng, st, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	seedProject(t, st, "p1", "Epic Fantasy", t0)

	_, err := eng.PerformSync(ctx, Options{})
	require.NoError(t, err)
	saves := rem.Calls("SaveRecord")

	_, err = eng.PerformSync(ctx, Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, saves, rem.Calls("SaveRecord"))
	assert.Equal(t, 2, rem.Calls("SaveManifest"))
	assert.Equal(t, int64(2), remoteManifest(t, rem).Version)
}

func TestPerformSync_DeletePropagatesAcrossDevices(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	engB, stB, _ := newDevice(t, rem, Config{DeviceName: "device-b"})

	seedProject(t, stA, "p1", "Epic Fantasy", t0)
	_, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	_, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)

	require.NoError(t, stA.DeleteProject(ctx, "p1"))
	resA, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, resA.DeletedRemote)

	m := remoteManifest(t, rem)
	assert.NotContains(t, m.Projects, "p1")
	require.Len(t, m.DeletedItems, 1)
	assert.Equal(t, "p1", m.DeletedItems[0].ID)

	// A's tombstone log is pruned once the deletion is in the manifest.
	tombs, err := stA.Tombstones.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tombs)

	resB, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, resB.DeletedLocal)
	_, err = stB.Projects.Get(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// Nobody resurrects it on later runs.
	resB2, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Zero(t, resB2.Uploaded+resB2.Downloaded+resB2.DeletedLocal+resB2.DeletedRemote)
}

func TestPerformSync_CascadeDeleteCollectsRemoteChildren(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, blobsA := newDevice(t, rem, Config{DeviceName: "device-a"})
	engB, stB, _ := newDevice(t, rem, Config{DeviceName: "device-b"})

	seedProject(t, stA, "p1", "Epic Fantasy", t0)
	seedCharacter(t, stA, "c1", "p1", t0)
	seedImage(t, stA, blobsA, "i1", "c1", t0)
	_, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	_, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)

	// Deleting the character cascades over its image locally and logs one
	// tombstone, for the character only.
	require.NoError(t, stA.DeleteCharacter(ctx, "c1"))
	tombs, err := stA.Tombstones.List(ctx)
	require.NoError(t, err)
	require.Len(t, tombs, 1)
	assert.Equal(t, models.TypeCharacter, tombs[0].Type)

	_, err = engA.PerformSync(ctx, Options{})
	require.NoError(t, err)

	m := remoteManifest(t, rem)
	assert.NotContains(t, m.Characters, "c1")
	assert.NotContains(t, m.Images, "i1", "cascade children must leave the manifest")
	_, err = rem.GetRecord(ctx, models.TypeImage, "i1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// B applies the cascade and uploads nothing back.
	_, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	_, err = stB.Characters.Get(ctx, "c1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = stB.Images.Get(ctx, "i1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NotContains(t, remoteManifest(t, rem).Images, "i1")
}

func TestPerformSync_NewestWinsConflict(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	engB, stB, _ := newDevice(t, rem, Config{DeviceName: "device-b"})

	seedProject(t, stA, "p1", "Epic Fantasy", t0)
	_, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	_, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)

	seedProject(t, stA, "p1", "A-edit", t1)
	_, err = engA.PerformSync(ctx, Options{})
	require.NoError(t, err)

	seedProject(t, stB, "p1", "B-edit", t2)
	resB, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, resB.Uploaded, "newer local edit wins the conflict")
	assert.Empty(t, resB.Pending)

	_, err = engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	pA, err := stA.Projects.Get(ctx, "p1")
	require.NoError(t, err)
	pB, err := stB.Projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "B-edit", pA.Title)
	assert.Equal(t, "B-edit", pB.Title)
}

func TestPerformSync_AskDefersAndResolveApplies(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	engB, stB, _ := newDevice(t, rem, Config{DeviceName: "device-b", Strategy: StrategyAsk})

	seedProject(t, stA, "p1", "Epic Fantasy", t0)
	_, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	_, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)

	seedProject(t, stA, "p1", "A-edit", t1)
	_, err = engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	seedProject(t, stB, "p1", "B-edit", t2)

	resB, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, resB.Pending, 1)
	assert.True(t, resB.Partial)
	assert.Equal(t, PhaseConflictsPending, engB.Phase())

	// Neither side was touched.
	pB, err := stB.Projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "B-edit", pB.Title)

	pending := engB.PendingConflicts()
	require.Len(t, pending, 1)
	assert.Equal(t, "p1", pending[0].ID)

	resolved, err := engB.ResolveConflicts(ctx, map[string]Action{"p1": ActionRemote})
	require.NoError(t, err)
	assert.Equal(t, 1, resolved.Downloaded)
	assert.Equal(t, PhaseIdle, engB.Phase())
	pB, err = stB.Projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "A-edit", pB.Title)

	// Resolving again is a no-op.
	again, err := engB.ResolveConflicts(ctx, map[string]Action{"p1": ActionRemote})
	require.NoError(t, err)
	assert.Zero(t, again.Downloaded)
	assert.Zero(t, again.Uploaded)
	assert.Empty(t, engB.PendingConflicts())

	// And the next cycle sees agreement, not a re-conflict.
	resB2, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Empty(t, resB2.Pending)
	assert.Zero(t, resB2.Uploaded+resB2.Downloaded)
}

func TestPerformSync_PartialFailureSkipsAndFlags(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	eng, st, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	seedProject(t, st, "p1", "First", t0)
	seedProject(t, st, "p2", "Second", t0)

	rem.FailOn = func(op, id string) error {
		if op == "SaveRecord" && id == "p1" {
			return errors.New("transient storage error")
		}
		return nil
	}

	res, err := eng.PerformSync(ctx, Options{})
	require.NoError(t, err, "item failures must not fail the cycle")
	assert.True(t, res.Partial)
	assert.Equal(t, 1, res.Uploaded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "p1", res.Errors[0].ID)
	assert.Equal(t, "upload", res.Errors[0].Op)

	m := remoteManifest(t, rem)
	assert.Contains(t, m.Projects, "p2")
	assert.NotContains(t, m.Projects, "p1")

	// The flagged item goes out on the next healthy cycle.
	rem.FailOn = nil
	res, err = eng.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Uploaded)
	assert.Contains(t, remoteManifest(t, rem).Projects, "p1")
}

func TestPerformSync_FailedDownloadRetriesWithoutClobbering(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	engB, stB, _ := newDevice(t, rem, Config{DeviceName: "device-b"})

	seedProject(t, stA, "p1", "v1", t0)
	_, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	_, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)

	seedProject(t, stA, "p1", "v2", t1)
	_, err = engA.PerformSync(ctx, Options{})
	require.NoError(t, err)

	rem.FailOn = func(op, id string) error {
		if op == "GetRecord" && id == "p1" {
			return errors.New("transient storage error")
		}
		return nil
	}
	res, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err, "item failures must not fail the cycle")
	assert.True(t, res.Partial)
	assert.Zero(t, res.Downloaded)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "download", res.Errors[0].Op)

	// The next healthy cycle completes the download. In particular B must
	// not mistake the un-applied remote change for a local edit and push
	// its stale copy over it.
	rem.FailOn = nil
	res, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	assert.Zero(t, res.Uploaded)
	assert.Equal(t, 1, res.Downloaded)

	pB, err := stB.Projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v2", pB.Title)

	_, err = engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	pA, err := stA.Projects.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v2", pA.Title, "the newer copy survives everywhere")
}

func TestResolveConflicts_LocallyDeletedEntityIsSkipped(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	engA, stA, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	engB, stB, _ := newDevice(t, rem, Config{DeviceName: "device-b", Strategy: StrategyAsk})

	seedProject(t, stA, "p1", "Epic Fantasy", t0)
	_, err := engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	_, err = engB.PerformSync(ctx, Options{})
	require.NoError(t, err)

	seedProject(t, stA, "p1", "A-edit", t1)
	_, err = engA.PerformSync(ctx, Options{})
	require.NoError(t, err)
	seedProject(t, stB, "p1", "B-edit", t2)
	resB, err := engB.PerformSync(ctx, Options{})
	require.NoError(t, err)
	require.Len(t, resB.Pending, 1)

	// B deletes the entity while the conflict is still open; keeping "local"
	// now has nothing to push, so no upload and no manifest version bump.
	require.NoError(t, stB.DeleteProject(ctx, "p1"))
	manifests := rem.Calls("SaveManifest")
	version := remoteManifest(t, rem).Version

	resolved, err := engB.ResolveConflicts(ctx, map[string]Action{"p1": ActionLocal})
	require.NoError(t, err)
	assert.Zero(t, resolved.Uploaded)
	assert.Equal(t, 1, resolved.Skipped)
	assert.Empty(t, engB.PendingConflicts())
	assert.Equal(t, manifests, rem.Calls("SaveManifest"))
	assert.Equal(t, version, remoteManifest(t, rem).Version)

	// The deletion itself still propagates through the tombstone path.
	tombs, err := stB.Tombstones.List(ctx)
	require.NoError(t, err)
	require.Len(t, tombs, 1)
	assert.Equal(t, "p1", tombs[0].ID)
}

func TestPerformSync_SchemaTooNewRefusesToRun(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	require.NoError(t, rem.SaveManifest(ctx, []byte(`{"version":9,"schemaVersion":99}`)))

	eng, st, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	seedProject(t, st, "p1", "Epic Fantasy", t0)

	_, err := eng.PerformSync(ctx, Options{})
	assert.ErrorIs(t, err, ErrSchemaTooNew)
	assert.Equal(t, PhaseError, eng.Phase())
	assert.Zero(t, rem.Calls("SaveRecord"))
}

func TestPerformSync_ConnectFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	rem.ConnectErr = errors.New("invalid credentials")
	eng, st, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	seedProject(t, st, "p1", "Epic Fantasy", t0)

	_, err := eng.PerformSync(ctx, Options{})
	assert.ErrorIs(t, err, ErrAuth)
	assert.Zero(t, rem.Calls("SaveRecord"))
}

func TestPerformSync_SingleFlight(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()

	var eng *Engine
	var nested error
	tried := false
	cfg := Config{
		DeviceName: "device-a",
		OnProgress: func(p Progress) {
			if p.Phase == PhaseUploading && !tried {
				tried = true
				_, nested = eng.PerformSync(ctx, Options{})
			}
		},
	}
	var st *store.Store
	eng, st, _ = newDevice(t, rem, cfg)
	seedProject(t, st, "p1", "Epic Fantasy", t0)

	_, err := eng.PerformSync(ctx, Options{})
	require.NoError(t, err)
	require.True(t, tried)
	assert.ErrorIs(t, nested, ErrSyncInFlight)
}

func TestStatus_ReportsLocalDivergence(t *testing.T) {
	ctx := context.Background()
	rem := remote.NewMemoryAdapter()
	eng, st, _ := newDevice(t, rem, Config{DeviceName: "device-a"})
	seedProject(t, st, "p1", "Epic Fantasy", t0)

	stBefore, err := eng.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stBefore.PendingUpload)

	_, err = eng.PerformSync(ctx, Options{})
	require.NoError(t, err)

	stAfter, err := eng.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, stAfter.PendingUpload)
	assert.Equal(t, int64(1), stAfter.ManifestVersion)
	assert.Equal(t, "device-a", stAfter.LastSyncedDevice)

	require.NoError(t, st.DeleteProject(ctx, "p1"))
	stDel, err := eng.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stDel.PendingDeletes)
}
