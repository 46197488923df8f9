package sync

import (
	"sort"
	"time"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

// LocalItem is the local side of a comparison: an entity's id, the hash of
// its encoded record, and its modification time.
type LocalItem struct {
	ID        string
	Hash      string
	UpdatedAt time.Time
}

// Diff is the outcome of comparing one entity type across local state, the
// cached baseline, and the remote manifest. The id sets are disjoint and
// sorted so a cycle's work order is deterministic.
type Diff struct {
	ToUpload     []string
	ToDownload   []string
	Conflicts    []string
	DeleteLocal  []string
	DeleteRemote []string
}

func (d Diff) Empty() bool {
	return len(d.ToUpload) == 0 && len(d.ToDownload) == 0 && len(d.Conflicts) == 0 &&
		len(d.DeleteLocal) == 0 && len(d.DeleteRemote) == 0
}

// ComputeDiff performs the three-way comparison for one entity type. It is a
// pure function over its inputs and touches no storage.
//
// A nil remote manifest means the remote has never been synced to: everything
// local is uploaded. A nil baseline with a live remote (cache lost, remote
// populated) cannot distinguish "changed here" from "changed there", so local
// divergence uploads and remote-only ids download, with no conflicts raised.
//
// An exact timestamp tie between a tombstone and a live counterpart resolves
// to the deletion, in both directions. Resolving ties to the live copy would
// let two devices comparing the same pair settle it differently depending on
// which side they hold; deletion-wins keeps every device's verdict identical.
func ComputeDiff(t models.EntityType, local []LocalItem, baseline, remote *Manifest, localTombstones []models.Tombstone) Diff {
	var d Diff

	tombs := map[string]time.Time{}
	for _, ts := range localTombstones {
		if ts.Type == t {
			tombs[ts.ID] = ts.DeletedAt
		}
	}

	if remote == nil {
		// First contact: push everything local. Pending tombstones go out
		// with the manifest write, there are no remote records to remove.
		for _, it := range local {
			d.ToUpload = append(d.ToUpload, it.ID)
		}
		d.sort()
		return d
	}

	localByID := make(map[string]LocalItem, len(local))
	for _, it := range local {
		localByID[it.ID] = it
	}

	remoteItems := remote.Items(t)
	var baseItems map[string]ItemSyncMeta
	if baseline != nil {
		baseItems = baseline.Items(t)
	}

	for _, it := range local {
		rmeta, rok := remoteItems[it.ID]
		var bmeta ItemSyncMeta
		bok := false
		if baseItems != nil {
			bmeta, bok = baseItems[it.ID]
		}
		localChanged := !bok || bmeta.Hash != it.Hash

		switch {
		case !rok:
			// Not live on the remote. A remote tombstone newer than our
			// copy wins (scheduled below); a local write newer than the
			// tombstone resurrects the item by uploading it.
			if ts, dead := remote.Tombstone(it.ID, t); dead {
				if it.UpdatedAt.After(ts.DeletedAt) {
					d.ToUpload = append(d.ToUpload, it.ID)
				}
			} else {
				d.ToUpload = append(d.ToUpload, it.ID)
			}
		case rmeta.Hash == it.Hash:
			// Replicas agree, regardless of what the baseline says.
		default:
			remoteChanged := !bok || rmeta.Hash != bmeta.Hash
			switch {
			case localChanged && remoteChanged && bok:
				d.Conflicts = append(d.Conflicts, it.ID)
			case localChanged:
				d.ToUpload = append(d.ToUpload, it.ID)
			default:
				d.ToDownload = append(d.ToDownload, it.ID)
			}
		}
	}

	// Remote ids absent locally: download them, unless a local tombstone
	// newer than the remote copy says we deleted them.
	for id, rmeta := range remoteItems {
		if _, ok := localByID[id]; ok {
			continue
		}
		if deadAt, dead := tombs[id]; dead {
			if rmeta.UpdatedAt.After(deadAt) {
				// The remote write is newer than our deletion: the
				// item comes back.
				d.ToDownload = append(d.ToDownload, id)
			} else {
				// Ties go to the deletion.
				d.DeleteRemote = append(d.DeleteRemote, id)
			}
			continue
		}
		d.ToDownload = append(d.ToDownload, id)
	}

	// Remote tombstones: a deletion newer than our copy wins over any local
	// edit; an older one loses to the local write, which resurrects the item
	// when it uploads.
	for _, ts := range remote.DeletedItems {
		if ts.Type != t {
			continue
		}
		it, ok := localByID[ts.ID]
		if !ok {
			continue
		}
		if !it.UpdatedAt.After(ts.DeletedAt) {
			// Ties go to the deletion.
			d.DeleteLocal = append(d.DeleteLocal, ts.ID)
			d.ToUpload = removeID(d.ToUpload, ts.ID)
			d.Conflicts = removeID(d.Conflicts, ts.ID)
		}
	}

	// Pending local tombstones for ids the remote never had are settled:
	// nothing to delete anywhere. The caller prunes them after the cycle.

	d.sort()
	return d
}

func (d *Diff) sort() {
	sort.Strings(d.ToUpload)
	sort.Strings(d.ToDownload)
	sort.Strings(d.Conflicts)
	sort.Strings(d.DeleteLocal)
	sort.Strings(d.DeleteRemote)
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
