package sync

import "github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"

// Phase is where a sync cycle currently is. Phases advance strictly forward
// within a cycle; any failure short of fatal still ends back at idle.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseConnecting       Phase = "connecting"
	PhaseChecking         Phase = "checking"
	PhaseComparing        Phase = "comparing"
	PhaseUploading        Phase = "uploading"
	PhaseDownloading      Phase = "downloading"
	PhaseMerging          Phase = "merging"
	PhaseFinalizing       Phase = "finalizing"
	PhaseConflictsPending Phase = "conflicts-pending"
	PhaseError            Phase = "error"
)

// Progress is a point-in-time report emitted while a cycle runs. Current and
// Total count items within the phase for the entity type being worked.
type Progress struct {
	Phase      Phase
	EntityType models.EntityType
	Current    int
	Total      int
}

// ProgressFunc receives progress reports. It is called from the syncing
// goroutine and must not block.
type ProgressFunc func(Progress)
