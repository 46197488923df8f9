package sync

import (
	"errors"
	"fmt"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

var (
	// ErrAuth indicates the remote rejected our credentials or session.
	ErrAuth = errors.New("remote authentication failed")
	// ErrNetwork indicates the remote was unreachable or a transfer failed.
	ErrNetwork = errors.New("network failure")
	// ErrSerialization indicates a record could not be encoded or decoded.
	ErrSerialization = errors.New("serialization failure")
	// ErrCascadeIntegrity indicates orphaned child rows were found after a
	// cascade delete. This is a bug, not an operational condition.
	ErrCascadeIntegrity = errors.New("cascade integrity violation")
	// ErrSchemaTooNew indicates the remote manifest was written by a newer
	// client. Syncing would corrupt data, so the cycle refuses to run.
	ErrSchemaTooNew = errors.New("remote manifest schema is newer than this client supports")
	// ErrSyncInFlight indicates a sync cycle is already running.
	ErrSyncInFlight = errors.New("sync already in progress")
)

// ItemError records a single item that failed during a sync cycle after
// retries were exhausted. The cycle continues past these.
type ItemError struct {
	Type models.EntityType
	ID   string
	Op   string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Type, e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
