package sync

import (
	"time"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

// Strategy selects how conflicting edits are settled.
type Strategy string

const (
	StrategyLocalWins  Strategy = "local-wins"
	StrategyRemoteWins Strategy = "remote-wins"
	StrategyNewestWins Strategy = "newest-wins"
	// StrategyAsk defers every conflict: the cycle completes with the
	// conflicted items untouched and reports them for a later
	// ResolveConflicts call.
	StrategyAsk Strategy = "ask"
)

// Action is the per-item outcome of conflict resolution.
type Action int

const (
	// ActionSkip leaves both copies as they are.
	ActionSkip Action = iota
	// ActionLocal uploads the local copy over the remote one.
	ActionLocal
	// ActionRemote downloads the remote copy over the local one.
	ActionRemote
)

// Conflict is an item both sides changed since the shared baseline.
type Conflict struct {
	Type            models.EntityType `json:"type"`
	ID              string            `json:"id"`
	LocalUpdatedAt  time.Time         `json:"localUpdatedAt"`
	RemoteUpdatedAt time.Time         `json:"remoteUpdatedAt"`
}

// Resolve maps conflicts to actions per the strategy. Under StrategyAsk
// nothing is decided: all conflicts come back as pending. Under
// newest-wins a timestamp tie goes to the remote copy so every device
// converges on the same winner.
func Resolve(strategy Strategy, conflicts []Conflict) (map[string]Action, []Conflict) {
	actions := make(map[string]Action, len(conflicts))
	var pending []Conflict
	for _, c := range conflicts {
		switch strategy {
		case StrategyLocalWins:
			actions[c.ID] = ActionLocal
		case StrategyRemoteWins:
			actions[c.ID] = ActionRemote
		case StrategyAsk:
			pending = append(pending, c)
		default: // newest-wins
			if c.LocalUpdatedAt.After(c.RemoteUpdatedAt) {
				actions[c.ID] = ActionLocal
			} else {
				actions[c.ID] = ActionRemote
			}
		}
	}
	return actions, pending
}
