package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

func TestResolve_LocalWins(t *testing.T) {
	conflicts := []Conflict{
		{Type: models.TypeProject, ID: "a", LocalUpdatedAt: t0, RemoteUpdatedAt: t2},
	}
	actions, pending := Resolve(StrategyLocalWins, conflicts)
	assert.Equal(t, ActionLocal, actions["a"])
	assert.Empty(t, pending)
}

func TestResolve_RemoteWins(t *testing.T) {
	conflicts := []Conflict{
		{Type: models.TypeProject, ID: "a", LocalUpdatedAt: t2, RemoteUpdatedAt: t0},
	}
	actions, pending := Resolve(StrategyRemoteWins, conflicts)
	assert.Equal(t, ActionRemote, actions["a"])
	assert.Empty(t, pending)
}

func TestResolve_NewestWins(t *testing.T) {
	conflicts := []Conflict{
		{Type: models.TypeProject, ID: "newer-here", LocalUpdatedAt: t2, RemoteUpdatedAt: t1},
		{Type: models.TypeProject, ID: "newer-there", LocalUpdatedAt: t1, RemoteUpdatedAt: t2},
	}
	actions, pending := Resolve(StrategyNewestWins, conflicts)
	assert.Equal(t, ActionLocal, actions["newer-here"])
	assert.Equal(t, ActionRemote, actions["newer-there"])
	assert.Empty(t, pending)
}

func TestResolve_NewestWinsTieGoesToRemote(t *testing.T) {
	conflicts := []Conflict{
		{Type: models.TypeProject, ID: "a", LocalUpdatedAt: t1, RemoteUpdatedAt: t1},
	}
	actions, _ := Resolve(StrategyNewestWins, conflicts)
	assert.Equal(t, ActionRemote, actions["a"])
}

func TestResolve_AskDefersEverything(t *testing.T) {
	conflicts := []Conflict{
		{Type: models.TypeProject, ID: "a"},
		{Type: models.TypeCharacter, ID: "b"},
	}
	actions, pending := Resolve(StrategyAsk, conflicts)
	assert.Empty(t, actions)
	assert.Len(t, pending, 2)
}
