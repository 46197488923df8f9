// Package models defines the client-side entity types of the moodboard
// manager: projects, characters, moodboard images, editions, script pages
// and panels, plus their embedded value objects.
//
// Parent→child ownership (by convention only, never enforced by the store):
//
//	Project → Character → {MoodboardImage, Section → SectionItem}
//	Project → Edition → ScriptPage → Panel
package models

import "time"

// EntityType identifies one of the six synced entity kinds.
type EntityType string

const (
	TypeProject    EntityType = "project"
	TypeCharacter  EntityType = "character"
	TypeImage      EntityType = "image"
	TypeEdition    EntityType = "edition"
	TypeScriptPage EntityType = "scriptPage"
	TypePanel      EntityType = "panel"
)

// TypesInOrder lists the synced entity types parent-before-child. Sync phases
// iterate in this order so a child never reaches a replica before its parent.
func TypesInOrder() []EntityType {
	return []EntityType{TypeProject, TypeCharacter, TypeImage, TypeEdition, TypeScriptPage, TypePanel}
}

// Tombstone records the deletion of a synced entity so the delete propagates
// to other devices without resurrecting stale copies.
type Tombstone struct {
	ID        string     `json:"id"`
	Type      EntityType `json:"type"`
	DeletedAt time.Time  `json:"deletedAt"`
}
