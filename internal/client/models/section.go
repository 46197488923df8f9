package models

import "time"

// Section groups pinned canvas items on a character's moodboard. Sections are
// child rows of a character; they ride inside the character's remote record
// and are never synced as standalone items.
type Section struct {
	ID          string
	CharacterID string
	Title       string
	Position    int
	Collapsed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SectionItem is a canvas item pinned to a section. Unlike CanvasState items
// it lives in its own child table so sections can be reordered cheaply.
type SectionItem struct {
	ID        string
	SectionID string
	ImageID   string
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Rotation  float64
	ZIndex    int
}

// SectionWithItems bundles a section with its items for codec round-trips.
type SectionWithItems struct {
	Section Section
	Items   []SectionItem
}
