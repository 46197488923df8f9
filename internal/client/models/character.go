package models

import "time"

// Profile holds the descriptive fields of a character. Stored as a JSON
// column; every field except Personality is optional.
type Profile struct {
	Age         *int     `json:"age,omitempty"`
	Role        *string  `json:"role,omitempty"`
	Personality []string `json:"personality"`
	Backstory   *string  `json:"backstory,omitempty"`
}

// CanvasItem is an image placement on a character canvas. It is a value
// object: it has no table of its own inside CanvasState and is serialized
// as part of its owner.
type CanvasItem struct {
	ID       string  `json:"id"`
	ImageID  string  `json:"imageId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ZIndex   int     `json:"zIndex"`
}

// CanvasState is the free-form canvas attached to a character.
type CanvasState struct {
	Zoom    float64      `json:"zoom"`
	OffsetX float64      `json:"offsetX"`
	OffsetY float64      `json:"offsetY"`
	Items   []CanvasItem `json:"items"`
}

// Character belongs to a project and owns moodboard images and sections.
type Character struct {
	ID        string
	ProjectID string
	Name      string
	Profile   Profile
	Canvas    CanvasState
	CreatedAt time.Time
	UpdatedAt time.Time
}
