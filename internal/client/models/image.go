package models

import "time"

// MoodboardImage is a reference image attached to a character. The pixel data
// itself lives in the local blob store and, remotely, as an opaque object.
type MoodboardImage struct {
	ID          string
	CharacterID string
	FileName    string
	MimeType    string
	Width       int
	Height      int
	SizeBytes   int64
	Palette     []string
	Position    int

	// StoragePath and ThumbnailPath point into the local blob store. They
	// are local-only: never transmitted, always recomputed when the image
	// file is downloaded.
	StoragePath   string
	ThumbnailPath string

	CreatedAt time.Time
	UpdatedAt time.Time
}
