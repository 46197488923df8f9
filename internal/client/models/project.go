package models

import "time"

// Project is the top-level container everything else hangs off.
type Project struct {
	ID           string
	Title        string
	Description  *string
	Tags         []string
	CoverImageID *string
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
