package models

import "time"

// Edition is a published cut of a project's script (an issue, a volume).
type Edition struct {
	ID        string
	ProjectID string
	Title     string
	Format    *string
	Synopsis  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
