package models

import "time"

// ScriptPage is one page of an edition's script.
type ScriptPage struct {
	ID         string
	EditionID  string
	PageNumber int
	Title      *string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
