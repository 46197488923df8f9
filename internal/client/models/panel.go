package models

import "time"

// PanelDialogue is one ordered speech balloon inside a panel. Value object,
// serialized as part of its panel.
type PanelDialogue struct {
	Speaker     string  `json:"speaker"`
	CharacterID *string `json:"characterId,omitempty"`
	Text        string  `json:"text"`
	Style       *string `json:"style,omitempty"`
}

// Panel is a single drawing frame on a script page.
type Panel struct {
	ID            string
	PageID        string
	Position      int
	Description   string
	CameraAngle   *string
	SketchImageID *string
	Dialogues     []PanelDialogue
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
