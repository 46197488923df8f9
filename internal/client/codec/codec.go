// Package codec converts entities to and from their transport form: a JSON
// record with ISO-8601 instants, local-only fields stripped, and children
// (sections, canvas items, dialogues) nested inside their owner. Encoding is
// deterministic, so the encoded bytes double as the hashing input for change
// detection.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad instant %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Project

type projectRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  *string  `json:"description,omitempty"`
	Tags         []string `json:"tags"`
	CoverImageID *string  `json:"coverImageId,omitempty"`
	Archived     bool     `json:"archived"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

func EncodeProject(p *models.Project) ([]byte, error) {
	rec := projectRecord{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Tags:         p.Tags,
		CoverImageID: p.CoverImageID,
		Archived:     p.Archived,
		CreatedAt:    encodeTime(p.CreatedAt),
		UpdatedAt:    encodeTime(p.UpdatedAt),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode project %s: %w", p.ID, err)
	}
	return b, nil
}

func DecodeProject(data []byte) (*models.Project, error) {
	var rec projectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	p := &models.Project{
		ID:           rec.ID,
		Title:        rec.Title,
		Description:  rec.Description,
		Tags:         rec.Tags,
		CoverImageID: rec.CoverImageID,
		Archived:     rec.Archived,
	}
	var err error
	if p.CreatedAt, err = decodeTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", rec.ID, err)
	}
	if p.UpdatedAt, err = decodeTime(rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", rec.ID, err)
	}
	return p, nil
}

// Character (sections and their canvas items nest inside the record)

type sectionItemRecord struct {
	ID       string  `json:"id"`
	ImageID  string  `json:"imageId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	ZIndex   int     `json:"zIndex"`
}

type sectionRecord struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Position  int                 `json:"position"`
	Collapsed bool                `json:"collapsed"`
	CreatedAt string              `json:"createdAt"`
	UpdatedAt string              `json:"updatedAt"`
	Items     []sectionItemRecord `json:"items"`
}

type characterRecord struct {
	ID        string             `json:"id"`
	ProjectID string             `json:"projectId"`
	Name      string             `json:"name"`
	Profile   models.Profile     `json:"profile"`
	Canvas    models.CanvasState `json:"canvasState"`
	Sections  []sectionRecord    `json:"sections"`
	CreatedAt string             `json:"createdAt"`
	UpdatedAt string             `json:"updatedAt"`
}

func EncodeCharacter(c *models.Character, sections []models.SectionWithItems) ([]byte, error) {
	rec := characterRecord{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Name:      c.Name,
		Profile:   c.Profile,
		Canvas:    c.Canvas,
		CreatedAt: encodeTime(c.CreatedAt),
		UpdatedAt: encodeTime(c.UpdatedAt),
	}
	for _, sw := range sections {
		sr := sectionRecord{
			ID:        sw.Section.ID,
			Title:     sw.Section.Title,
			Position:  sw.Section.Position,
			Collapsed: sw.Section.Collapsed,
			CreatedAt: encodeTime(sw.Section.CreatedAt),
			UpdatedAt: encodeTime(sw.Section.UpdatedAt),
		}
		for _, it := range sw.Items {
			sr.Items = append(sr.Items, sectionItemRecord{
				ID: it.ID, ImageID: it.ImageID,
				X: it.X, Y: it.Y, Width: it.Width, Height: it.Height,
				Rotation: it.Rotation, ZIndex: it.ZIndex,
			})
		}
		rec.Sections = append(rec.Sections, sr)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode character %s: %w", c.ID, err)
	}
	return b, nil
}

func DecodeCharacter(data []byte) (*models.Character, []models.SectionWithItems, error) {
	var rec characterRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, nil, fmt.Errorf("decode character: %w", err)
	}
	c := &models.Character{
		ID:        rec.ID,
		ProjectID: rec.ProjectID,
		Name:      rec.Name,
		Profile:   rec.Profile,
		Canvas:    rec.Canvas,
	}
	var err error
	if c.CreatedAt, err = decodeTime(rec.CreatedAt); err != nil {
		return nil, nil, fmt.Errorf("decode character %s: %w", rec.ID, err)
	}
	if c.UpdatedAt, err = decodeTime(rec.UpdatedAt); err != nil {
		return nil, nil, fmt.Errorf("decode character %s: %w", rec.ID, err)
	}

	var sections []models.SectionWithItems
	for _, sr := range rec.Sections {
		sw := models.SectionWithItems{
			Section: models.Section{
				ID:          sr.ID,
				CharacterID: rec.ID,
				Title:       sr.Title,
				Position:    sr.Position,
				Collapsed:   sr.Collapsed,
			},
		}
		if sw.Section.CreatedAt, err = decodeTime(sr.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("decode character %s section %s: %w", rec.ID, sr.ID, err)
		}
		if sw.Section.UpdatedAt, err = decodeTime(sr.UpdatedAt); err != nil {
			return nil, nil, fmt.Errorf("decode character %s section %s: %w", rec.ID, sr.ID, err)
		}
		for _, ir := range sr.Items {
			sw.Items = append(sw.Items, models.SectionItem{
				ID: ir.ID, SectionID: sr.ID, ImageID: ir.ImageID,
				X: ir.X, Y: ir.Y, Width: ir.Width, Height: ir.Height,
				Rotation: ir.Rotation, ZIndex: ir.ZIndex,
			})
		}
		sections = append(sections, sw)
	}
	return c, sections, nil
}

// Edition

type editionRecord struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"projectId"`
	Title     string  `json:"title"`
	Format    *string `json:"format,omitempty"`
	Synopsis  *string `json:"synopsis,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func EncodeEdition(e *models.Edition) ([]byte, error) {
	rec := editionRecord{
		ID:        e.ID,
		ProjectID: e.ProjectID,
		Title:     e.Title,
		Format:    e.Format,
		Synopsis:  e.Synopsis,
		CreatedAt: encodeTime(e.CreatedAt),
		UpdatedAt: encodeTime(e.UpdatedAt),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode edition %s: %w", e.ID, err)
	}
	return b, nil
}

func DecodeEdition(data []byte) (*models.Edition, error) {
	var rec editionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode edition: %w", err)
	}
	e := &models.Edition{
		ID:        rec.ID,
		ProjectID: rec.ProjectID,
		Title:     rec.Title,
		Format:    rec.Format,
		Synopsis:  rec.Synopsis,
	}
	var err error
	if e.CreatedAt, err = decodeTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("decode edition %s: %w", rec.ID, err)
	}
	if e.UpdatedAt, err = decodeTime(rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("decode edition %s: %w", rec.ID, err)
	}
	return e, nil
}

// ScriptPage

type scriptPageRecord struct {
	ID         string  `json:"id"`
	EditionID  string  `json:"editionId"`
	PageNumber int     `json:"pageNumber"`
	Title      *string `json:"title,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

func EncodeScriptPage(p *models.ScriptPage) ([]byte, error) {
	rec := scriptPageRecord{
		ID:         p.ID,
		EditionID:  p.EditionID,
		PageNumber: p.PageNumber,
		Title:      p.Title,
		Notes:      p.Notes,
		CreatedAt:  encodeTime(p.CreatedAt),
		UpdatedAt:  encodeTime(p.UpdatedAt),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode script page %s: %w", p.ID, err)
	}
	return b, nil
}

func DecodeScriptPage(data []byte) (*models.ScriptPage, error) {
	var rec scriptPageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode script page: %w", err)
	}
	p := &models.ScriptPage{
		ID:         rec.ID,
		EditionID:  rec.EditionID,
		PageNumber: rec.PageNumber,
		Title:      rec.Title,
		Notes:      rec.Notes,
	}
	var err error
	if p.CreatedAt, err = decodeTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("decode script page %s: %w", rec.ID, err)
	}
	if p.UpdatedAt, err = decodeTime(rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("decode script page %s: %w", rec.ID, err)
	}
	return p, nil
}

// Panel

type panelRecord struct {
	ID            string                 `json:"id"`
	PageID        string                 `json:"pageId"`
	Position      int                    `json:"position"`
	Description   string                 `json:"description"`
	CameraAngle   *string                `json:"cameraAngle,omitempty"`
	SketchImageID *string                `json:"sketchImageId,omitempty"`
	Dialogues     []models.PanelDialogue `json:"dialogues"`
	CreatedAt     string                 `json:"createdAt"`
	UpdatedAt     string                 `json:"updatedAt"`
}

func EncodePanel(p *models.Panel) ([]byte, error) {
	rec := panelRecord{
		ID:            p.ID,
		PageID:        p.PageID,
		Position:      p.Position,
		Description:   p.Description,
		CameraAngle:   p.CameraAngle,
		SketchImageID: p.SketchImageID,
		Dialogues:     p.Dialogues,
		CreatedAt:     encodeTime(p.CreatedAt),
		UpdatedAt:     encodeTime(p.UpdatedAt),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode panel %s: %w", p.ID, err)
	}
	return b, nil
}

func DecodePanel(data []byte) (*models.Panel, error) {
	var rec panelRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode panel: %w", err)
	}
	p := &models.Panel{
		ID:            rec.ID,
		PageID:        rec.PageID,
		Position:      rec.Position,
		Description:   rec.Description,
		CameraAngle:   rec.CameraAngle,
		SketchImageID: rec.SketchImageID,
		Dialogues:     rec.Dialogues,
	}
	var err error
	if p.CreatedAt, err = decodeTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("decode panel %s: %w", rec.ID, err)
	}
	if p.UpdatedAt, err = decodeTime(rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("decode panel %s: %w", rec.ID, err)
	}
	return p, nil
}
