package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/common"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/dbx"
)

// SectionRepo persists moodboard sections and their pinned canvas items.
// Both are children of a character and ride inside its synced record.
type SectionRepo struct {
	db dbx.DBTX
}

func NewSectionRepo(db dbx.DBTX) *SectionRepo {
	return &SectionRepo{db: db}
}

const sectionCols = `id, character_id, title, position, collapsed, created_at, updated_at`

func (r *SectionRepo) Put(ctx context.Context, s *models.Section) error {
	query := `INSERT INTO sections (` + sectionCols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET character_id = excluded.character_id,
				title = excluded.title,
				position = excluded.position,
				collapsed = excluded.collapsed,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.CharacterID, s.Title, s.Position, s.Collapsed, dbTime(s.CreatedAt), dbTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert section: %w", err)
	}
	return nil
}

func (r *SectionRepo) scan(row interface{ Scan(...any) error }) (*models.Section, error) {
	var (
		s      models.Section
		cr, up string
	)
	if err := row.Scan(&s.ID, &s.CharacterID, &s.Title, &s.Position, &s.Collapsed, &cr, &up); err != nil {
		return nil, err
	}
	var err error
	if s.CreatedAt, err = parseDBTime(cr); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseDBTime(up); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SectionRepo) Get(ctx context.Context, id string) (*models.Section, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sectionCols+` FROM sections WHERE id = ?`, id)
	s, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get section: %w", err)
	}
	return s, nil
}

func (r *SectionRepo) ListByCharacter(ctx context.Context, characterID string) ([]*models.Section, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sectionCols+` FROM sections WHERE character_id = ? ORDER BY position, id`, characterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var result []*models.Section
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *SectionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}
	return nil
}

// Items

const itemCols = `id, section_id, image_id, x, y, width, height, rotation, z_index`

func (r *SectionRepo) PutItem(ctx context.Context, it *models.SectionItem) error {
	query := `INSERT INTO canvas_items (` + itemCols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET section_id = excluded.section_id,
				image_id = excluded.image_id,
				x = excluded.x, y = excluded.y,
				width = excluded.width, height = excluded.height,
				rotation = excluded.rotation, z_index = excluded.z_index
	`
	_, err := r.db.ExecContext(ctx, query,
		it.ID, it.SectionID, it.ImageID, it.X, it.Y, it.Width, it.Height, it.Rotation, it.ZIndex)
	if err != nil {
		return fmt.Errorf("failed to upsert canvas item: %w", err)
	}
	return nil
}

func (r *SectionRepo) ListItems(ctx context.Context, sectionID string) ([]*models.SectionItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+itemCols+` FROM canvas_items WHERE section_id = ? ORDER BY z_index, id`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list canvas items: %w", err)
	}
	defer rows.Close()

	var result []*models.SectionItem
	for rows.Next() {
		it := &models.SectionItem{}
		if err := rows.Scan(&it.ID, &it.SectionID, &it.ImageID, &it.X, &it.Y, &it.Width, &it.Height, &it.Rotation, &it.ZIndex); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

func (r *SectionRepo) DeleteItemsBySection(ctx context.Context, sectionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM canvas_items WHERE section_id = ?`, sectionID); err != nil {
		return fmt.Errorf("failed to delete canvas items: %w", err)
	}
	return nil
}
