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

// PanelRepo persists panels. Dialogues are an ordered JSON column.
type PanelRepo struct {
	db dbx.DBTX
}

func NewPanelRepo(db dbx.DBTX) *PanelRepo {
	return &PanelRepo{db: db}
}

const panelCols = `id, page_id, position, description, camera_angle, sketch_image_id, dialogues, created_at, updated_at`

func (r *PanelRepo) Put(ctx context.Context, p *models.Panel) error {
	dialogues, err := jsonCol(p.Dialogues)
	if err != nil {
		return err
	}
	query := `INSERT INTO panels (` + panelCols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET page_id = excluded.page_id,
				position = excluded.position,
				description = excluded.description,
				camera_angle = excluded.camera_angle,
				sketch_image_id = excluded.sketch_image_id,
				dialogues = excluded.dialogues,
				updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.PageID, p.Position, p.Description, nullStr(p.CameraAngle), nullStr(p.SketchImageID),
		dialogues, dbTime(p.CreatedAt), dbTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert panel: %w", err)
	}
	return nil
}

func (r *PanelRepo) scan(row interface{ Scan(...any) error }) (*models.Panel, error) {
	var (
		p                 models.Panel
		camera, sketch    sql.NullString
		dialogues, cr, up string
	)
	if err := row.Scan(&p.ID, &p.PageID, &p.Position, &p.Description, &camera, &sketch, &dialogues, &cr, &up); err != nil {
		return nil, err
	}
	p.CameraAngle = strPtr(camera)
	p.SketchImageID = strPtr(sketch)
	if err := fromJSONCol(dialogues, &p.Dialogues); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseDBTime(cr); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseDBTime(up); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PanelRepo) Get(ctx context.Context, id string) (*models.Panel, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+panelCols+` FROM panels WHERE id = ?`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get panel: %w", err)
	}
	return p, nil
}

func (r *PanelRepo) list(ctx context.Context, query string, args ...any) ([]*models.Panel, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list panels: %w", err)
	}
	defer rows.Close()

	var result []*models.Panel
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *PanelRepo) List(ctx context.Context) ([]*models.Panel, error) {
	return r.list(ctx, `SELECT `+panelCols+` FROM panels ORDER BY id`)
}

func (r *PanelRepo) ListByPage(ctx context.Context, pageID string) ([]*models.Panel, error) {
	return r.list(ctx, `SELECT `+panelCols+` FROM panels WHERE page_id = ? ORDER BY position, id`, pageID)
}

func (r *PanelRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM panels WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete panel: %w", err)
	}
	return nil
}
