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

// CharacterRepo persists characters. Profile and canvas state are stored as
// JSON columns; sections and their items live in child tables.
type CharacterRepo struct {
	db dbx.DBTX
}

func NewCharacterRepo(db dbx.DBTX) *CharacterRepo {
	return &CharacterRepo{db: db}
}

const characterCols = `id, project_id, name, profile, canvas_state, created_at, updated_at`

func (r *CharacterRepo) Put(ctx context.Context, c *models.Character) error {
	profile, err := jsonCol(c.Profile)
	if err != nil {
		return err
	}
	canvas, err := jsonCol(c.Canvas)
	if err != nil {
		return err
	}
	query := `INSERT INTO characters (` + characterCols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id,
				name = excluded.name,
				profile = excluded.profile,
				canvas_state = excluded.canvas_state,
				updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.ProjectID, c.Name, profile, canvas, dbTime(c.CreatedAt), dbTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert character: %w", err)
	}
	return nil
}

func (r *CharacterRepo) scan(row interface{ Scan(...any) error }) (*models.Character, error) {
	var (
		c                       models.Character
		profile, canvas, cr, up string
	)
	if err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &profile, &canvas, &cr, &up); err != nil {
		return nil, err
	}
	if err := fromJSONCol(profile, &c.Profile); err != nil {
		return nil, err
	}
	if err := fromJSONCol(canvas, &c.Canvas); err != nil {
		return nil, err
	}
	var err error
	if c.CreatedAt, err = parseDBTime(cr); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseDBTime(up); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CharacterRepo) Get(ctx context.Context, id string) (*models.Character, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+characterCols+` FROM characters WHERE id = ?`, id)
	c, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character: %w", err)
	}
	return c, nil
}

func (r *CharacterRepo) list(ctx context.Context, query string, args ...any) ([]*models.Character, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var result []*models.Character
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *CharacterRepo) List(ctx context.Context) ([]*models.Character, error) {
	return r.list(ctx, `SELECT `+characterCols+` FROM characters ORDER BY id`)
}

func (r *CharacterRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Character, error) {
	return r.list(ctx, `SELECT `+characterCols+` FROM characters WHERE project_id = ? ORDER BY id`, projectID)
}

func (r *CharacterRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}
