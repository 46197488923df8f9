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

// ProjectRepo persists projects. Bound to a DBTX so the same code runs
// against the database or inside a cascade transaction.
type ProjectRepo struct {
	db dbx.DBTX
}

func NewProjectRepo(db dbx.DBTX) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Put upserts a project by id.
func (r *ProjectRepo) Put(ctx context.Context, p *models.Project) error {
	tags, err := jsonCol(p.Tags)
	if err != nil {
		return err
	}
	query := `INSERT INTO projects (id, title, description, tags, cover_image_id, archived, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET title = excluded.title,
				description = excluded.description,
				tags = excluded.tags,
				cover_image_id = excluded.cover_image_id,
				archived = excluded.archived,
				updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.Title, nullStr(p.Description), tags, nullStr(p.CoverImageID), p.Archived,
		dbTime(p.CreatedAt), dbTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) scan(row interface{ Scan(...any) error }) (*models.Project, error) {
	var (
		p            models.Project
		desc, cover  sql.NullString
		tags, cr, up string
	)
	if err := row.Scan(&p.ID, &p.Title, &desc, &tags, &cover, &p.Archived, &cr, &up); err != nil {
		return nil, err
	}
	p.Description = strPtr(desc)
	p.CoverImageID = strPtr(cover)
	if err := fromJSONCol(tags, &p.Tags); err != nil {
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

const projectCols = `id, title, description, tags, cover_image_id, archived, created_at, updated_at`

func (r *ProjectRepo) Get(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectCols+` FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var result []*models.Project
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Delete removes a project row. Deleting an absent id is a no-op.
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
