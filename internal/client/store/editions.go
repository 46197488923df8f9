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

// EditionRepo persists editions.
type EditionRepo struct {
	db dbx.DBTX
}

func NewEditionRepo(db dbx.DBTX) *EditionRepo {
	return &EditionRepo{db: db}
}

const editionCols = `id, project_id, title, format, synopsis, created_at, updated_at`

func (r *EditionRepo) Put(ctx context.Context, e *models.Edition) error {
	query := `INSERT INTO editions (` + editionCols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id,
				title = excluded.title,
				format = excluded.format,
				synopsis = excluded.synopsis,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ProjectID, e.Title, nullStr(e.Format), nullStr(e.Synopsis), dbTime(e.CreatedAt), dbTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert edition: %w", err)
	}
	return nil
}

func (r *EditionRepo) scan(row interface{ Scan(...any) error }) (*models.Edition, error) {
	var (
		e                models.Edition
		format, synopsis sql.NullString
		cr, up           string
	)
	if err := row.Scan(&e.ID, &e.ProjectID, &e.Title, &format, &synopsis, &cr, &up); err != nil {
		return nil, err
	}
	e.Format = strPtr(format)
	e.Synopsis = strPtr(synopsis)
	var err error
	if e.CreatedAt, err = parseDBTime(cr); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseDBTime(up); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EditionRepo) Get(ctx context.Context, id string) (*models.Edition, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+editionCols+` FROM editions WHERE id = ?`, id)
	e, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get edition: %w", err)
	}
	return e, nil
}

func (r *EditionRepo) list(ctx context.Context, query string, args ...any) ([]*models.Edition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list editions: %w", err)
	}
	defer rows.Close()

	var result []*models.Edition
	for rows.Next() {
		e, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *EditionRepo) List(ctx context.Context) ([]*models.Edition, error) {
	return r.list(ctx, `SELECT `+editionCols+` FROM editions ORDER BY id`)
}

func (r *EditionRepo) ListByProject(ctx context.Context, projectID string) ([]*models.Edition, error) {
	return r.list(ctx, `SELECT `+editionCols+` FROM editions WHERE project_id = ? ORDER BY id`, projectID)
}

func (r *EditionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM editions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete edition: %w", err)
	}
	return nil
}
