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

// ScriptPageRepo persists script pages.
type ScriptPageRepo struct {
	db dbx.DBTX
}

func NewScriptPageRepo(db dbx.DBTX) *ScriptPageRepo {
	return &ScriptPageRepo{db: db}
}

const pageCols = `id, edition_id, page_number, title, notes, created_at, updated_at`

func (r *ScriptPageRepo) Put(ctx context.Context, p *models.ScriptPage) error {
	query := `INSERT INTO script_pages (` + pageCols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET edition_id = excluded.edition_id,
				page_number = excluded.page_number,
				title = excluded.title,
				notes = excluded.notes,
				updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.EditionID, p.PageNumber, nullStr(p.Title), nullStr(p.Notes), dbTime(p.CreatedAt), dbTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert script page: %w", err)
	}
	return nil
}

func (r *ScriptPageRepo) scan(row interface{ Scan(...any) error }) (*models.ScriptPage, error) {
	var (
		p            models.ScriptPage
		title, notes sql.NullString
		cr, up       string
	)
	if err := row.Scan(&p.ID, &p.EditionID, &p.PageNumber, &title, &notes, &cr, &up); err != nil {
		return nil, err
	}
	p.Title = strPtr(title)
	p.Notes = strPtr(notes)
	var err error
	if p.CreatedAt, err = parseDBTime(cr); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseDBTime(up); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ScriptPageRepo) Get(ctx context.Context, id string) (*models.ScriptPage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pageCols+` FROM script_pages WHERE id = ?`, id)
	p, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get script page: %w", err)
	}
	return p, nil
}

func (r *ScriptPageRepo) list(ctx context.Context, query string, args ...any) ([]*models.ScriptPage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list script pages: %w", err)
	}
	defer rows.Close()

	var result []*models.ScriptPage
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *ScriptPageRepo) List(ctx context.Context) ([]*models.ScriptPage, error) {
	return r.list(ctx, `SELECT `+pageCols+` FROM script_pages ORDER BY id`)
}

func (r *ScriptPageRepo) ListByEdition(ctx context.Context, editionID string) ([]*models.ScriptPage, error) {
	return r.list(ctx, `SELECT `+pageCols+` FROM script_pages WHERE edition_id = ? ORDER BY page_number, id`, editionID)
}

func (r *ScriptPageRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM script_pages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete script page: %w", err)
	}
	return nil
}
