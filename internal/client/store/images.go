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

// ImageRepo persists moodboard image metadata. Pixel data lives in the blob
// store; storage_path and thumbnail_path point into it and stay local.
type ImageRepo struct {
	db dbx.DBTX
}

func NewImageRepo(db dbx.DBTX) *ImageRepo {
	return &ImageRepo{db: db}
}

const imageCols = `id, character_id, file_name, mime_type, width, height, size_bytes, palette, position, storage_path, thumbnail_path, created_at, updated_at`

func (r *ImageRepo) Put(ctx context.Context, img *models.MoodboardImage) error {
	palette, err := jsonCol(img.Palette)
	if err != nil {
		return err
	}
	query := `INSERT INTO moodboard_images (` + imageCols + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET character_id = excluded.character_id,
				file_name = excluded.file_name,
				mime_type = excluded.mime_type,
				width = excluded.width,
				height = excluded.height,
				size_bytes = excluded.size_bytes,
				palette = excluded.palette,
				position = excluded.position,
				storage_path = excluded.storage_path,
				thumbnail_path = excluded.thumbnail_path,
				updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		img.ID, img.CharacterID, img.FileName, img.MimeType, img.Width, img.Height,
		img.SizeBytes, palette, img.Position, img.StoragePath, img.ThumbnailPath,
		dbTime(img.CreatedAt), dbTime(img.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert image: %w", err)
	}
	return nil
}

func (r *ImageRepo) scan(row interface{ Scan(...any) error }) (*models.MoodboardImage, error) {
	var (
		img              models.MoodboardImage
		palette, cr, up  string
	)
	if err := row.Scan(&img.ID, &img.CharacterID, &img.FileName, &img.MimeType,
		&img.Width, &img.Height, &img.SizeBytes, &palette, &img.Position,
		&img.StoragePath, &img.ThumbnailPath, &cr, &up); err != nil {
		return nil, err
	}
	if err := fromJSONCol(palette, &img.Palette); err != nil {
		return nil, err
	}
	var err error
	if img.CreatedAt, err = parseDBTime(cr); err != nil {
		return nil, err
	}
	if img.UpdatedAt, err = parseDBTime(up); err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *ImageRepo) Get(ctx context.Context, id string) (*models.MoodboardImage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+imageCols+` FROM moodboard_images WHERE id = ?`, id)
	img, err := r.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return img, nil
}

func (r *ImageRepo) list(ctx context.Context, query string, args ...any) ([]*models.MoodboardImage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	var result []*models.MoodboardImage
	for rows.Next() {
		img, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

func (r *ImageRepo) List(ctx context.Context) ([]*models.MoodboardImage, error) {
	return r.list(ctx, `SELECT `+imageCols+` FROM moodboard_images ORDER BY id`)
}

func (r *ImageRepo) ListByCharacter(ctx context.Context, characterID string) ([]*models.MoodboardImage, error) {
	return r.list(ctx, `SELECT `+imageCols+` FROM moodboard_images WHERE character_id = ? ORDER BY position, id`, characterID)
}

func (r *ImageRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM moodboard_images WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
