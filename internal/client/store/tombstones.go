package store

import (
	"context"
	"fmt"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/dbx"
)

// TombstoneRepo is the local deletion log. One row per deleted top-level id;
// children removed by a cascade are covered by the parent's tombstone.
type TombstoneRepo struct {
	db dbx.DBTX
}

func NewTombstoneRepo(db dbx.DBTX) *TombstoneRepo {
	return &TombstoneRepo{db: db}
}

// Append records a deletion. Re-recording the same (id, type) keeps the
// newest deleted_at, so replays after a partial cascade are harmless.
func (r *TombstoneRepo) Append(ctx context.Context, t models.Tombstone) error {
	query := `INSERT INTO tombstones (id, entity_type, deleted_at) VALUES (?, ?, ?)
			ON CONFLICT(id, entity_type) DO UPDATE SET deleted_at = max(deleted_at, excluded.deleted_at)`
	if _, err := r.db.ExecContext(ctx, query, t.ID, string(t.Type), dbTime(t.DeletedAt)); err != nil {
		return fmt.Errorf("failed to append tombstone: %w", err)
	}
	return nil
}

// List returns all pending tombstones ordered by deletion time.
func (r *TombstoneRepo) List(ctx context.Context) ([]models.Tombstone, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, entity_type, deleted_at FROM tombstones ORDER BY deleted_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tombstones: %w", err)
	}
	defer rows.Close()

	var result []models.Tombstone
	for rows.Next() {
		var (
			t   models.Tombstone
			typ string
			del string
		)
		if err := rows.Scan(&t.ID, &typ, &del); err != nil {
			return nil, err
		}
		t.Type = models.EntityType(typ)
		if t.DeletedAt, err = parseDBTime(del); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Remove drops a tombstone once the deletion has been propagated remotely.
func (r *TombstoneRepo) Remove(ctx context.Context, id string, typ models.EntityType) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tombstones WHERE id = ? AND entity_type = ?`, id, string(typ)); err != nil {
		return fmt.Errorf("failed to remove tombstone: %w", err)
	}
	return nil
}
