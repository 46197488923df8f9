package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/dbx"
)

// Cascade delete engine. The tables have no FK enforcement, so ownership
// edges are walked manually inside one transaction per top-level delete.
// Every operation is idempotent: deleting an absent id, or re-running a
// cascade after a partial prior failure, converges on the same end state.
// Only the top-level id gets a tombstone; descendants are implied by it.

// DeleteProject removes a project and every descendant row: characters with
// their sections, canvas items and images, and editions with their pages and
// panels.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		characters := NewCharacterRepo(tx)
		chs, err := characters.ListByProject(ctx, id)
		if err != nil {
			return err
		}
		for _, ch := range chs {
			if err := deleteCharacterTree(ctx, tx, ch.ID); err != nil {
				return err
			}
		}

		editions := NewEditionRepo(tx)
		eds, err := editions.ListByProject(ctx, id)
		if err != nil {
			return err
		}
		for _, ed := range eds {
			if err := deleteEditionTree(ctx, tx, ed.ID); err != nil {
				return err
			}
		}

		if err := NewProjectRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		return appendTombstone(ctx, tx, id, models.TypeProject)
	})
}

// DeleteCharacter removes a character, its sections and canvas items, and
// its moodboard images.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := deleteCharacterTree(ctx, tx, id); err != nil {
			return err
		}
		return appendTombstone(ctx, tx, id, models.TypeCharacter)
	})
}

// DeleteEdition removes an edition, its script pages and their panels.
func (s *Store) DeleteEdition(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := deleteEditionTree(ctx, tx, id); err != nil {
			return err
		}
		return appendTombstone(ctx, tx, id, models.TypeEdition)
	})
}

// DeleteScriptPage removes a page and its panels.
func (s *Store) DeleteScriptPage(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := deletePageTree(ctx, tx, id); err != nil {
			return err
		}
		return appendTombstone(ctx, tx, id, models.TypeScriptPage)
	})
}

// DeleteImage removes a single moodboard image row and records a tombstone.
// The image's blob files are the caller's concern.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewImageRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		return appendTombstone(ctx, tx, id, models.TypeImage)
	})
}

// DeletePanel removes a single panel row and records a tombstone.
func (s *Store) DeletePanel(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewPanelRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		return appendTombstone(ctx, tx, id, models.TypePanel)
	})
}

func appendTombstone(ctx context.Context, tx dbx.DBTX, id string, typ models.EntityType) error {
	return NewTombstoneRepo(tx).Append(ctx, models.Tombstone{ID: id, Type: typ, DeletedAt: time.Now().UTC()})
}

func deleteCharacterTree(ctx context.Context, tx dbx.DBTX, id string) error {
	sections := NewSectionRepo(tx)
	secs, err := sections.ListByCharacter(ctx, id)
	if err != nil {
		return err
	}
	for _, sec := range secs {
		if err := sections.DeleteItemsBySection(ctx, sec.ID); err != nil {
			return err
		}
		if err := sections.Delete(ctx, sec.ID); err != nil {
			return err
		}
	}

	images := NewImageRepo(tx)
	imgs, err := images.ListByCharacter(ctx, id)
	if err != nil {
		return err
	}
	for _, img := range imgs {
		if err := images.Delete(ctx, img.ID); err != nil {
			return err
		}
	}

	return NewCharacterRepo(tx).Delete(ctx, id)
}

func deleteEditionTree(ctx context.Context, tx dbx.DBTX, id string) error {
	pages := NewScriptPageRepo(tx)
	pgs, err := pages.ListByEdition(ctx, id)
	if err != nil {
		return err
	}
	for _, pg := range pgs {
		if err := deletePageTree(ctx, tx, pg.ID); err != nil {
			return err
		}
	}
	return NewEditionRepo(tx).Delete(ctx, id)
}

func deletePageTree(ctx context.Context, tx dbx.DBTX, id string) error {
	panels := NewPanelRepo(tx)
	pns, err := panels.ListByPage(ctx, id)
	if err != nil {
		return err
	}
	for _, pn := range pns {
		if err := panels.Delete(ctx, pn.ID); err != nil {
			return err
		}
	}
	return NewScriptPageRepo(tx).Delete(ctx, id)
}

// CheckIntegrity scans for child rows whose parent no longer exists. A clean
// store returns nil; a non-nil error after a cascade indicates a bug in the
// cascade walk, not a recoverable runtime condition.
func (s *Store) CheckIntegrity(ctx context.Context) error {
	checks := []struct {
		name  string
		query string
	}{
		{"characters->projects", `SELECT count(*) FROM characters c WHERE NOT EXISTS (SELECT 1 FROM projects p WHERE p.id = c.project_id)`},
		{"moodboard_images->characters", `SELECT count(*) FROM moodboard_images i WHERE NOT EXISTS (SELECT 1 FROM characters c WHERE c.id = i.character_id)`},
		{"sections->characters", `SELECT count(*) FROM sections s WHERE NOT EXISTS (SELECT 1 FROM characters c WHERE c.id = s.character_id)`},
		{"canvas_items->sections", `SELECT count(*) FROM canvas_items ci WHERE NOT EXISTS (SELECT 1 FROM sections s WHERE s.id = ci.section_id)`},
		{"editions->projects", `SELECT count(*) FROM editions e WHERE NOT EXISTS (SELECT 1 FROM projects p WHERE p.id = e.project_id)`},
		{"script_pages->editions", `SELECT count(*) FROM script_pages sp WHERE NOT EXISTS (SELECT 1 FROM editions e WHERE e.id = sp.edition_id)`},
		{"panels->script_pages", `SELECT count(*) FROM panels pn WHERE NOT EXISTS (SELECT 1 FROM script_pages sp WHERE sp.id = pn.page_id)`},
	}

	var orphaned []string
	for _, c := range checks {
		var n int
		if err := s.db.QueryRowContext(ctx, c.query).Scan(&n); err != nil {
			return fmt.Errorf("integrity check %s: %w", c.name, err)
		}
		if n > 0 {
			orphaned = append(orphaned, fmt.Sprintf("%s (%d rows)", c.name, n))
		}
	}
	if len(orphaned) > 0 {
		return fmt.Errorf("orphaned rows: %s", strings.Join(orphaned, ", "))
	}
	return nil
}
