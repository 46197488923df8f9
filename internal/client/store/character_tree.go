package store

import (
	"context"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/dbx"
)

// PutCharacterTree upserts a character together with its sections and canvas
// items in one transaction, replacing whatever child rows were there before.
// Downloads apply whole character records through this so a crash mid-apply
// never leaves a half-written tree.
func (s *Store) PutCharacterTree(ctx context.Context, c *models.Character, sections []models.SectionWithItems) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		characters := NewCharacterRepo(tx)
		if err := characters.Put(ctx, c); err != nil {
			return err
		}

		secRepo := NewSectionRepo(tx)
		existing, err := secRepo.ListByCharacter(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, sec := range existing {
			if err := secRepo.DeleteItemsBySection(ctx, sec.ID); err != nil {
				return err
			}
			if err := secRepo.Delete(ctx, sec.ID); err != nil {
				return err
			}
		}

		for _, sw := range sections {
			sec := sw.Section
			sec.CharacterID = c.ID
			if err := secRepo.Put(ctx, &sec); err != nil {
				return err
			}
			for _, it := range sw.Items {
				item := it
				item.SectionID = sec.ID
				if err := secRepo.PutItem(ctx, &item); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CharacterTree loads a character's sections with their items, ordered by
// position, for encoding into the character's remote record.
func (s *Store) CharacterTree(ctx context.Context, characterID string) ([]models.SectionWithItems, error) {
	secs, err := s.Sections.ListByCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}
	var result []models.SectionWithItems
	for _, sec := range secs {
		items, err := s.Sections.ListItems(ctx, sec.ID)
		if err != nil {
			return nil, err
		}
		sw := models.SectionWithItems{Section: *sec}
		for _, it := range items {
			sw.Items = append(sw.Items, *it)
		}
		result = append(result, sw)
	}
	return result, nil
}
