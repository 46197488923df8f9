package codec

import (
	"encoding/json"
	"fmt"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

// imageRecord deliberately has no storage or thumbnail path fields: those are
// local-only and must never cross the wire.
type imageRecord struct {
	ID          string   `json:"id"`
	CharacterID string   `json:"characterId"`
	FileName    string   `json:"fileName"`
	MimeType    string   `json:"mimeType"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	SizeBytes   int64    `json:"sizeBytes"`
	Palette     []string `json:"palette"`
	Position    int      `json:"position"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func EncodeImage(img *models.MoodboardImage) ([]byte, error) {
	rec := imageRecord{
		ID:          img.ID,
		CharacterID: img.CharacterID,
		FileName:    img.FileName,
		MimeType:    img.MimeType,
		Width:       img.Width,
		Height:      img.Height,
		SizeBytes:   img.SizeBytes,
		Palette:     img.Palette,
		Position:    img.Position,
		CreatedAt:   encodeTime(img.CreatedAt),
		UpdatedAt:   encodeTime(img.UpdatedAt),
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode image %s: %w", img.ID, err)
	}
	return b, nil
}

// DecodeImage reconstructs the image metadata. StoragePath and ThumbnailPath
// come back empty; Materialize fills them from downloaded blob data.
func DecodeImage(data []byte) (*models.MoodboardImage, error) {
	var rec imageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img := &models.MoodboardImage{
		ID:          rec.ID,
		CharacterID: rec.CharacterID,
		FileName:    rec.FileName,
		MimeType:    rec.MimeType,
		Width:       rec.Width,
		Height:      rec.Height,
		SizeBytes:   rec.SizeBytes,
		Palette:     rec.Palette,
		Position:    rec.Position,
	}
	var err error
	if img.CreatedAt, err = decodeTime(rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("decode image %s: %w", rec.ID, err)
	}
	if img.UpdatedAt, err = decodeTime(rec.UpdatedAt); err != nil {
		return nil, fmt.Errorf("decode image %s: %w", rec.ID, err)
	}
	return img, nil
}

// BlobSaver is the slice of the local blob store Materialize needs.
type BlobSaver interface {
	SaveImage(id string, data []byte) (string, error)
	SaveThumbnail(id string, data []byte) (string, error)
}

// Materialize hands the downloaded blobs to the local blob store and records
// the returned locations on the entity. An empty thumb leaves ThumbnailPath
// blank rather than writing an empty file.
func Materialize(img *models.MoodboardImage, blobs BlobSaver, data, thumb []byte) error {
	path, err := blobs.SaveImage(img.ID, data)
	if err != nil {
		return fmt.Errorf("materialize image %s: %w", img.ID, err)
	}
	img.StoragePath = path
	img.ThumbnailPath = ""
	if len(thumb) > 0 {
		tpath, err := blobs.SaveThumbnail(img.ID, thumb)
		if err != nil {
			return fmt.Errorf("materialize thumbnail %s: %w", img.ID, err)
		}
		img.ThumbnailPath = tpath
	}
	return nil
}
