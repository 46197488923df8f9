// Package remote defines the remote object store the sync engine talks to,
// plus two implementations: an S3-compatible adapter for production and an
// in-memory adapter for tests.
package remote

import (
	"context"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/models"
)

// Adapter is the cloud side of a sync: one manifest document, one JSON record
// per entity, and id-addressed binary blobs for images and thumbnails.
// Absent objects are reported as common.ErrNotFound.
type Adapter interface {
	// Connect verifies credentials and reachability before a sync cycle.
	Connect(ctx context.Context) error

	GetManifest(ctx context.Context) ([]byte, error)
	SaveManifest(ctx context.Context, data []byte) error

	GetRecord(ctx context.Context, typ models.EntityType, id string) ([]byte, error)
	SaveRecord(ctx context.Context, typ models.EntityType, id string, data []byte) error
	DeleteRecord(ctx context.Context, typ models.EntityType, id string) error

	GetImageFile(ctx context.Context, id string) ([]byte, error)
	SaveImageFile(ctx context.Context, id string, data []byte) error
	DeleteImageFile(ctx context.Context, id string) error

	GetThumbnailFile(ctx context.Context, id string) ([]byte, error)
	SaveThumbnailFile(ctx context.Context, id string, data []byte) error
	DeleteThumbnailFile(ctx context.Context, id string) error
}
