package repositories

import (
	"context"

	"github.com/fanvid/backend/internal/models"
)

// VideoRepository exposes data access for the video catalog.
type VideoRepository interface {
	Insert(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	Update(ctx context.Context, video models.Video) error
	Delete(ctx context.Context, id string) error
	// List returns a snapshot of the catalog in insertion order.
	List(ctx context.Context) ([]models.Video, error)
	// IncrementViews bumps the view counter and returns the updated record.
	IncrementViews(ctx context.Context, id string) (models.Video, error)
}
