package repositories

import (
	"context"

	"github.com/fanvid/backend/internal/models"
)

// UserRepository defines the data access contract for user accounts.
// Emails are unique case-insensitively across active and inactive users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	AppendUploadedVideo(ctx context.Context, userID, videoID string) error
	RemoveUploadedVideo(ctx context.Context, userID, videoID string) error
}
