package handlers

import (
	"context"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/storage"
	"github.com/fanvid/backend/internal/videos"
)

// UserStore captures the persistence operations required by the HTTP handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	Update(ctx context.Context, user models.User) error
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

// TokenManager mints, verifies, rotates, and revokes session credentials.
type TokenManager interface {
	IssuePair(ctx context.Context, user models.User) (models.TokenPair, error)
	VerifyAccess(token string) (auth.Claims, error)
	Rotate(ctx context.Context, token string) (models.TokenPair, error)
	Revoke(ctx context.Context, token string)
}

// VideoPipeline captures the video operations exposed over HTTP.
type VideoPipeline interface {
	UploadFile(ctx context.Context, req videos.UploadRequest) (models.Video, error)
	AddYouTubeLink(ctx context.Context, ownerID, url, name, description string) (models.Video, error)
	List(ctx context.Context, q videos.ListQuery, requester videos.Requester) ([]models.Video, videos.Pagination, error)
	Get(ctx context.Context, id string, requester videos.Requester) (models.Video, error)
	Patch(ctx context.Context, id string, requester videos.Requester, req videos.PatchRequest) (models.Video, error)
	Delete(ctx context.Context, id string, requester videos.Requester) error
	StatsForOwner(ctx context.Context, ownerID string) (videos.OwnerStats, []models.Video, []models.Video, error)
}

// Dependencies aggregates collaborators required by the HTTP handlers.
type Dependencies struct {
	Users  UserStore
	Tokens TokenManager
	Videos VideoPipeline
	Blobs  storage.BlobStore

	AuthLimiter RateLimiter

	MaxUploadBytes int64
	Environment    string
	SecureCookies  bool
	ExposeErrors   bool
}
