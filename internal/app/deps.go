package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/config"
	"github.com/fanvid/backend/internal/handlers"
	"github.com/fanvid/backend/internal/middleware"
	"github.com/fanvid/backend/internal/repositories"
	"github.com/fanvid/backend/internal/storage"
	"github.com/fanvid/backend/internal/videos"
)

// dependencies couples the handler wiring with the concrete stores so the
// bootstrap can seed them before serving.
type dependencies struct {
	handlers.Dependencies

	userStore  *repositories.InMemoryUserStore
	videoStore *repositories.InMemoryVideoStore
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, cfg config.Config) (dependencies, error) {
	userStore := repositories.NewInMemoryUserStore()
	videoStore := repositories.NewInMemoryVideoStore()
	tokenStore := auth.NewInMemoryTokenStore()

	tokens := auth.NewTokenService(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		tokenStore,
		userStore,
	)

	blobs, err := buildBlobStore(ctx, cfg)
	if err != nil {
		return dependencies{}, err
	}

	ytDlp := videos.NewYTDLPProvider(cfg.YTDLPPath, cfg.YTDLPTimeout)
	metadataProvider := videos.NewCachingProvider(ytDlp, cfg.MetadataCacheTTL)

	pipeline := videos.NewService(
		videoStore,
		userStore,
		blobs,
		videos.NewPlaceholderThumbnailer(),
		metadataProvider,
		cfg.MaxUploadBytes,
	)

	return dependencies{
		Dependencies: handlers.Dependencies{
			Users:          userStore,
			Tokens:         tokens,
			Videos:         pipeline,
			Blobs:          blobs,
			AuthLimiter:    middleware.NewIPRateLimiter(10, time.Minute, 10*time.Minute),
			MaxUploadBytes: cfg.MaxUploadBytes,
			Environment:    cfg.Environment,
			SecureCookies:  cfg.Production(),
			ExposeErrors:   !cfg.Production(),
		},
		userStore:  userStore,
		videoStore: videoStore,
	}, nil
}

func buildBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.StorageBackend {
	case config.StorageLocal:
		return storage.NewLocalStore(cfg.UploadDir)
	case config.StorageS3:
		return storage.NewS3Store(ctx, cfg.ObjectStore)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
