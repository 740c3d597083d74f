package handlers

import (
	"net/http"
	"time"

	"github.com/fanvid/backend/internal/middleware"
)

// RegisterRoutes mounts all HTTP endpoints on the mux. Routes use the
// method-qualified patterns so the mux rejects wrong methods itself.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Users)
	optionalAuth := middleware.OptionalAuth(deps.Tokens, deps.Users)

	health := HealthHandler{Environment: deps.Environment, Started: time.Now()}
	authHandler := AuthHandler{
		Users:         deps.Users,
		Tokens:        deps.Tokens,
		Limiter:       deps.AuthLimiter,
		SecureCookies: deps.SecureCookies,
		ExposeErrors:  deps.ExposeErrors,
	}
	videoHandler := VideoHandler{
		Pipeline:       deps.Videos,
		Blobs:          deps.Blobs,
		MaxUploadBytes: deps.MaxUploadBytes,
		ExposeErrors:   deps.ExposeErrors,
	}
	userHandler := UserHandler{
		Users:        deps.Users,
		Pipeline:     deps.Videos,
		ExposeErrors: deps.ExposeErrors,
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/profile", requireAuth(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("PATCH /api/auth/profile", requireAuth(http.HandlerFunc(authHandler.UpdateProfile)))

	mux.Handle("POST /api/videos/upload", requireAuth(http.HandlerFunc(videoHandler.Upload)))
	mux.Handle("POST /api/videos/youtube", requireAuth(http.HandlerFunc(videoHandler.AddYouTube)))
	mux.Handle("GET /api/videos", optionalAuth(http.HandlerFunc(videoHandler.List)))
	mux.Handle("GET /api/videos/{id}", optionalAuth(http.HandlerFunc(videoHandler.Get)))
	mux.Handle("PATCH /api/videos/{id}", requireAuth(http.HandlerFunc(videoHandler.Patch)))
	mux.Handle("DELETE /api/videos/{id}", requireAuth(http.HandlerFunc(videoHandler.Delete)))
	mux.HandleFunc("GET /api/videos/stream/{userId}/{filename}", videoHandler.Stream)
	mux.HandleFunc("HEAD /api/videos/stream/{userId}/{filename}", videoHandler.Stream)

	mux.Handle("GET /api/users/{id}/videos", optionalAuth(http.HandlerFunc(userHandler.VideosOf)))
	mux.HandleFunc("GET /api/users/search", userHandler.Search)
	mux.Handle("GET /api/users/dashboard", requireAuth(http.HandlerFunc(userHandler.Dashboard)))
	mux.Handle("PATCH /api/users/preferences", requireAuth(http.HandlerFunc(userHandler.Preferences)))
}
