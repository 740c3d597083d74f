package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/repositories"
	"github.com/fanvid/backend/internal/videos"
)

// dashboardStorageLimit is the advertised per-account storage allowance.
const dashboardStorageLimit = int64(5) << 30

// UserHandler serves public profile lookups and the account dashboard.
type UserHandler struct {
	Users        UserStore
	Pipeline     VideoPipeline
	ExposeErrors bool
}

// publicProfile is the subset of a user exposed to other users.
type publicProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastName     string    `json:"lastName"`
	Country      string    `json:"country"`
	RegisteredAt time.Time `json:"registeredAt"`
	VideoCount   int       `json:"videoCount"`
}

// VideosOf implements GET /api/users/{id}/videos, listing the public videos
// of one user. The owner sees their private videos too when authenticated.
func (h UserHandler) VideosOf(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	if _, err := h.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user not found")
			return
		}
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("limit"))

	items, meta, err := h.Pipeline.List(ctx, videos.ListQuery{
		OwnerID:  userID,
		Page:     page,
		PageSize: pageSize,
	}, requesterFrom(ctx))
	if err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videos":     items,
		"pagination": meta,
	})
}

// Search implements GET /api/users/search. Queries shorter than two
// characters are rejected to keep the scan bounded.
func (h UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		respondError(ctx, w, http.StatusBadRequest, "search query must be at least 2 characters")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 50 {
		limit = 20
	}

	matches, err := h.Users.Search(ctx, query, limit)
	if err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	profiles := make([]publicProfile, 0, len(matches))
	for _, user := range matches {
		count, err := h.publicVideoCount(r, user.ID)
		if err != nil {
			respondInternal(ctx, w, err, h.ExposeErrors)
			return
		}
		profiles = append(profiles, publicProfile{
			ID:           user.ID,
			Name:         user.Name,
			LastName:     user.LastName,
			Country:      user.Country,
			RegisteredAt: user.RegisteredAt,
			VideoCount:   count,
		})
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"users": profiles})
}

// Dashboard implements GET /api/users/dashboard.
func (h UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "access token required")
		return
	}

	user, err := h.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user not found")
			return
		}
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	stats, recent, popular, err := h.Pipeline.StatsForOwner(ctx, user.ID)
	if err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"stats":         stats,
		"recentVideos":  recent,
		"popularVideos": popular,
		"storageUsed":   stats.TotalSize,
		"storageLimit":  dashboardStorageLimit,
		"accountInfo": map[string]any{
			"registeredAt": user.RegisteredAt,
			"lastLogin":    user.LastLogin,
			"role":         user.Role,
			"preferences":  user.Preferences,
		},
	})
}

type preferencesRequest struct {
	Preferences preferencesUpdate `json:"preferences"`
}

// Preferences implements PATCH /api/users/preferences. Only the keys present
// in the payload change.
func (h UserHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "access token required")
		return
	}

	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if violations := validatePreferences(req.Preferences); len(violations) > 0 {
		respondError(ctx, w, http.StatusBadRequest, "validation failed", violations...)
		return
	}

	user, err := h.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "user not found")
			return
		}
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	applyPreferences(&user.Preferences, req.Preferences)
	if err := h.Users.Update(ctx, user); err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message":     "preferences updated",
		"preferences": user.Preferences,
	})
}

func (h UserHandler) publicVideoCount(r *http.Request, userID string) (int, error) {
	_, meta, err := h.Pipeline.List(r.Context(), videos.ListQuery{
		OwnerID:  userID,
		PageSize: 1,
	}, videos.Requester{})
	if err != nil {
		return 0, err
	}
	return meta.TotalCount, nil
}
