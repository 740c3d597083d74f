package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/logging"
	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/repositories"
)

const (
	refreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"
	refreshCookieAge  = 7 * 24 * time.Hour

	bcryptCost = 12
)

// AuthHandler serves registration, session, and profile endpoints.
type AuthHandler struct {
	Users         UserStore
	Tokens        TokenManager
	Limiter       RateLimiter
	SecureCookies bool
	ExposeErrors  bool
}

type registerRequest struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country"`
}

// Register implements POST /api/auth/register.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	var violations []string
	violations = append(violations, validateNameField("name", req.Name)...)
	violations = append(violations, validateNameField("lastName", req.LastName)...)
	violations = append(violations, validateNameField("country", req.Country)...)
	if !validEmail(req.Email) {
		violations = append(violations, "email must be a valid address")
	}
	violations = append(violations, validatePassword(req.Password)...)
	if len(violations) > 0 {
		respondError(ctx, w, http.StatusBadRequest, "validation failed", violations...)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		respondError(ctx, w, http.StatusConflict, "email already registered")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        email,
		PasswordHash: string(hash),
		Country:      strings.TrimSpace(req.Country),
		Role:         models.RoleUser,
		RegisteredAt: time.Now().UTC(),
		IsActive:     true,
		Preferences:  models.DefaultPreferences(),
	}
	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "email already registered")
			return
		}
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	pair, err := h.Tokens.IssuePair(ctx, user)
	if err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}
	h.setRefreshCookie(w, pair.RefreshToken)

	logging.FromContext(ctx).Info("user registered", "userId", user.ID)
	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"message":     "user registered successfully",
		"user":        user,
		"accessToken": pair.AccessToken,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login implements POST /api/auth/login. Unknown emails and wrong passwords
// produce an identical response so accounts cannot be enumerated.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validEmail(req.Email) || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}
	// Deactivation is reported before the password is even checked.
	if !user.IsActive {
		respondError(ctx, w, http.StatusUnauthorized, "account is deactivated")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, err := h.Tokens.IssuePair(ctx, user)
	if err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := h.Users.Update(ctx, user); err != nil {
		logging.FromContext(ctx).Warn("record last login", "userId", user.ID, "error", err)
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	logging.FromContext(ctx).Info("user logged in", "userId", user.ID)
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message":     "login successful",
		"user":        user,
		"accessToken": pair.AccessToken,
	})
}

// Refresh implements POST /api/auth/refresh. The refresh token travels only
// in its cookie; a successful rotation replaces the cookie in one step.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !allowRequest(h.Limiter, r, "auth") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		respondError(ctx, w, http.StatusUnauthorized, "refresh token not provided")
		return
	}

	pair, err := h.Tokens.Rotate(ctx, cookie.Value)
	if err != nil {
		h.clearRefreshCookie(w)
		logging.FromContext(ctx).Warn("refresh rejected", "error", err)
		respondError(ctx, w, http.StatusForbidden, "invalid refresh token")
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message":     "token refreshed",
		"accessToken": pair.AccessToken,
	})
}

// Logout implements POST /api/auth/logout. It always succeeds so clients can
// clear local state even when the cookie is already gone or invalid.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		h.Tokens.Revoke(ctx, cookie.Value)
	}
	h.clearRefreshCookie(w)
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Profile implements GET /api/auth/profile.
func (h AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(ctx, w, http.StatusOK, map[string]any{"user": user})
}

type profilePatchRequest struct {
	Name        *string            `json:"name"`
	LastName    *string            `json:"lastName"`
	Country     *string            `json:"country"`
	Preferences *preferencesUpdate `json:"preferences"`
}

type preferencesUpdate struct {
	Theme    *string `json:"theme"`
	Autoplay *bool   `json:"autoplay"`
	Quality  *string `json:"quality"`
}

// UpdateProfile implements PATCH /api/auth/profile. Absent fields are left
// untouched; preferences merge key by key.
func (h AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "access token required")
		return
	}

	var req profilePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	var violations []string
	if req.Name != nil {
		violations = append(violations, validateNameField("name", *req.Name)...)
	}
	if req.LastName != nil {
		violations = append(violations, validateNameField("lastName", *req.LastName)...)
	}
	if req.Country != nil {
		violations = append(violations, validateNameField("country", *req.Country)...)
	}
	if req.Preferences != nil {
		violations = append(violations, validatePreferences(*req.Preferences)...)
	}
	if len(violations) > 0 {
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

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Country != nil {
		user.Country = strings.TrimSpace(*req.Country)
	}
	if req.Preferences != nil {
		applyPreferences(&user.Preferences, *req.Preferences)
	}

	if err := h.Users.Update(ctx, user); err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "profile updated",
		"user":    user,
	})
}

func validatePreferences(p preferencesUpdate) []string {
	var violations []string
	if p.Theme != nil && !validTheme(*p.Theme) {
		violations = append(violations, "theme must be light or dark")
	}
	if p.Quality != nil && !validQuality(*p.Quality) {
		violations = append(violations, "quality must be auto, 720p, or 1080p")
	}
	return violations
}

func applyPreferences(target *models.Preferences, p preferencesUpdate) {
	if p.Theme != nil {
		target.Theme = *p.Theme
	}
	if p.Autoplay != nil {
		target.Autoplay = *p.Autoplay
	}
	if p.Quality != nil {
		target.Quality = *p.Quality
	}
}

func (h AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(refreshCookieAge / time.Second),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
