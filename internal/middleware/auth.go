package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/logging"
	"github.com/fanvid/backend/internal/models"
)

// AccessVerifier validates access tokens.
type AccessVerifier interface {
	VerifyAccess(token string) (auth.Claims, error)
}

// UserChecker confirms the token subject still exists and is active.
type UserChecker interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// RequireAuth gates a handler behind a valid Bearer access token. The token
// subject must still exist and be active; claims are stored on the context.
func RequireAuth(verifier AccessVerifier, users UserChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "access token required")
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					writeAuthError(w, http.StatusUnauthorized, "token expired")
					return
				}
				writeAuthError(w, http.StatusForbidden, "invalid token")
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil || !user.IsActive {
				logging.FromContext(r.Context()).Warn("token subject rejected", "userId", claims.UserID, "error", err)
				writeAuthError(w, http.StatusForbidden, "user not found or inactive")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth populates claims when a valid token for an active user is
// present and otherwise lets the request through anonymously. Listing,
// detail, and streaming routes use it for visibility decisions.
func OptionalAuth(verifier AccessVerifier, users UserChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil || !user.IsActive {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
