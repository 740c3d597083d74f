package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/repositories"
)

func newVerifier(t *testing.T, users *repositories.InMemoryUserStore) *auth.TokenService {
	t.Helper()
	return auth.NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour, auth.NewInMemoryTokenStore(), users)
}

func seedActiveUser(t *testing.T, users *repositories.InMemoryUserStore, id string, active bool) models.User {
	t.Helper()
	user := models.User{ID: id, Email: id + "@example.com", Role: models.RoleUser, IsActive: active}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func claimsEcho(t *testing.T, got *auth.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
			*got = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	users := repositories.NewInMemoryUserStore()
	user := seedActiveUser(t, users, "user-1", true)
	tokens := newVerifier(t, users)

	pair, err := tokens.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	var got auth.Claims
	handler := RequireAuth(tokens, users)(claimsEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got.UserID != "user-1" {
		t.Fatalf("claims not stored on context: %+v", got)
	}
}

func TestRequireAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	users := repositories.NewInMemoryUserStore()
	tokens := newVerifier(t, users)
	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401 got %d", header, rec.Code)
		}
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	users := repositories.NewInMemoryUserStore()
	user := seedActiveUser(t, users, "user-1", true)
	tokens := newVerifier(t, users)
	tokens.NowFunc = func() time.Time { return time.Now().Add(-time.Hour) }

	pair, err := tokens.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token got %d", rec.Code)
	}
}

func TestRequireAuthRejectsInactiveSubject(t *testing.T) {
	users := repositories.NewInMemoryUserStore()
	user := seedActiveUser(t, users, "user-1", true)
	tokens := newVerifier(t, users)

	pair, err := tokens.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	user.IsActive = false
	if err := users.Update(context.Background(), user); err != nil {
		t.Fatalf("deactivate user: %v", err)
	}

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for inactive subject got %d", rec.Code)
	}
}

func TestOptionalAuthPassesAnonymously(t *testing.T) {
	users := repositories.NewInMemoryUserStore()
	tokens := newVerifier(t, users)

	var sawClaims bool
	handler := OptionalAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawClaims = auth.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if sawClaims {
		t.Fatal("invalid token must not populate claims")
	}
}

func TestOptionalAuthPopulatesClaims(t *testing.T) {
	users := repositories.NewInMemoryUserStore()
	user := seedActiveUser(t, users, "user-1", true)
	tokens := newVerifier(t, users)

	pair, err := tokens.IssuePair(context.Background(), user)
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	var got auth.Claims
	handler := OptionalAuth(tokens, users)(claimsEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got.UserID != "user-1" {
		t.Fatalf("claims not populated: %+v", got)
	}
}
