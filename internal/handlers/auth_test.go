package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/repositories"
)

type authFixture struct {
	handler AuthHandler
	users   *repositories.InMemoryUserStore
	tokens  *auth.TokenService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := repositories.NewInMemoryUserStore()
	tokens := auth.NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour, auth.NewInMemoryTokenStore(), users)
	return &authFixture{
		handler: AuthHandler{Users: users, Tokens: tokens},
		users:   users,
		tokens:  tokens,
	}
}

func (f *authFixture) seedUser(t *testing.T, email, password string, active bool) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:           "user-" + email,
		Name:         "Test",
		LastName:     "User",
		Email:        email,
		PasswordHash: string(hash),
		Country:      "Chile",
		Role:         models.RoleUser,
		RegisteredAt: time.Now().UTC(),
		IsActive:     active,
		Preferences:  models.DefaultPreferences(),
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return httptest.NewRequest(method, target, bytes.NewReader(body))
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

func TestRegisterSuccess(t *testing.T) {
	f := newAuthFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", registerRequest{
		Name:     "Maria",
		LastName: "Lopez",
		Email:    "maria@example.com",
		Password: "TestPassword123!",
		Country:  "Chile",
	})
	rec := httptest.NewRecorder()

	f.handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); strings.Contains(body, "TestPassword123!") || strings.Contains(body, "passwordHash") {
		t.Fatalf("response leaks password material: %s", body)
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := f.tokens.VerifyAccess(resp.AccessToken); err != nil {
		t.Fatalf("register must return a usable access token: %v", err)
	}
	if cookie := refreshCookieFrom(t, rec); cookie.Value == "" {
		t.Fatal("register must set the refresh cookie")
	}

	stored, err := f.users.FindByEmail(context.Background(), "maria@example.com")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("TestPassword123!")) != nil {
		t.Fatal("stored password is not the bcrypt hash of the input")
	}
	if !stored.IsActive || stored.Role != models.RoleUser {
		t.Fatalf("unexpected defaults: %+v", stored)
	}
	if stored.Preferences.Theme != "dark" {
		t.Fatalf("expected default preferences, got %+v", stored.Preferences)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", registerRequest{
		Name:     "M",
		LastName: "Lopez",
		Email:    "not-an-email",
		Password: "abc",
		Country:  "Chile",
	})
	rec := httptest.NewRecorder()

	f.handler.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Short name, bad email, and several password violations all reported.
	if len(resp.Details) < 4 {
		t.Fatalf("expected all violations collected, got %v", resp.Details)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "taken@example.com", "TestPassword123!", true)

	req := jsonRequest(t, http.MethodPost, "/api/auth/register", registerRequest{
		Name:     "Maria",
		LastName: "Lopez",
		Email:    "Taken@Example.com",
		Password: "TestPassword123!",
		Country:  "Chile",
	})
	rec := httptest.NewRecorder()

	f.handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", rec.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "login@example.com", "TestPassword123!", true)

	req := jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "login@example.com", Password: "TestPassword123!"})
	rec := httptest.NewRecorder()

	f.handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token in response")
	}
	if _, err := f.tokens.VerifyAccess(resp.AccessToken); err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}

	cookie := refreshCookieFrom(t, rec)
	if !cookie.HttpOnly || cookie.Path != refreshCookiePath || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie attributes wrong: %+v", cookie)
	}
	if cookie.MaxAge != int(refreshCookieAge/time.Second) {
		t.Fatalf("unexpected cookie max age: %d", cookie.MaxAge)
	}

	stored, _ := f.users.FindByEmail(context.Background(), "login@example.com")
	if stored.LastLogin == nil {
		t.Fatal("last login not recorded")
	}
}

func TestLoginRejectsBadCredentialsUniformly(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "login@example.com", "TestPassword123!", true)

	unknown := jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "ghost@example.com", Password: "TestPassword123!"})
	unknownRec := httptest.NewRecorder()
	f.handler.Login(unknownRec, unknown)

	wrong := jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "login@example.com", Password: "WrongPassword123!"})
	wrongRec := httptest.NewRecorder()
	f.handler.Login(wrongRec, wrong)

	if unknownRec.Code != http.StatusUnauthorized || wrongRec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", unknownRec.Code, wrongRec.Code)
	}
	if unknownRec.Body.String() != wrongRec.Body.String() {
		t.Fatalf("responses must not distinguish unknown email from wrong password:\n%s\n%s",
			unknownRec.Body.String(), wrongRec.Body.String())
	}
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "off@example.com", "TestPassword123!", false)

	// Deactivation wins over the password check, so even a wrong password
	// reports the account state.
	for _, password := range []string{"TestPassword123!", "WrongPassword123!"} {
		req := jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "off@example.com", Password: password})
		rec := httptest.NewRecorder()

		f.handler.Login(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("password %q: expected 401 got %d", password, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "account is deactivated") {
			t.Fatalf("password %q: expected deactivation message, got %s", password, rec.Body.String())
		}
	}
}

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "login@example.com", "TestPassword123!", true)

	loginRec := httptest.NewRecorder()
	f.handler.Login(loginRec, jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "login@example.com", Password: "TestPassword123!"}))
	firstCookie := refreshCookieFrom(t, loginRec)

	refreshReq := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	refreshReq.AddCookie(firstCookie)
	refreshRec := httptest.NewRecorder()
	f.handler.Refresh(refreshRec, refreshReq)

	if refreshRec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", refreshRec.Code, refreshRec.Body.String())
	}
	secondCookie := refreshCookieFrom(t, refreshRec)
	if secondCookie.Value == firstCookie.Value {
		t.Fatal("refresh must rotate the cookie value")
	}

	// The first token was retired by rotation.
	reuseReq := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	reuseReq.AddCookie(firstCookie)
	reuseRec := httptest.NewRecorder()
	f.handler.Refresh(reuseRec, reuseReq)

	if reuseRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on reuse got %d", reuseRec.Code)
	}
	cleared := refreshCookieFrom(t, reuseRec)
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("rejected refresh must clear the cookie: %+v", cleared)
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	f := newAuthFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	f := newAuthFixture(t)
	f.seedUser(t, "login@example.com", "TestPassword123!", true)

	loginRec := httptest.NewRecorder()
	f.handler.Login(loginRec, jsonRequest(t, http.MethodPost, "/api/auth/login", loginRequest{Email: "login@example.com", Password: "TestPassword123!"}))
	cookie := refreshCookieFrom(t, loginRec)

	logoutReq := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	logoutReq.AddCookie(cookie)
	logoutRec := httptest.NewRecorder()
	f.handler.Logout(logoutRec, logoutReq)
	if logoutRec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", logoutRec.Code)
	}

	// The revoked token no longer refreshes.
	refreshReq := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	refreshReq.AddCookie(cookie)
	refreshRec := httptest.NewRecorder()
	f.handler.Refresh(refreshRec, refreshReq)
	if refreshRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 after logout got %d", refreshRec.Code)
	}

	// Logout with no cookie still succeeds.
	bareRec := httptest.NewRecorder()
	f.handler.Logout(bareRec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	if bareRec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", bareRec.Code)
	}
}

func TestUpdateProfileMergesPreferences(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "prefs@example.com", "TestPassword123!", true)

	theme := "light"
	name := "Renamed"
	req := jsonRequest(t, http.MethodPatch, "/api/auth/profile", profilePatchRequest{
		Name:        &name,
		Preferences: &preferencesUpdate{Theme: &theme},
	})
	req = req.WithContext(auth.WithClaims(req.Context(), auth.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}))
	rec := httptest.NewRecorder()

	f.handler.UpdateProfile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}

	stored, _ := f.users.FindByID(context.Background(), user.ID)
	if stored.Name != "Renamed" || stored.LastName != "User" {
		t.Fatalf("partial update wrong: %+v", stored)
	}
	if stored.Preferences.Theme != "light" || !stored.Preferences.Autoplay || stored.Preferences.Quality != "auto" {
		t.Fatalf("preferences must merge shallowly: %+v", stored.Preferences)
	}
}

func TestUpdateProfileValidatesEnums(t *testing.T) {
	f := newAuthFixture(t)
	user := f.seedUser(t, "prefs@example.com", "TestPassword123!", true)

	theme := "solarized"
	req := jsonRequest(t, http.MethodPatch, "/api/auth/profile", profilePatchRequest{
		Preferences: &preferencesUpdate{Theme: &theme},
	})
	req = req.WithContext(auth.WithClaims(req.Context(), auth.Claims{UserID: user.ID}))
	rec := httptest.NewRecorder()

	f.handler.UpdateProfile(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
