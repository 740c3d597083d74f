package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fanvid/backend/internal/models"
)

var (
	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a malformed token or a bad signature.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenNotAllowed indicates a refresh token absent from the allow-list.
	ErrTokenNotAllowed = errors.New("refresh token not allow-listed")
	// ErrUserInactive indicates the token subject no longer exists or was deactivated.
	ErrUserInactive = errors.New("user not found or inactive")
)

// UserDirectory resolves token subjects during rotation.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// TokenService mints and verifies the two classes of signed, time-boxed
// credentials: short-lived access tokens and allow-listed refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	store TokenStore
	users UserDirectory

	// NowFunc overrides the time source in tests.
	NowFunc func() time.Time
}

// NewTokenService constructs a TokenService. Both secrets must be non-empty
// and the store must not be nil.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, store TokenStore, users UserDirectory) *TokenService {
	if store == nil {
		panic("auth: token store must not be nil")
	}
	if accessSecret == "" || refreshSecret == "" {
		panic("auth: signing secrets must not be empty")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		store:         store,
		users:         users,
	}
}

// IssuePair mints an access/refresh token pair for the user and allow-lists
// the refresh token identifier.
func (s *TokenService) IssuePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	if user.ID == "" {
		return models.TokenPair{}, errors.New("user id must be provided")
	}

	now := s.now()

	access, err := s.sign(user, s.accessSecret, now, s.accessTTL, "")
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	tokenID := uuid.NewString()
	refresh, err := s.sign(user, s.refreshSecret, now, s.refreshTTL, tokenID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	record := RefreshRecord{
		TokenID:   tokenID,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.store.Save(ctx, record); err != nil {
		return models.TokenPair{}, fmt.Errorf("allow-list refresh token: %w", err)
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenService) VerifyAccess(token string) (Claims, error) {
	return verify(token, s.accessSecret)
}

// Rotate exchanges a refresh token for a new pair. The old token is removed
// from the allow-list on success and on every verification failure, so a
// refresh token can be used at most once.
func (s *TokenService) Rotate(ctx context.Context, token string) (models.TokenPair, error) {
	tokenID := extractTokenID(token)
	if tokenID == "" {
		return models.TokenPair{}, ErrTokenNotAllowed
	}

	record, err := s.store.Find(ctx, tokenID)
	if err != nil {
		return models.TokenPair{}, ErrTokenNotAllowed
	}

	if _, err := verify(token, s.refreshSecret); err != nil {
		_ = s.store.Delete(ctx, tokenID)
		return models.TokenPair{}, ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, record.UserID)
	if err != nil || !user.IsActive {
		_ = s.store.Delete(ctx, tokenID)
		return models.TokenPair{}, ErrUserInactive
	}

	// The removal is the single-use gate: when two rotations race on the
	// same token, only the one that retires the entry may issue a new pair.
	if err := s.store.Delete(ctx, tokenID); err != nil {
		if errors.Is(err, ErrTokenNotAllowed) {
			return models.TokenPair{}, ErrTokenNotAllowed
		}
		return models.TokenPair{}, fmt.Errorf("retire refresh token: %w", err)
	}

	return s.IssuePair(ctx, user)
}

// Revoke removes the refresh token from the allow-list. It is idempotent and
// never fails: unknown or malformed tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, token string) {
	tokenID := extractTokenID(token)
	if tokenID == "" {
		return
	}
	_ = s.store.Delete(ctx, tokenID)
}

func (s *TokenService) sign(user models.User, secret []byte, now time.Time, ttl time.Duration, tokenID string) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func verify(token string, secret []byte) (Claims, error) {
	claims := Claims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

// extractTokenID reads the jti claim without verifying the signature. The
// allow-list lookup comes first so membership failures are reported before
// signature failures; verification always follows.
func extractTokenID(token string) string {
	claims := Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.RegisteredClaims.ID
}
