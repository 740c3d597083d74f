package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by both access and refresh tokens.
// Refresh tokens additionally set RegisteredClaims.ID to the allow-listed
// token identifier.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type ctxKey string

const claimsKey ctxKey = "authClaims"

// WithClaims stores verified token claims on the context.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves claims stored by the auth middleware.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	if ctx == nil {
		return Claims{}, false
	}
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
