package auth

import (
	"context"
	"time"
)

// RefreshRecord is an allow-list entry for an issued refresh token.
type RefreshRecord struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
}

// TokenStore tracks which refresh tokens are currently valid. Membership is
// required for rotation; removal revokes the token. Delete must check and
// remove in one step, returning ErrTokenNotAllowed when the entry is already
// gone, so concurrent rotations of the same token cannot both claim it.
type TokenStore interface {
	Save(ctx context.Context, record RefreshRecord) error
	Find(ctx context.Context, tokenID string) (RefreshRecord, error)
	Delete(ctx context.Context, tokenID string) error
}
