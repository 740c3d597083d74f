package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/repositories"
)

type seedDocument struct {
	Users  []seedUser  `json:"users"`
	Videos []seedVideo `json:"videos"`
}

type seedUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Country  string `json:"country"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

type seedVideo struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	SourceURL   string `json:"sourceUrl"`
	IsPublic    *bool  `json:"isPublic"`
	ViewCount   int64  `json:"viewCount"`
}

// loadSeed populates the in-memory stores from a JSON fixture. Intended for
// development and demo environments; passwords in the file are plaintext and
// get hashed on load.
func loadSeed(ctx context.Context, path string, users *repositories.InMemoryUserStore, videoStore *repositories.InMemoryVideoStore) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var doc seedDocument
	if err := json.Unmarshal(contents, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	now := time.Now().UTC()
	for _, su := range doc.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password for %s: %w", su.Email, err)
		}

		user := models.User{
			ID:           su.ID,
			Name:         su.Name,
			LastName:     su.LastName,
			Email:        su.Email,
			PasswordHash: string(hash),
			Country:      su.Country,
			Role:         su.Role,
			RegisteredAt: now,
			IsActive:     true,
			Preferences:  models.DefaultPreferences(),
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		if user.Role == "" {
			user.Role = models.RoleUser
		}
		if su.IsActive != nil {
			user.IsActive = *su.IsActive
		}

		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", user.Email, err)
		}
	}

	for _, sv := range doc.Videos {
		video := models.Video{
			ID:          sv.ID,
			OwnerID:     sv.OwnerID,
			Name:        sv.Name,
			Description: sv.Description,
			Kind:        sv.Kind,
			SourceURL:   sv.SourceURL,
			IsPublic:    true,
			ViewCount:   sv.ViewCount,
			UploadedAt:  now,
		}
		if video.ID == "" {
			video.ID = uuid.NewString()
		}
		if video.Kind == "" {
			video.Kind = models.KindYouTubeLink
		}
		if sv.IsPublic != nil {
			video.IsPublic = *sv.IsPublic
		}

		if err := videoStore.Insert(ctx, video); err != nil {
			return fmt.Errorf("seed video %s: %w", video.Name, err)
		}
		if video.OwnerID != "" {
			if err := users.AppendUploadedVideo(ctx, video.OwnerID, video.ID); err != nil {
				return fmt.Errorf("attach seed video %s to owner: %w", video.Name, err)
			}
		}
	}

	slog.Info("seed data loaded", "users", len(doc.Users), "videos", len(doc.Videos))
	return nil
}
