package models

import "time"

// Role values assigned to user accounts.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	LastName       string      `json:"lastName"`
	Email          string      `json:"email"`
	PasswordHash   string      `json:"-"`
	Country        string      `json:"country"`
	Role           string      `json:"role"`
	RegisteredAt   time.Time   `json:"registeredAt"`
	IsActive       bool        `json:"isActive"`
	LastLogin      *time.Time  `json:"lastLogin"`
	UploadedVideos []string    `json:"uploadedVideoIds"`
	Preferences    Preferences `json:"preferences"`
}

// Preferences holds per-user playback settings.
type Preferences struct {
	Theme    string `json:"theme"`
	Autoplay bool   `json:"autoplay"`
	Quality  string `json:"quality"`
}

// DefaultPreferences returns the settings applied to new accounts.
func DefaultPreferences() Preferences {
	return Preferences{Theme: "dark", Autoplay: true, Quality: "auto"}
}

// Video kinds distinguish locally stored files from external YouTube links.
const (
	KindUploadedFile = "uploadedFile"
	KindYouTubeLink  = "youtubeLink"
)

// Video is a catalog entry for an uploaded file or a YouTube link.
type Video struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	Format      string    `json:"format"`
	SourceURL   string    `json:"sourceUrl"`
	Thumbnail   string    `json:"thumbnailUrl,omitempty"`
	SizeBytes   int64     `json:"sizeBytes"`
	Duration    int       `json:"durationSeconds"`
	UploadedAt  time.Time `json:"uploadedAt"`
	OwnerID     string    `json:"ownerId"`
	ViewCount   int64     `json:"viewCount"`
	IsPublic    bool      `json:"isPublic"`

	// Blob keys for uploaded files; owned by the video pipeline and never serialized.
	StorageKey   string `json:"-"`
	ThumbnailKey string `json:"-"`

	// Snapshot taken when a YouTube link is added; never refreshed afterwards.
	ExternalMetadata *YouTubeData `json:"externalMetadata,omitempty"`
}

// YouTubeData captures the metadata snapshot for linked YouTube videos.
type YouTubeData struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	PublishDate string `json:"publishDate"`
	ViewCount   string `json:"externalViewCount"`
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
