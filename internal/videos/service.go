package videos

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fanvid/backend/internal/logging"
	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/repositories"
	"github.com/fanvid/backend/internal/storage"
)

// allowedTypes maps permitted file extensions to the MIME types that may
// accompany them. Extension and MIME must agree.
var allowedTypes = map[string][]string{
	".mp4": {"video/mp4"},
	".mov": {"video/mov", "video/quicktime"},
	".avi": {"video/avi", "video/x-msvideo"},
}

// Service implements the video pipeline: upload ingestion, YouTube link
// registration, catalog queries, and ownership-gated mutation.
type Service struct {
	videos   repositories.VideoRepository
	users    repositories.UserRepository
	blobs    storage.BlobStore
	thumbs   ThumbnailGenerator
	metadata Provider

	maxUploadBytes int64

	// NowFunc and NewID override the time and id sources in tests.
	NowFunc func() time.Time
	NewID   func() string
}

// NewService wires the pipeline's collaborators together.
func NewService(videoRepo repositories.VideoRepository, userRepo repositories.UserRepository, blobs storage.BlobStore, thumbs ThumbnailGenerator, metadata Provider, maxUploadBytes int64) *Service {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 500 * 1024 * 1024
	}
	return &Service{
		videos:         videoRepo,
		users:          userRepo,
		blobs:          blobs,
		thumbs:         thumbs,
		metadata:       metadata,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadRequest carries one multipart file upload through the pipeline.
type UploadRequest struct {
	OwnerID     string
	Name        string
	Description string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadFile moves an upload through Received -> Validated -> Stored ->
// Cataloged. Any failure after the blob is written removes it again, so a
// rejected upload never leaves bytes behind.
func (s *Service) UploadFile(ctx context.Context, req UploadRequest) (models.Video, error) {
	logger := logging.FromContext(ctx)

	ext := strings.ToLower(path.Ext(req.Filename))
	if !typeAllowed(ext, req.ContentType) {
		return models.Video{}, ErrInvalidFileType
	}
	if req.Size > s.maxUploadBytes {
		return models.Video{}, ErrFileTooLarge
	}

	key := fmt.Sprintf("%s/%d_%s%s", req.OwnerID, s.now().UnixMilli(), randomSuffix(), ext)

	// Stored: one byte past the cap distinguishes oversize from exact fit.
	written, err := s.blobs.Save(ctx, key, io.LimitReader(req.Body, s.maxUploadBytes+1))
	if err != nil {
		return models.Video{}, fmt.Errorf("store upload: %w", err)
	}
	if written > s.maxUploadBytes {
		s.discardBlob(ctx, key)
		return models.Video{}, ErrFileTooLarge
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.discardBlob(ctx, key)
		return models.Video{}, &ValidationError{Violations: []string{"video name is required"}}
	}

	if err := s.checkContainerSignature(ctx, key, ext, written); err != nil {
		s.discardBlob(ctx, key)
		return models.Video{}, err
	}

	thumbKey := s.writeThumbnail(ctx, key)

	now := s.now()
	video := models.Video{
		ID:           s.newID(),
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Kind:         models.KindUploadedFile,
		Format:       strings.TrimPrefix(ext, "."),
		SourceURL:    "/api/videos/stream/" + key,
		SizeBytes:    written,
		Duration:     0, // unknown until playback reports it
		UploadedAt:   now,
		OwnerID:      req.OwnerID,
		IsPublic:     true,
		StorageKey:   key,
		ThumbnailKey: thumbKey,
	}
	if thumbKey != "" {
		video.Thumbnail = "/api/videos/stream/" + thumbKey
	}

	if err := s.videos.Insert(ctx, video); err != nil {
		s.discardBlob(ctx, key)
		if thumbKey != "" {
			s.discardBlob(ctx, thumbKey)
		}
		return models.Video{}, fmt.Errorf("catalog upload: %w", err)
	}

	if err := s.users.AppendUploadedVideo(ctx, req.OwnerID, video.ID); err != nil {
		logger.Error("append uploaded video to owner", "ownerId", req.OwnerID, "videoId", video.ID, "error", err)
	}

	logger.Info("video uploaded", "videoId", video.ID, "ownerId", req.OwnerID, "sizeBytes", written, "format", video.Format)
	return video, nil
}

// AddYouTubeLink validates the URL, snapshots external metadata, and catalogs
// the link. No record is created when the metadata lookup fails.
func (s *Service) AddYouTubeLink(ctx context.Context, ownerID, rawURL, name, description string) (models.Video, error) {
	var violations []string
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		violations = append(violations, "name must be between 1 and 100 characters")
	}
	if !isHTTPURL(rawURL) {
		violations = append(violations, "url must be a valid URL")
	}
	if len(violations) > 0 {
		return models.Video{}, &ValidationError{Violations: violations}
	}

	videoID, ok := ParseYouTubeID(rawURL)
	if !ok {
		return models.Video{}, ErrInvalidSource
	}

	if s.metadata == nil {
		return models.Video{}, ErrMetadataFetch
	}
	meta, err := s.metadata.Lookup(ctx, rawURL)
	if err != nil {
		return models.Video{}, fmt.Errorf("%w: %w", ErrMetadataFetch, err)
	}
	if meta.VideoID == "" {
		meta.VideoID = videoID
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = meta.Description
	}

	video := models.Video{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		Kind:        models.KindYouTubeLink,
		Format:      "youtube",
		SourceURL:   CanonicalYouTubeURL(meta.VideoID),
		Thumbnail:   meta.Thumbnail,
		SizeBytes:   0,
		Duration:    meta.Duration,
		UploadedAt:  s.now(),
		OwnerID:     ownerID,
		IsPublic:    true,
		ExternalMetadata: &models.YouTubeData{
			VideoID:     meta.VideoID,
			Title:       meta.Title,
			Author:      meta.Author,
			PublishDate: meta.PublishDate,
			ViewCount:   meta.ViewCount,
		},
	}

	if err := s.videos.Insert(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("catalog youtube link: %w", err)
	}

	if err := s.users.AppendUploadedVideo(ctx, ownerID, video.ID); err != nil {
		logging.FromContext(ctx).Error("append youtube video to owner", "ownerId", ownerID, "videoId", video.ID, "error", err)
	}

	return video, nil
}

// checkContainerSignature performs the lightweight structural check: the
// stored file must be non-empty and its first bytes must match the claimed
// container format.
func (s *Service) checkContainerSignature(ctx context.Context, key, ext string, size int64) error {
	if size < 12 {
		return ErrCorruptFile
	}

	rc, err := s.blobs.Open(ctx, key, 0, 11)
	if err != nil {
		return fmt.Errorf("read stored header: %w", err)
	}
	defer rc.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(rc, header); err != nil {
		return ErrCorruptFile
	}

	switch ext {
	case ".mp4", ".mov":
		// ISO BMFF: the ftyp box type sits at offset 4.
		if string(header[4:8]) != "ftyp" {
			return ErrCorruptFile
		}
	case ".avi":
		if string(header[0:4]) != "RIFF" {
			return ErrCorruptFile
		}
	default:
		return ErrInvalidFileType
	}
	return nil
}

// writeThumbnail stores a placeholder thumbnail next to the blob. Failure is
// logged and leaves the video without artwork; it never fails the upload.
func (s *Service) writeThumbnail(ctx context.Context, videoKey string) string {
	if s.thumbs == nil {
		return ""
	}

	data, err := s.thumbs.Generate(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("generate thumbnail", "videoKey", videoKey, "error", err)
		return ""
	}

	dir, file := path.Split(videoKey)
	base := strings.TrimSuffix(file, path.Ext(file))
	thumbKey := dir + "thumb_" + base + ".png"

	if _, err := s.blobs.Save(ctx, thumbKey, strings.NewReader(string(data))); err != nil {
		logging.FromContext(ctx).Warn("store thumbnail", "thumbKey", thumbKey, "error", err)
		return ""
	}
	return thumbKey
}

func (s *Service) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Remove(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logging.FromContext(ctx).Error("remove rejected upload", "key", key, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func typeAllowed(ext, contentType string) bool {
	mimes, ok := allowedTypes[ext]
	if !ok {
		return false
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, m := range mimes {
		if contentType == m {
			return true
		}
	}
	return false
}

func isHTTPURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}

func randomSuffix() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()[:12]
	}
	return hex.EncodeToString(buf)
}
