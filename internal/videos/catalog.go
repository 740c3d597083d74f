package videos

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/logging"
	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/repositories"
	"github.com/fanvid/backend/internal/storage"
)

// Requester identifies who is asking, for visibility and ownership checks.
// A zero Requester is an anonymous caller.
type Requester struct {
	ID    string
	Admin bool
}

func (r Requester) canModify(ownerID string) bool {
	return auth.CanModify(r.ID, r.Admin, ownerID)
}

// Sortable fields for catalog listings.
const (
	SortByUploadedAt = "uploadedAt"
	SortByName       = "name"
	SortByViewCount  = "viewCount"
)

// ListQuery filters and pages the catalog.
type ListQuery struct {
	Search    string
	Kind      string
	OwnerID   string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Pagination describes the returned page.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// List applies, in order: text search, kind filter, owner filter, visibility
// filter, sort, pagination. Ties keep insertion order.
func (s *Service) List(ctx context.Context, q ListQuery, requester Requester) ([]models.Video, Pagination, error) {
	all, err := s.videos.List(ctx)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list catalog: %w", err)
	}

	filtered := make([]models.Video, 0, len(all))
	search := strings.ToLower(strings.TrimSpace(q.Search))
	for _, v := range all {
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Name), search) &&
			!strings.Contains(strings.ToLower(v.Description), search) {
			continue
		}
		if q.Kind != "" && v.Kind != q.Kind {
			continue
		}
		if q.OwnerID != "" && v.OwnerID != q.OwnerID {
			continue
		}
		if !v.IsPublic && !requester.canModify(v.OwnerID) {
			continue
		}
		filtered = append(filtered, v)
	}

	sortVideos(filtered, q.SortBy, q.SortOrder)

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	meta := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  total,
		HasNext:     end < total,
		HasPrev:     start > 0,
	}
	return filtered[start:end], meta, nil
}

// Get returns one video, incrementing its view counter as an observable side
// effect. Non-public videos are only visible to their owner or an admin.
func (s *Service) Get(ctx context.Context, id string, requester Requester) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, id)
	if err != nil {
		return models.Video{}, err
	}

	if !video.IsPublic && !requester.canModify(video.OwnerID) {
		return models.Video{}, ErrForbidden
	}

	return s.videos.IncrementViews(ctx, id)
}

// PatchRequest carries the mutable metadata fields; nil means unchanged.
type PatchRequest struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// Patch updates metadata on a video owned by the requester (or any video for
// admins). Mutation is restricted to name, description, and visibility.
func (s *Service) Patch(ctx context.Context, id string, requester Requester, req PatchRequest) (models.Video, error) {
	video, err := s.videos.FindByID(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	if !requester.canModify(video.OwnerID) {
		return models.Video{}, ErrForbidden
	}

	var violations []string
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			violations = append(violations, "name must be between 1 and 100 characters")
		} else {
			video.Name = name
		}
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if len(desc) > 1000 {
			violations = append(violations, "description must be at most 1000 characters")
		} else {
			video.Description = desc
		}
	}
	if len(violations) > 0 {
		return models.Video{}, &ValidationError{Violations: violations}
	}
	if req.IsPublic != nil {
		video.IsPublic = *req.IsPublic
	}

	if err := s.videos.Update(ctx, video); err != nil {
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

// Delete removes a video from the catalog and the owner's uploaded list.
// For uploaded files the backing blob and thumbnail are removed best-effort:
// storage failures are logged and never block the catalog deletion.
func (s *Service) Delete(ctx context.Context, id string, requester Requester) error {
	video, err := s.videos.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !requester.canModify(video.OwnerID) {
		return ErrForbidden
	}

	if video.Kind == models.KindUploadedFile {
		logger := logging.FromContext(ctx)
		if video.StorageKey != "" {
			if err := s.blobs.Remove(ctx, video.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
				logger.Error("delete video blob", "videoId", id, "key", video.StorageKey, "error", err)
			}
		}
		if video.ThumbnailKey != "" {
			if err := s.blobs.Remove(ctx, video.ThumbnailKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
				logger.Error("delete video thumbnail", "videoId", id, "key", video.ThumbnailKey, "error", err)
			}
		}
	}

	if err := s.videos.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}

	if err := s.users.RemoveUploadedVideo(ctx, video.OwnerID, id); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		logging.FromContext(ctx).Error("remove video from owner", "ownerId", video.OwnerID, "videoId", id, "error", err)
	}
	return nil
}

// OwnerStats aggregates catalog numbers for one owner's dashboard.
type OwnerStats struct {
	TotalVideos    int   `json:"totalVideos"`
	TotalViews     int64 `json:"totalViews"`
	TotalSize      int64 `json:"totalSize"`
	PublicVideos   int   `json:"publicVideos"`
	PrivateVideos  int   `json:"privateVideos"`
	UploadedVideos int   `json:"uploadedVideos"`
	YouTubeVideos  int   `json:"youtubeVideos"`
	AverageViews   int64 `json:"averageViews"`
}

// StatsForOwner computes dashboard aggregates plus the most recent and most
// viewed videos for the owner.
func (s *Service) StatsForOwner(ctx context.Context, ownerID string) (OwnerStats, []models.Video, []models.Video, error) {
	all, err := s.videos.List(ctx)
	if err != nil {
		return OwnerStats{}, nil, nil, fmt.Errorf("list catalog: %w", err)
	}

	var owned []models.Video
	for _, v := range all {
		if v.OwnerID == ownerID {
			owned = append(owned, v)
		}
	}

	stats := OwnerStats{TotalVideos: len(owned)}
	for _, v := range owned {
		stats.TotalViews += v.ViewCount
		stats.TotalSize += v.SizeBytes
		if v.IsPublic {
			stats.PublicVideos++
		} else {
			stats.PrivateVideos++
		}
		switch v.Kind {
		case models.KindUploadedFile:
			stats.UploadedVideos++
		case models.KindYouTubeLink:
			stats.YouTubeVideos++
		}
	}
	if len(owned) > 0 {
		stats.AverageViews = stats.TotalViews / int64(len(owned))
	}

	recent := append([]models.Video{}, owned...)
	sortVideos(recent, SortByUploadedAt, "desc")
	popular := append([]models.Video{}, owned...)
	sortVideos(popular, SortByViewCount, "desc")

	return stats, head(recent, 5), head(popular, 5), nil
}

func sortVideos(items []models.Video, sortBy, order string) {
	desc := order != "asc"
	less := func(a, b models.Video) bool {
		switch sortBy {
		case SortByName:
			return a.Name < b.Name
		case SortByViewCount:
			return a.ViewCount < b.ViewCount
		default:
			return a.UploadedAt.Before(b.UploadedAt)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func head(items []models.Video, n int) []models.Video {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
