package videos

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/repositories"
	"github.com/fanvid/backend/internal/storage"
)

func newCatalogFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, 1<<20, nil)
	if err := f.users.Create(context.Background(), models.User{ID: "owner-2", Email: "other@example.com", IsActive: true}); err != nil {
		t.Fatalf("seed second owner: %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []models.Video{
		{ID: "v1", Name: "Alpha tour", Description: "city walk", Kind: models.KindUploadedFile, OwnerID: "owner-1", IsPublic: true, ViewCount: 5, UploadedAt: base},
		{ID: "v2", Name: "Beta concert", Description: "live show", Kind: models.KindYouTubeLink, OwnerID: "owner-1", IsPublic: true, ViewCount: 50, UploadedAt: base.Add(time.Hour)},
		{ID: "v3", Name: "Gamma draft", Description: "unfinished", Kind: models.KindUploadedFile, OwnerID: "owner-1", IsPublic: false, ViewCount: 1, UploadedAt: base.Add(2 * time.Hour)},
		{ID: "v4", Name: "Delta vlog", Description: "alpha ideas", Kind: models.KindUploadedFile, OwnerID: "owner-2", IsPublic: true, ViewCount: 20, UploadedAt: base.Add(3 * time.Hour)},
	}
	for _, v := range seed {
		if err := f.videos.Insert(context.Background(), v); err != nil {
			t.Fatalf("seed %s: %v", v.ID, err)
		}
	}
	return f
}

func ids(items []models.Video) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = v.ID
	}
	return out
}

func TestListHidesPrivateFromStrangers(t *testing.T) {
	f := newCatalogFixture(t)

	items, meta, err := f.service.List(context.Background(), ListQuery{}, Requester{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if meta.TotalCount != 3 {
		t.Fatalf("anonymous caller should see 3 public videos, got %d", meta.TotalCount)
	}
	for _, v := range items {
		if !v.IsPublic {
			t.Fatalf("private video leaked: %s", v.ID)
		}
	}

	_, meta, err = f.service.List(context.Background(), ListQuery{}, Requester{ID: "owner-1"})
	if err != nil || meta.TotalCount != 4 {
		t.Fatalf("owner should see own private video: %v count=%d", err, meta.TotalCount)
	}

	_, meta, err = f.service.List(context.Background(), ListQuery{}, Requester{ID: "someone", Admin: true})
	if err != nil || meta.TotalCount != 4 {
		t.Fatalf("admin should see everything: %v count=%d", err, meta.TotalCount)
	}
}

func TestListFilters(t *testing.T) {
	f := newCatalogFixture(t)

	// Search covers name and description.
	items, _, err := f.service.List(context.Background(), ListQuery{Search: "alpha"}, Requester{})
	if err != nil || len(items) != 2 {
		t.Fatalf("search: %v %v", err, ids(items))
	}

	items, _, err = f.service.List(context.Background(), ListQuery{Kind: models.KindYouTubeLink}, Requester{})
	if err != nil || len(items) != 1 || items[0].ID != "v2" {
		t.Fatalf("kind filter: %v %v", err, ids(items))
	}

	items, _, err = f.service.List(context.Background(), ListQuery{OwnerID: "owner-2"}, Requester{})
	if err != nil || len(items) != 1 || items[0].ID != "v4" {
		t.Fatalf("owner filter: %v %v", err, ids(items))
	}
}

func TestListSortAndPagination(t *testing.T) {
	f := newCatalogFixture(t)

	// Default sort is uploadedAt descending.
	items, _, err := f.service.List(context.Background(), ListQuery{}, Requester{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := ids(items)
	if got[0] != "v4" || got[2] != "v1" {
		t.Fatalf("default sort wrong: %v", got)
	}

	items, _, err = f.service.List(context.Background(), ListQuery{SortBy: SortByViewCount, SortOrder: "asc"}, Requester{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got = ids(items)
	if got[0] != "v1" || got[2] != "v2" {
		t.Fatalf("view count sort wrong: %v", got)
	}

	items, meta, err := f.service.List(context.Background(), ListQuery{Page: 2, PageSize: 2}, Requester{ID: "owner-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || meta.CurrentPage != 2 || meta.TotalPages != 2 || meta.TotalCount != 4 {
		t.Fatalf("pagination meta wrong: %+v items=%v", meta, ids(items))
	}
	if meta.HasNext || !meta.HasPrev {
		t.Fatalf("pagination flags wrong: %+v", meta)
	}

	_, meta, err = f.service.List(context.Background(), ListQuery{Page: 9, PageSize: 2}, Requester{})
	if err != nil || meta.HasNext {
		t.Fatalf("past-the-end page: %v %+v", err, meta)
	}
}

func TestGetIncrementsViewsAndGuardsVisibility(t *testing.T) {
	f := newCatalogFixture(t)

	first, err := f.service.Get(context.Background(), "v1", Requester{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, err := f.service.Get(context.Background(), "v1", Requester{})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if second.ViewCount != first.ViewCount+1 {
		t.Fatalf("views should increment per get: %d then %d", first.ViewCount, second.ViewCount)
	}

	if _, err := f.service.Get(context.Background(), "v3", Requester{ID: "owner-2"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.service.Get(context.Background(), "v3", Requester{ID: "owner-1"}); err != nil {
		t.Fatalf("owner should read own private video: %v", err)
	}
	if _, err := f.service.Get(context.Background(), "missing", Requester{}); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPatchVideo(t *testing.T) {
	f := newCatalogFixture(t)

	name := "Renamed"
	hidden := false
	video, err := f.service.Patch(context.Background(), "v1", Requester{ID: "owner-1"}, PatchRequest{Name: &name, IsPublic: &hidden})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if video.Name != "Renamed" || video.IsPublic {
		t.Fatalf("patch not applied: %+v", video)
	}

	if _, err := f.service.Patch(context.Background(), "v1", Requester{ID: "owner-2"}, PatchRequest{Name: &name}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.service.Patch(context.Background(), "v1", Requester{ID: "owner-2", Admin: true}, PatchRequest{Name: &name}); err != nil {
		t.Fatalf("admin patch should work: %v", err)
	}

	tooLong := string(bytes.Repeat([]byte("x"), 101))
	_, err = f.service.Patch(context.Background(), "v1", Requester{ID: "owner-1"}, PatchRequest{Name: &tooLong})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeleteVideoRemovesBlobAndOwnerReference(t *testing.T) {
	f := newFixture(t, 1<<20, nil)

	video, err := f.service.UploadFile(context.Background(), uploadRequest(mp4Payload(64)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := f.service.Delete(context.Background(), video.ID, Requester{ID: "owner-1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := f.videos.FindByID(context.Background(), video.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("catalog entry should be gone, got %v", err)
	}
	if _, err := f.blobs.Stat(context.Background(), video.StorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("blob should be gone, got %v", err)
	}
	if _, err := f.blobs.Stat(context.Background(), video.ThumbnailKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("thumbnail should be gone, got %v", err)
	}

	owner, _ := f.users.FindByID(context.Background(), "owner-1")
	if len(owner.UploadedVideos) != 0 {
		t.Fatalf("owner reference should be gone: %v", owner.UploadedVideos)
	}
}

func TestDeleteVideoSurvivesMissingBlob(t *testing.T) {
	f := newFixture(t, 1<<20, nil)

	video, err := f.service.UploadFile(context.Background(), uploadRequest(mp4Payload(64)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := f.blobs.Remove(context.Background(), video.StorageKey); err != nil {
		t.Fatalf("remove blob out of band: %v", err)
	}

	if err := f.service.Delete(context.Background(), video.ID, Requester{ID: "owner-1"}); err != nil {
		t.Fatalf("delete should ignore missing blob: %v", err)
	}
}

func TestDeleteVideoForbiddenForStrangers(t *testing.T) {
	f := newCatalogFixture(t)

	if err := f.service.Delete(context.Background(), "v1", Requester{ID: "owner-2"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.service.Delete(context.Background(), "v1", Requester{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous, got %v", err)
	}
}

func TestStatsForOwner(t *testing.T) {
	f := newCatalogFixture(t)

	stats, recent, popular, err := f.service.StatsForOwner(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalVideos != 3 || stats.PublicVideos != 2 || stats.PrivateVideos != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.UploadedVideos != 2 || stats.YouTubeVideos != 1 {
		t.Fatalf("unexpected kind counts: %+v", stats)
	}
	if stats.TotalViews != 56 || stats.AverageViews != 18 {
		t.Fatalf("unexpected view aggregates: %+v", stats)
	}

	if len(recent) != 3 || recent[0].ID != "v3" {
		t.Fatalf("recent order wrong: %v", ids(recent))
	}
	if len(popular) != 3 || popular[0].ID != "v2" {
		t.Fatalf("popular order wrong: %v", ids(popular))
	}
}
