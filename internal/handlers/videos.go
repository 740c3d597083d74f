package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/fanvid/backend/internal/auth"
	"github.com/fanvid/backend/internal/logging"
	"github.com/fanvid/backend/internal/models"
	"github.com/fanvid/backend/internal/storage"
	"github.com/fanvid/backend/internal/videos"
)

// multipartMemoryLimit is the in-memory threshold for parsing upload forms;
// larger parts spill to temporary files.
const multipartMemoryLimit = 32 << 20

// VideoHandler serves the video catalog, ingestion, and streaming endpoints.
type VideoHandler struct {
	Pipeline       VideoPipeline
	Blobs          storage.BlobStore
	MaxUploadBytes int64
	ExposeErrors   bool
}

// Upload implements POST /api/videos/upload. The multipart form carries the
// file under "video" with metadata fields "nombre" and "descripcion".
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.upload")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "access token required")
		return
	}

	// Allow headroom for the non-file form parts; the pipeline enforces the
	// exact per-file cap.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(ctx, w, http.StatusBadRequest, "file too large, maximum size is 500MB")
			return
		}
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "no video file provided")
		return
	}
	defer file.Close()

	video, err := h.Pipeline.UploadFile(ctx, videos.UploadRequest{
		OwnerID:     claims.UserID,
		Name:        r.FormValue("nombre"),
		Description: r.FormValue("descripcion"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondVideoError(ctx, w, err, h.ExposeErrors)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"message": "video uploaded successfully",
		"video":   video,
	})
}

type youtubeRequest struct {
	URL         string `json:"url"`
	Name        string `json:"nombre"`
	Description string `json:"descripcion"`
}

// AddYouTube implements POST /api/videos/youtube.
func (h VideoHandler) AddYouTube(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.youtube")
	defer span.End()

	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "access token required")
		return
	}

	var req youtubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := h.Pipeline.AddYouTubeLink(ctx, claims.UserID, req.URL, req.Name, req.Description)
	if err != nil {
		respondVideoError(ctx, w, err, h.ExposeErrors)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]any{
		"message": "YouTube video added successfully",
		"video":   video,
	})
}

// List implements GET /api/videos.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	pageSize, _ := strconv.Atoi(query.Get("limit"))

	listQuery := videos.ListQuery{
		Search:    query.Get("search"),
		Kind:      kindFilter(query.Get("tipo")),
		OwnerID:   query.Get("uploadedBy"),
		SortBy:    query.Get("sortBy"),
		SortOrder: query.Get("sortOrder"),
		Page:      page,
		PageSize:  pageSize,
	}

	items, meta, err := h.Pipeline.List(ctx, listQuery, requesterFrom(ctx))
	if err != nil {
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"videos":     items,
		"pagination": meta,
	})
}

// Get implements GET /api/videos/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Pipeline.Get(ctx, r.PathValue("id"), requesterFrom(ctx))
	if err != nil {
		respondVideoError(ctx, w, err, h.ExposeErrors)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"video": video})
}

type videoPatchRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// Patch implements PATCH /api/videos/{id}.
func (h VideoHandler) Patch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req videoPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	video, err := h.Pipeline.Patch(ctx, r.PathValue("id"), requesterFrom(ctx), videos.PatchRequest{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondVideoError(ctx, w, err, h.ExposeErrors)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{
		"message": "video updated",
		"video":   video,
	})
}

// Delete implements DELETE /api/videos/{id}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Pipeline.Delete(ctx, r.PathValue("id"), requesterFrom(ctx)); err != nil {
		respondVideoError(ctx, w, err, h.ExposeErrors)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]string{"message": "video deleted"})
}

// Stream implements GET /api/videos/stream/{userId}/{filename}, serving the
// stored blob with single-range support for seeking players.
func (h VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("userId")
	filename := r.PathValue("filename")
	if !safePathSegment(userID) || !safePathSegment(filename) {
		respondError(ctx, w, http.StatusBadRequest, "invalid stream path")
		return
	}
	key := userID + "/" + filename

	size, err := h.Blobs.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video file not found")
			return
		}
		respondInternal(ctx, w, err, h.ExposeErrors)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(filename))
	w.Header().Set("Accept-Ranges", "bytes")

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		h.serveBlob(w, r, key, 0, size-1, size, http.StatusOK)
		return
	}

	start, end, ok := parseRange(rangeHeader, size)
	if !ok {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		respondError(ctx, w, http.StatusRequestedRangeNotSatisfiable, "invalid range")
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	h.serveBlob(w, r, key, start, end, size, http.StatusPartialContent)
}

func (h VideoHandler) serveBlob(w http.ResponseWriter, r *http.Request, key string, start, end, size int64, status int) {
	ctx := r.Context()
	length := end - start + 1
	if size == 0 {
		length = 0
	}
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)
	if r.Method == http.MethodHead || length == 0 {
		return
	}

	reader, err := h.Blobs.Open(ctx, key, start, end)
	if err != nil {
		logging.FromContext(ctx).Error("open blob for streaming", "key", key, "error", err)
		return
	}
	defer reader.Close()

	if _, err := io.Copy(w, reader); err != nil {
		// Players abort ranged reads constantly while seeking.
		logging.FromContext(ctx).Debug("stream interrupted", "key", key, "error", err)
	}
}

// parseRange handles a single "bytes=start-end" range. The start is
// mandatory, the end defaults to the final byte and is clamped to it.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	spec, found := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !found || strings.Contains(spec, ",") {
		return 0, 0, false
	}
	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}

	end = size - 1
	if trimmed := strings.TrimSpace(last); trimmed != "" {
		end, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end > size-1 {
			end = size - 1
		}
	}
	return start, end, true
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func safePathSegment(segment string) bool {
	return segment != "" && segment != "." && segment != ".." &&
		!strings.ContainsAny(segment, "/\\")
}

func kindFilter(tipo string) string {
	switch tipo {
	case "video", "file":
		return models.KindUploadedFile
	case "youtube":
		return models.KindYouTubeLink
	default:
		return tipo
	}
}

func requesterFrom(ctx context.Context) videos.Requester {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return videos.Requester{}
	}
	return videos.Requester{
		ID:    claims.UserID,
		Admin: claims.Role == models.RoleAdmin,
	}
}
