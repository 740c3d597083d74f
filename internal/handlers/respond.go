package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fanvid/backend/internal/logging"
	"github.com/fanvid/backend/internal/repositories"
	"github.com/fanvid/backend/internal/videos"
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string, details ...string) {
	respondJSON(ctx, w, status, errorResponse{Error: message, Details: details})
}

// respondInternal logs the underlying error with request context and returns
// an opaque 500. Detail is only exposed outside production mode.
func respondInternal(ctx context.Context, w http.ResponseWriter, err error, expose bool) {
	logging.FromContext(ctx).Error("internal error", "error", err)
	message := "internal server error"
	if expose && err != nil {
		message = err.Error()
	}
	respondError(ctx, w, http.StatusInternalServerError, message)
}

// respondVideoError translates pipeline errors into the HTTP error taxonomy.
func respondVideoError(ctx context.Context, w http.ResponseWriter, err error, expose bool) {
	var vErr *videos.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondError(ctx, w, http.StatusBadRequest, "validation failed", vErr.Violations...)
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "video not found")
	case errors.Is(err, videos.ErrForbidden):
		respondError(ctx, w, http.StatusForbidden, "access denied")
	case errors.Is(err, videos.ErrFileTooLarge):
		// Deliberately 400, not 413.
		respondError(ctx, w, http.StatusBadRequest, "file too large, maximum size is 500MB")
	case errors.Is(err, videos.ErrInvalidFileType):
		respondError(ctx, w, http.StatusBadRequest, videos.ErrInvalidFileType.Error())
	case errors.Is(err, videos.ErrCorruptFile):
		respondError(ctx, w, http.StatusBadRequest, videos.ErrCorruptFile.Error())
	case errors.Is(err, videos.ErrInvalidSource):
		respondError(ctx, w, http.StatusBadRequest, videos.ErrInvalidSource.Error())
	case errors.Is(err, videos.ErrMetadataFetch):
		respondError(ctx, w, http.StatusInternalServerError, "failed to process YouTube URL")
	default:
		respondInternal(ctx, w, err, expose)
	}
}
