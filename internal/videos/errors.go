package videos

import (
	"errors"
	"strings"
)

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("video metadata provider unavailable")
	// ErrInvalidFileType indicates a disallowed or disagreeing extension/MIME pair.
	ErrInvalidFileType = errors.New("invalid file type, only MP4, AVI, and MOV files are allowed")
	// ErrFileTooLarge indicates the upload exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrCorruptFile indicates the stored bytes do not match the claimed container format.
	ErrCorruptFile = errors.New("invalid video file format")
	// ErrInvalidSource indicates a URL that does not point at a YouTube video.
	ErrInvalidSource = errors.New("invalid YouTube URL")
	// ErrMetadataFetch indicates the external metadata lookup failed.
	ErrMetadataFetch = errors.New("failed to fetch video metadata")
	// ErrForbidden indicates the requester is neither the owner nor an admin.
	ErrForbidden = errors.New("access denied")
)

// ValidationError reports every violated input rule for a request.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}
