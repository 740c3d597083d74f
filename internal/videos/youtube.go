package videos

import (
	"net/url"
	"regexp"
	"strings"
)

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseYouTubeID extracts the 11-character video id from the recognized
// YouTube URL shapes (watch, embed, shorts, youtu.be). It returns false for
// anything else.
func ParseYouTubeID(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch":
			id := u.Query().Get("v")
			return id, youtubeIDPattern.MatchString(id)
		case strings.HasPrefix(u.Path, "/embed/"):
			id := strings.TrimPrefix(u.Path, "/embed/")
			return id, youtubeIDPattern.MatchString(id)
		case strings.HasPrefix(u.Path, "/shorts/"):
			id := strings.TrimPrefix(u.Path, "/shorts/")
			return id, youtubeIDPattern.MatchString(id)
		}
	case "youtu.be":
		id := strings.TrimPrefix(u.Path, "/")
		return id, youtubeIDPattern.MatchString(id)
	}

	return "", false
}

// CanonicalYouTubeURL returns the normalized watch URL for a video id.
func CanonicalYouTubeURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
