package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

var pathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/", "/e/"}

func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// ExtractVideoID returns the 11-character id from a watch, short, Shorts,
// embed or live URL, or from a bare id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if IsVideoID(raw) {
		return raw, nil
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")

	var candidate string
	switch host {
	case "youtu.be":
		candidate = firstSegment(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			candidate = v
			break
		}
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				candidate = firstSegment(u.Path, prefix)
				break
			}
		}
	}

	if !IsVideoID(candidate) {
		return "", ErrInvalidURL
	}
	return candidate, nil
}

func firstSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
