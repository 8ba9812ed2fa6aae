package youtube

import "errors"

var (
	ErrInvalidURL       = errors.New("invalid YouTube URL")
	ErrVideoUnavailable = errors.New("video unavailable")
	ErrPrivateVideo     = errors.New("video is private or unplayable")
	// ErrMetadataFetch covers transport failures and unparseable watch pages.
	ErrMetadataFetch = errors.New("failed to fetch video metadata")
)

// CaptionTrack describes one caption track listed on the watch page.
// SignedURL expires and must never be cached.
type CaptionTrack struct {
	LanguageCode    string
	DisplayName     string
	IsAutoGenerated bool
	SignedURL       string
}

type VideoMetadata struct {
	VideoID         string
	Title           string
	Description     string
	DurationSeconds int
	Author          string
	ChannelID       string
	AuthorURL       string
	Category        string
	PublishDate     string
	ThumbnailURL    string
	Keywords        []string
	Tracks          []CaptionTrack
}

// DurationMinutes floors the length to whole minutes.
func (m *VideoMetadata) DurationMinutes() int {
	return m.DurationSeconds / 60
}

func (m *VideoMetadata) CanonicalURL() string {
	return WatchURL(m.VideoID)
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// Language is a caption language as exposed to clients.
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (m *VideoMetadata) Languages() []Language {
	out := make([]Language, 0, len(m.Tracks))
	seen := make(map[string]bool, len(m.Tracks))
	for _, t := range m.Tracks {
		if seen[t.LanguageCode] {
			continue
		}
		seen[t.LanguageCode] = true
		out = append(out, Language{Name: t.DisplayName, Code: t.LanguageCode})
	}
	return out
}
