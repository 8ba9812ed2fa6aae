package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=abc12345678",
		"https://youtube.com/watch?v=abc12345678&t=42s",
		"http://m.youtube.com/watch?feature=share&v=abc12345678",
		"https://music.youtube.com/watch?v=abc12345678&list=RD",
		"https://youtu.be/abc12345678",
		"https://youtu.be/abc12345678?si=xyz",
		"https://www.youtube.com/shorts/abc12345678",
		"https://youtube.com/shorts/abc12345678?feature=share",
		"https://www.youtube.com/embed/abc12345678",
		"https://www.youtube-nocookie.com/embed/abc12345678",
		"https://www.youtube.com/live/abc12345678",
		"www.youtube.com/watch?v=abc12345678",
		"youtu.be/abc12345678",
		"  abc12345678 ",
	}

	for _, raw := range valid {
		t.Run(raw, func(t *testing.T) {
			id, err := ExtractVideoID(raw)
			require.NoError(t, err)
			assert.Equal(t, "abc12345678", id)
		})
	}
}

func TestExtractVideoID_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"https://example.com/watch?v=abc12345678",
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/channel/UC1234567890",
		"https://youtu.be/",
		"not a url at all",
		"abc1234567",
	}

	for _, raw := range invalid {
		t.Run(raw, func(t *testing.T) {
			_, err := ExtractVideoID(raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestVideoMetadata_Languages(t *testing.T) {
	meta := VideoMetadata{Tracks: []CaptionTrack{
		{LanguageCode: "en", DisplayName: "English"},
		{LanguageCode: "en", DisplayName: "English (auto-generated)", IsAutoGenerated: true},
		{LanguageCode: "de", DisplayName: "German"},
	}}

	assert.Equal(t, []Language{
		{Name: "English", Code: "en"},
		{Name: "German", Code: "de"},
	}, meta.Languages())
}

func TestVideoMetadata_DurationMinutes(t *testing.T) {
	assert.Equal(t, 12, (&VideoMetadata{DurationSeconds: 779}).DurationMinutes())
	assert.Equal(t, 0, (&VideoMetadata{DurationSeconds: 59}).DurationMinutes())
}
