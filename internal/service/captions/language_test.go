package captions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

func TestSelectTrack(t *testing.T) {
	autoEN := youtube.CaptionTrack{LanguageCode: "en", IsAutoGenerated: true}
	manualEN := youtube.CaptionTrack{LanguageCode: "en-GB"}
	de := youtube.CaptionTrack{LanguageCode: "de"}
	autoDE := youtube.CaptionTrack{LanguageCode: "de", IsAutoGenerated: true}
	fr := youtube.CaptionTrack{LanguageCode: "fr"}

	tests := []struct {
		name      string
		tracks    []youtube.CaptionTrack
		requested string
		want      youtube.CaptionTrack
		wantErr   error
	}{
		{"explicit exact match", []youtube.CaptionTrack{autoEN, de}, "de", de, nil},
		{"explicit prefers manual", []youtube.CaptionTrack{autoDE, de}, "de", de, nil},
		{"explicit auto only", []youtube.CaptionTrack{autoDE, fr}, "de", autoDE, nil},
		{"explicit missing is not substituted", []youtube.CaptionTrack{autoEN, de}, "fr", youtube.CaptionTrack{}, ErrNoTranscriptAvailable},
		{"explicit base code does not match region", []youtube.CaptionTrack{manualEN}, "en", youtube.CaptionTrack{}, ErrNoTranscriptAvailable},
		{"default manual english first", []youtube.CaptionTrack{de, autoEN, manualEN}, "", manualEN, nil},
		{"default any english", []youtube.CaptionTrack{de, autoEN}, "", autoEN, nil},
		{"default first listed", []youtube.CaptionTrack{fr, de}, "", fr, nil},
		{"no tracks", nil, "", youtube.CaptionTrack{}, ErrNoCaptionsAvailable},
		{"no tracks with language", nil, "en", youtube.CaptionTrack{}, ErrNoCaptionsAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectTrack(tt.tracks, tt.requested)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectTrackPreferring(t *testing.T) {
	tracks := []youtube.CaptionTrack{
		{LanguageCode: "en"},
		{LanguageCode: "pt-BR", IsAutoGenerated: true},
		{LanguageCode: "pt"},
	}

	got, err := SelectTrackPreferring(tracks, "", "pt")
	require.NoError(t, err)
	assert.Equal(t, "pt", got.LanguageCode)

	got, err = SelectTrackPreferring(tracks[:2], "", "pt_PT")
	require.NoError(t, err)
	assert.Equal(t, "pt-BR", got.LanguageCode)
}
