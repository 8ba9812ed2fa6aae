package captions

import (
	"fmt"
	"strings"

	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

const DefaultPreferredLanguage = "en"

// SelectTrack applies the language policy: an explicit language must match a
// track code exactly; otherwise prefer manual English, any English, then the
// first listed track.
func SelectTrack(tracks []youtube.CaptionTrack, requested string) (youtube.CaptionTrack, error) {
	return SelectTrackPreferring(tracks, requested, DefaultPreferredLanguage)
}

// SelectTrackPreferring is SelectTrack with a different fallback language.
func SelectTrackPreferring(tracks []youtube.CaptionTrack, requested, preferred string) (youtube.CaptionTrack, error) {
	if len(tracks) == 0 {
		return youtube.CaptionTrack{}, ErrNoCaptionsAvailable
	}

	if requested != "" {
		var match *youtube.CaptionTrack
		for i := range tracks {
			if tracks[i].LanguageCode != requested {
				continue
			}
			if !tracks[i].IsAutoGenerated {
				return tracks[i], nil
			}
			if match == nil {
				match = &tracks[i]
			}
		}
		if match != nil {
			return *match, nil
		}
		return youtube.CaptionTrack{}, fmt.Errorf("%w: language %q", ErrNoTranscriptAvailable, requested)
	}

	for _, t := range tracks {
		if sameBase(t.LanguageCode, preferred) && !t.IsAutoGenerated {
			return t, nil
		}
	}
	for _, t := range tracks {
		if sameBase(t.LanguageCode, preferred) {
			return t, nil
		}
	}
	return tracks[0], nil
}

func sameBase(code, lang string) bool {
	return strings.EqualFold(baseLanguage(code), baseLanguage(lang))
}

func baseLanguage(code string) string {
	base, _, _ := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	return base
}
