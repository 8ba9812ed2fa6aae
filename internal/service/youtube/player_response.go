package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const playerResponseMarker = "ytInitialPlayerResponse"

// playerResponse mirrors the parts of ytInitialPlayerResponse we read. It
// never leaves this package; toMetadata converts it right after decoding.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID          string   `json:"videoId"`
		Title            string   `json:"title"`
		LengthSeconds    string   `json:"lengthSeconds"`
		ShortDescription string   `json:"shortDescription"`
		Author           string   `json:"author"`
		ChannelID        string   `json:"channelId"`
		Keywords         []string `json:"keywords"`
		Thumbnail        struct {
			Thumbnails []thumbnail `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	Microformat struct {
		Renderer struct {
			Category        string `json:"category"`
			PublishDate     string `json:"publishDate"`
			UploadDate      string `json:"uploadDate"`
			OwnerProfileURL string `json:"ownerProfileUrl"`
			Thumbnail       struct {
				Thumbnails []thumbnail `json:"thumbnails"`
			} `json:"thumbnail"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
	Captions *struct {
		TracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type captionTrack struct {
	BaseURL string `json:"baseUrl"`
	Name    struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (c captionTrack) displayName() string {
	if c.Name.SimpleText != "" {
		return c.Name.SimpleText
	}
	var sb strings.Builder
	for _, run := range c.Name.Runs {
		sb.WriteString(run.Text)
	}
	if sb.Len() == 0 {
		return c.LanguageCode
	}
	return sb.String()
}

// extractJSONObject returns the balanced JSON object starting at the first
// '{' after the marker.
func extractJSONObject(s, marker string) (string, error) {
	idx := strings.Index(s, marker)
	if idx < 0 {
		return "", fmt.Errorf("%s not found", marker)
	}
	start := strings.IndexByte(s[idx:], '{')
	if start < 0 {
		return "", errors.New("no JSON object after marker")
	}
	start += idx

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errors.New("unterminated JSON object")
}

func decodePlayerResponse(raw string) (*playerResponse, error) {
	var pr playerResponse
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// playabilityError classifies non-playable responses.
func (pr *playerResponse) playabilityError() error {
	status := strings.ToUpper(pr.PlayabilityStatus.Status)
	reason := pr.PlayabilityStatus.Reason
	switch status {
	case "", "OK":
		return nil
	case "LOGIN_REQUIRED":
		if strings.Contains(strings.ToLower(reason), "bot") {
			// anti-bot interstitial, not a property of the video
			return fmt.Errorf("%w: %s", ErrMetadataFetch, reason)
		}
		return fmt.Errorf("%w: %s", ErrPrivateVideo, reason)
	case "UNPLAYABLE", "AGE_CHECK_REQUIRED", "CONTENT_CHECK_REQUIRED":
		return fmt.Errorf("%w: %s", ErrPrivateVideo, reason)
	default:
		return fmt.Errorf("%w: %s %s", ErrVideoUnavailable, status, reason)
	}
}

func (pr *playerResponse) toMetadata(videoID string) *VideoMetadata {
	details := pr.VideoDetails
	micro := pr.Microformat.Renderer

	meta := &VideoMetadata{
		VideoID:     videoID,
		Title:       details.Title,
		Description: details.ShortDescription,
		Author:      details.Author,
		ChannelID:   details.ChannelID,
		Category:    micro.Category,
		PublishDate: isoDate(micro.PublishDate, micro.UploadDate),
		Keywords:    details.Keywords,
	}
	if details.VideoID != "" {
		meta.VideoID = details.VideoID
	}
	meta.DurationSeconds, _ = strconv.Atoi(details.LengthSeconds)

	switch {
	case micro.OwnerProfileURL != "":
		meta.AuthorURL = micro.OwnerProfileURL
	case details.ChannelID != "":
		meta.AuthorURL = "https://www.youtube.com/channel/" + details.ChannelID
	}

	meta.ThumbnailURL = widestThumbnail(details.Thumbnail.Thumbnails, micro.Thumbnail.Thumbnails)
	if meta.ThumbnailURL == "" {
		meta.ThumbnailURL = "https://i.ytimg.com/vi/" + meta.VideoID + "/hqdefault.jpg"
	}

	if pr.Captions != nil {
		for _, ct := range pr.Captions.TracklistRenderer.CaptionTracks {
			if ct.LanguageCode == "" || ct.BaseURL == "" {
				continue
			}
			meta.Tracks = append(meta.Tracks, CaptionTrack{
				LanguageCode:    ct.LanguageCode,
				DisplayName:     ct.displayName(),
				IsAutoGenerated: ct.Kind == "asr",
				SignedURL:       ct.BaseURL,
			})
		}
	}

	return meta
}

func widestThumbnail(lists ...[]thumbnail) string {
	best := thumbnail{}
	for _, list := range lists {
		for _, t := range list {
			if t.URL != "" && t.Width > best.Width {
				best = t
			}
		}
	}
	if best.URL == "" {
		for _, list := range lists {
			if len(list) > 0 {
				return list[len(list)-1].URL
			}
		}
	}
	return best.URL
}

// isoDate keeps the YYYY-MM-DD part of the first non-empty value.
func isoDate(values ...string) string {
	for _, v := range values {
		if len(v) >= 10 {
			return v[:10]
		}
	}
	return ""
}
