package transcript

import (
	"time"

	"github.com/muratoffalex/ytscribe/internal/service/captions"
	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

// SimpleResult is the response of the uncached and v3 simple flows.
type SimpleResult struct {
	Duration               int                `json:"duration"`
	Title                  string             `json:"title"`
	Transcript             string             `json:"transcript"`
	TranscriptLanguageCode string             `json:"transcriptLanguageCode"`
	Languages              []youtube.Language `json:"languages,omitempty"`
}

// Record is the cached single-language transcript. Optional fields are
// omitted so merge writes leave previously stored values alone.
type Record struct {
	VideoID            string             `json:"videoId"`
	Title              string             `json:"title"`
	Duration           int                `json:"duration"`
	Transcript         string             `json:"transcript"`
	Language           string             `json:"transcriptLanguageCode"`
	AvailableLanguages []youtube.Language `json:"availableLanguages"`
	Tags               []string           `json:"tags,omitempty"`
	Description        string             `json:"description,omitempty"`
	CanonicalURL       string             `json:"canonicalUrl,omitempty"`
	PublishDate        string             `json:"publishDate,omitempty"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

func (r *Record) extended() bool {
	return r.CanonicalURL != ""
}

// LanguageTranscript is one entry of a multilingual record.
type LanguageTranscript struct {
	Language   string    `json:"language"`
	Transcript string    `json:"transcript"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MultilingualRecord keeps every fetched language of a video in one document
// so language discovery and retrieval stay atomic.
type MultilingualRecord struct {
	VideoID            string               `json:"videoId"`
	Title              string               `json:"title"`
	Duration           int                  `json:"duration"`
	AvailableLanguages []youtube.Language   `json:"availableLanguages"`
	DefaultLanguage    string               `json:"defaultLanguage,omitempty"`
	Transcripts        []LanguageTranscript `json:"transcripts"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

func (r *MultilingualRecord) entry(lang string) (LanguageTranscript, bool) {
	for _, e := range r.Transcripts {
		if e.Language == lang {
			return e, true
		}
	}
	return LanguageTranscript{}, false
}

func (r *MultilingualRecord) upsert(e LanguageTranscript) {
	for i := range r.Transcripts {
		if r.Transcripts[i].Language == e.Language {
			r.Transcripts[i] = e
			return
		}
	}
	r.Transcripts = append(r.Transcripts, e)
}

// SummaryRecord is created once per video and never regenerated.
type SummaryRecord struct {
	VideoID   string    `json:"videoId"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags"`
	Model     string    `json:"model,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TrackTranscript is one language of the full transcript response. Error is
// set instead of Segments when that track could not be fetched.
type TrackTranscript struct {
	Language        string             `json:"language"`
	Name            string             `json:"name"`
	IsAutoGenerated bool               `json:"isAutoGenerated"`
	Segments        []captions.Segment `json:"segments,omitempty"`
	Error           string             `json:"error,omitempty"`
}

type FullResult struct {
	VideoID         string            `json:"videoId"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Author          string            `json:"author"`
	ChannelID       string            `json:"channelId"`
	Category        string            `json:"category"`
	PublishDate     string            `json:"publishDate"`
	DurationSeconds int               `json:"durationSeconds"`
	Duration        int               `json:"duration"`
	ThumbnailURL    string            `json:"thumbnailUrl"`
	Transcripts     []TrackTranscript `json:"transcripts"`
}

type CaptionsResult struct {
	VideoID  string                 `json:"videoId"`
	Lang     string                 `json:"lang"`
	Captions []captions.CaptionLine `json:"captions"`
}
