package captions

import (
	"bytes"
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/asticode/go-astisub"
)

var (
	xmlOpenTag    = regexp.MustCompile(`<text\b([^>]*)>`)
	xmlStartAttr  = regexp.MustCompile(`\bstart="([\d.]+)"`)
	xmlDurAttr    = regexp.MustCompile(`\bdur="([\d.]+)"`)
	markupTag     = regexp.MustCompile(`<[^>]*>`)
	vttTimestamp  = regexp.MustCompile(`^\d{2}:\d{2}(:\d{2})?\.\d{3}\s+-->`)
	vttCueNumber  = regexp.MustCompile(`^\d+$`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ParseXML reads the legacy timedtext format (<text start=".." dur="..">).
func ParseXML(body string) []CaptionLine {
	var lines []CaptionLine
	for _, chunk := range strings.Split(body, "</text>") {
		loc := xmlOpenTag.FindStringSubmatchIndex(chunk)
		if loc == nil {
			continue
		}
		attrs := chunk[loc[2]:loc[3]]
		start := floatAttr(xmlStartAttr, attrs)
		dur := floatAttr(xmlDurAttr, attrs)

		// the platform escapes entities twice (&amp;#39;)
		text := html.UnescapeString(html.UnescapeString(chunk[loc[1]:]))
		text = cleanText(markupTag.ReplaceAllString(text, " "))
		if text == "" {
			continue
		}
		lines = append(lines, CaptionLine{Start: start, Duration: dur, Text: text})
	}
	return lines
}

func floatAttr(re *regexp.Regexp, attrs string) float64 {
	m := re.FindStringSubmatch(attrs)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

type json3Payload struct {
	Events []struct {
		TStartMs    float64 `json:"tStartMs"`
		DDurationMs float64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// ParseJSON3 reads the json3 caption format. Millisecond fields become seconds.
func ParseJSON3(body []byte) ([]CaptionLine, error) {
	var payload json3Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	var lines []CaptionLine
	for _, ev := range payload.Events {
		if len(ev.Segs) == 0 {
			continue
		}
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.UTF8)
		}
		text := cleanText(sb.String())
		if text == "" {
			continue
		}
		lines = append(lines, CaptionLine{
			Start:    max(ev.TStartMs, 0) / 1000.0,
			Duration: max(ev.DDurationMs, 0) / 1000.0,
			Text:     text,
		})
	}
	return lines, nil
}

// ParseVTT collapses a WebVTT file into a single line covering all cues.
// Rolling auto-caption cues repeat the previous line, so consecutive
// duplicates are dropped.
func ParseVTT(body []byte) []CaptionLine {
	subs, err := astisub.ReadFromWebVTT(bytes.NewReader(body))
	if err != nil || len(subs.Items) == 0 {
		return stripVTT(string(body))
	}

	var texts []string
	last := ""
	for _, item := range subs.Items {
		for _, line := range item.Lines {
			var sb strings.Builder
			for _, li := range line.Items {
				sb.WriteString(li.Text)
				sb.WriteString(" ")
			}
			text := cleanText(markupTag.ReplaceAllString(html.UnescapeString(sb.String()), " "))
			if text == "" || text == last {
				continue
			}
			texts = append(texts, text)
			last = text
		}
	}

	blob := strings.Join(texts, " ")
	if blob == "" {
		return nil
	}
	first, final := subs.Items[0], subs.Items[len(subs.Items)-1]
	return []CaptionLine{{
		Start:    first.StartAt.Seconds(),
		Duration: max(final.EndAt-first.StartAt, 0).Seconds(),
		Text:     blob,
	}}
}

// stripVTT is the fallback when the WebVTT reader rejects the file.
func stripVTT(body string) []CaptionLine {
	var texts []string
	last := ""
	for _, raw := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "",
			strings.HasPrefix(line, "WEBVTT"),
			strings.HasPrefix(line, "Kind:"),
			strings.HasPrefix(line, "Language:"),
			strings.HasPrefix(line, "NOTE"),
			vttTimestamp.MatchString(line),
			vttCueNumber.MatchString(line):
			continue
		}
		text := cleanText(markupTag.ReplaceAllString(html.UnescapeString(line), " "))
		if text == "" || text == last {
			continue
		}
		texts = append(texts, text)
		last = text
	}
	if len(texts) == 0 {
		return nil
	}
	return []CaptionLine{{Text: strings.Join(texts, " ")}}
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// JoinText flattens lines into one space-separated transcript.
func JoinText(lines []CaptionLine) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := cleanText(l.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Segment is a caption line with its computed end time.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	End      float64 `json:"end"`
	Text     string  `json:"text"`
}

func WithEnd(lines []CaptionLine) []Segment {
	out := make([]Segment, 0, len(lines))
	for _, l := range lines {
		out = append(out, Segment{
			Start:    l.Start,
			Duration: l.Duration,
			End:      l.Start + l.Duration,
			Text:     l.Text,
		})
	}
	return out
}
