package summary

import (
	"bytes"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

const frontmatterDelimiter = "---\n"

// Document is everything the composer needs to render one summary.
type Document struct {
	Metadata     *youtube.VideoMetadata
	Tags         []string
	Summary      string
	CanonicalURL string
	Now          time.Time
}

// Compose renders YAML frontmatter followed by the model output. The result
// is what gets persisted as the summary value.
func Compose(doc Document) (string, error) {
	meta := doc.Metadata
	if meta == nil {
		meta = &youtube.VideoMetadata{}
	}
	now := doc.Now
	if now.IsZero() {
		now = time.Now()
	}
	canonical := doc.CanonicalURL
	if canonical == "" && meta.VideoID != "" {
		canonical = meta.CanonicalURL()
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	addPair(root, "title", quoted(meta.Title))
	addPair(root, "date", quoted(now.UTC().Format(time.DateOnly)))
	addPair(root, "category", quoted(meta.Category))
	addPair(root, "description", block(meta.Description))
	addPair(root, "image", quoted(meta.ThumbnailURL))
	addPair(root, "duration", &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!int",
		Value: strconv.Itoa(meta.DurationMinutes()),
	})
	addPair(root, "tags", tagList(doc.Tags))
	addPair(root, "canonical_url", quoted(canonical))
	addPair(root, "author", quoted(meta.Author))
	addPair(root, "author_url", quoted(meta.AuthorURL))
	addPair(root, "video_id", quoted(meta.VideoID))
	addPair(root, "video_url", quoted(youtube.WatchURL(meta.VideoID)))

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelimiter)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	buf.WriteString(frontmatterDelimiter)
	buf.WriteString("\n")
	buf.WriteString(strings.TrimSpace(normalizeNewlines(doc.Summary)))
	buf.WriteString("\n")

	return buf.String(), nil
}

// SplitFrontmatter separates a composed document into its YAML block and body.
func SplitFrontmatter(doc string) (string, string, bool) {
	rest, ok := strings.CutPrefix(doc, frontmatterDelimiter)
	if !ok {
		return "", doc, false
	}
	idx := strings.Index(rest, "\n"+frontmatterDelimiter)
	if idx < 0 {
		return "", doc, false
	}
	return rest[:idx+1], strings.TrimLeft(rest[idx+1+len(frontmatterDelimiter):], "\n"), true
}

func addPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}

func quoted(s string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: yaml.DoubleQuotedStyle,
		Value: s,
	}
}

// block emits a literal block scalar. Without the cleanup below the encoder
// silently falls back to a quoted scalar.
func block(s string) *yaml.Node {
	text := blockText(s)
	if text == "" {
		return quoted("")
	}
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: yaml.LiteralStyle,
		Value: text + "\n",
	}
}

func blockText(s string) string {
	lines := strings.Split(normalizeNewlines(s), "\n")
	for i, line := range lines {
		line = strings.ReplaceAll(line, "\t", "    ")
		line = strings.Map(func(r rune) rune {
			if unicode.IsPrint(r) || r == ' ' {
				return r
			}
			return -1
		}, line)
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func normalizeNewlines(s string) string {
	return strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\u2028", "\n",
		"\u2029", "\n",
		"\u0085", "\n",
	).Replace(s)
}

func tagList(tags []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	if len(tags) == 0 {
		seq.Style = yaml.FlowStyle
	}
	for _, tag := range tags {
		seq.Content = append(seq.Content, quoted(tag))
	}
	return seq
}
