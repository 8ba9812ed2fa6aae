package summary

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MaxTags      = 10
	minTagLength = 4
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		about above after again against also among because been before being below
		between both cannot could does doing down during each even ever every from
		further have having here hers herself himself into itself just last like
		made make many more most much must myself need never next once only other
		ours ourselves over same should some such than that their theirs them
		themselves then there these they this those through under until upon very
		want were what when where which while will with within without would your
		yours yourself yourselves video videos channel subscribe today thing things
		really going know think right well back youtube watch https http www`) {
		stopwords[w] = struct{}{}
	}
}

var lower = cases.Lower(language.Und)

// DeriveTags is a frequency heuristic used when a video carries no keywords.
// It counts words and is not semantic tagging.
func DeriveTags(title, description, summary string) []string {
	text := lower.String(strings.Join([]string{title, description, summary}, " "))
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, text)

	counts := make(map[string]int)
	var order []string
	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(word) < minTagLength {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})
	if len(order) > MaxTags {
		order = order[:MaxTags]
	}
	return order
}

// TagsOrDerived keeps existing tags and only derives when there are none.
func TagsOrDerived(existing []string, title, description, summary string) []string {
	if len(existing) > 0 {
		return existing
	}
	return DeriveTags(title, description, summary)
}
