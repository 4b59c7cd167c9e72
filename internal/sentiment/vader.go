package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/commentpulse/internal/models"
)

type Label string

const (
	LabelPositive Label = "positive"
	LabelNeutral  Label = "neutral"
	LabelNegative Label = "negative"
)

// Compound-score cutoffs for mapping VADER polarity onto labels.
const (
	positiveThreshold = 0.20
	negativeThreshold = -0.20
)

var analyzer = govader.NewSentimentIntensityAnalyzer()

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`https?://\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
)

// RemoveLinks keeps markdown link text and drops bare URLs.
func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// NormalizeComment flattens markup and links so the lexicon scores words,
// not syntax.
func NormalizeComment(input string) string {
	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plain := htmlTagPattern.ReplaceAllString(string(rendered), " ")
	plain = html.UnescapeString(plain)
	plain = RemoveLinks(plain)

	return strings.Join(strings.Fields(plain), " ")
}

// Classify labels one comment. Pure: the same text always yields the same
// label, and empty or whitespace-only text is neutral.
func Classify(text string) Label {
	plain := NormalizeComment(text)
	if plain == "" {
		return LabelNeutral
	}

	score := analyzer.PolarityScores(plain).Compound
	switch {
	case score >= positiveThreshold:
		return LabelPositive
	case score <= negativeThreshold:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// Summarize rolls labels into relative frequencies. Proportions of a
// non-empty set sum to 1; an empty set yields the zero summary.
func Summarize(labels []Label) models.SentimentSummary {
	if len(labels) == 0 {
		return models.SentimentSummary{}
	}

	var positive, neutral, negative int
	for _, label := range labels {
		switch label {
		case LabelPositive:
			positive++
		case LabelNegative:
			negative++
		default:
			neutral++
		}
	}

	total := float64(len(labels))
	return models.SentimentSummary{
		Positive: float64(positive) / total,
		Neutral:  float64(neutral) / total,
		Negative: float64(negative) / total,
	}
}
