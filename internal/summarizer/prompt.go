package summarizer

import (
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/forPelevin/gomoji"
)

const (
	DefaultMaxComments = 50
	DefaultMaxChars    = 6000

	// maxCommentWords drops essay-length comments from the model context.
	maxCommentWords = 100
)

const systemPrompt = "You are a comment analyzer. Respond ONLY with a valid JSON object, no explanations, no markdown fences."

const promptTemplate = `You are a comment analyzer. Using the following comments, tell pros, cons, and next hot topic.

Video Title: {title}
Channel: {channel_name}

comments:
{context}

Respond ONLY in valid JSON with these keys: pros, cons, next_hot_topic, each an array of short strings.
Example:
{
  "pros": ["..."],
  "cons": ["..."],
  "next_hot_topic": ["..."]
}`

var urlPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

// RenderPrompt substitutes the video fields and comment context into the
// fixed template. The template itself never changes between calls.
func RenderPrompt(title, channelName, context string) string {
	return strings.NewReplacer(
		"{title}", title,
		"{channel_name}", channelName,
		"{context}", context,
	).Replace(promptTemplate)
}

// SanitizeComments prepares comment texts for the model context: emoji and
// URLs stripped, whitespace collapsed, duplicates and essay-length comments
// dropped, non-English comments skipped. Sentiment and keyword extraction
// see the raw comments; this filtering exists only for the prompt.
func SanitizeComments(comments []string) []string {
	seen := make(map[string]bool)
	sanitized := make([]string, 0, len(comments))
	for _, comment := range comments {
		clean := simpleText(comment)
		if clean == "" || seen[clean] {
			continue
		}
		if len(strings.Fields(clean)) > maxCommentWords {
			continue
		}
		if whatlanggo.Detect(clean).Lang != whatlanggo.Eng {
			continue
		}
		seen[clean] = true
		sanitized = append(sanitized, clean)
	}
	return sanitized
}

func simpleText(text string) string {
	text = gomoji.RemoveEmojis(text)
	text = urlPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// BuildContext joins up to maxComments sanitized comments as "- " bullet
// lines, stopping before the rendered block would exceed maxChars. Zero
// comments produce an empty context; the model is still called with it.
func BuildContext(comments []string, maxComments, maxChars int) string {
	if maxComments > 0 && len(comments) > maxComments {
		comments = comments[:maxComments]
	}

	var b strings.Builder
	for i, comment := range comments {
		line := "- " + comment
		if i > 0 {
			line = "\n" + line
		}
		if maxChars > 0 && b.Len()+len(line) > maxChars {
			break
		}
		b.WriteString(line)
	}
	return b.String()
}
