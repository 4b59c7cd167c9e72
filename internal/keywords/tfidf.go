package keywords

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/spacesedan/commentpulse/internal/models"
)

const DefaultTopK = 5

// Common English function words plus platform noise that shows up in nearly
// every comment section.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "between": true,
	"among": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "me": true, "my": true, "myself": true, "we": true,
	"our": true, "ours": true, "ourselves": true, "you": true, "your": true,
	"yours": true, "yourself": true, "yourselves": true, "he": true,
	"him": true, "his": true, "himself": true, "she": true, "her": true,
	"hers": true, "herself": true, "it": true, "its": true, "itself": true,
	"they": true, "them": true, "their": true, "theirs": true,
	"themselves": true, "what": true, "which": true, "who": true,
	"whom": true, "am": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "having": true, "do": true, "does": true,
	"did": true, "doing": true, "will": true, "would": true, "should": true,
	"could": true, "can": true, "may": true, "might": true, "must": true,
	"shall": true, "video": true, "youtube": true, "channel": true,
	"like": true, "subscribe": true, "comment": true, "watch": true,
}

var (
	noisePattern   = regexp.MustCompile(`https?://\S+|@\w+`)
	nonWordPattern = regexp.MustCompile(`[^a-z0-9\s]+`)
)

// tokenize lowercases, strips URLs/mentions/punctuation, and keeps terms
// longer than two characters that pass the stop and exclusion filters.
func tokenize(text string, exclude map[string]bool) []string {
	lowered := strings.ToLower(text)
	lowered = noisePattern.ReplaceAllString(lowered, " ")
	lowered = nonWordPattern.ReplaceAllString(lowered, " ")

	var terms []string
	for _, term := range strings.Fields(lowered) {
		if len(term) <= 2 || stopWords[term] || exclude[term] {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// Extract ranks terms across one video's comments by TF-IDF, treating each
// comment as one document. Title tokens are excluded so the ranking surfaces
// what commenters add, not what the video already says. Ties break on higher
// raw term frequency, then lexicographic order. Never errors: zero comments
// yield an empty list, fewer distinct terms than topK yield a shorter one.
func Extract(comments []string, title string, topK int) []string {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(comments) == 0 {
		return []string{}
	}

	titleTokens := make(map[string]bool)
	for _, term := range tokenize(title, nil) {
		titleTokens[term] = true
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, comment := range comments {
		seen := make(map[string]bool)
		for _, term := range tokenize(comment, titleTokens) {
			termFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}
	if len(termFreq) == 0 {
		return []string{}
	}

	type scoredTerm struct {
		term  string
		score float64
		freq  int
	}
	ranked := make([]scoredTerm, 0, len(termFreq))
	docs := float64(len(comments))
	for term, freq := range termFreq {
		idf := math.Log(docs / float64(docFreq[term]))
		ranked = append(ranked, scoredTerm{term: term, score: float64(freq) * idf, freq: freq})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].freq != ranked[j].freq {
			return ranked[i].freq > ranked[j].freq
		}
		return ranked[i].term < ranked[j].term
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	terms := make([]string, len(ranked))
	for i, r := range ranked {
		terms[i] = r.term
	}
	return terms
}

const maxEnhancedKeywords = 10

// Engagement thresholds for the batch-metrics tags.
const (
	highEngagementAvgLikes  = 10
	activeDiscussionMinSize = 20
	viralLikeCount          = 50
	viralCommentMin         = 5
)

// Enhance appends engagement tags derived from the comment set to the
// keyword list, deduplicating while keeping order, capped at ten entries.
// An empty comment set leaves the list untouched.
func Enhance(keywords []string, comments []models.Comment) []string {
	if len(comments) == 0 {
		return keywords
	}

	var totalLikes int64
	var viral int
	for _, c := range comments {
		totalLikes += c.LikeCount
		if c.LikeCount > viralLikeCount {
			viral++
		}
	}

	var tags []string
	if float64(totalLikes)/float64(len(comments)) > highEngagementAvgLikes {
		tags = append(tags, "high engagement")
	}
	if len(comments) > activeDiscussionMinSize {
		tags = append(tags, "active discussion")
	}
	if viral > viralCommentMin {
		tags = append(tags, "viral comments")
	}

	merged := make([]string, 0, len(keywords)+len(tags))
	seen := make(map[string]bool)
	for _, list := range [][]string{keywords, tags} {
		for _, k := range list {
			if seen[k] || len(merged) == maxEnhancedKeywords {
				continue
			}
			seen[k] = true
			merged = append(merged, k)
		}
	}
	return merged
}
