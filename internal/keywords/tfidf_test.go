package keywords

import (
	"reflect"
	"testing"

	"github.com/spacesedan/commentpulse/internal/models"
)

func TestExtractRanksRareTermsAboveCommonOnes(t *testing.T) {
	comments := []string{
		"battery lasts forever",
		"battery drains quickly",
		"screen looks great",
	}

	got := Extract(comments, "Phone Review", 5)

	// "battery" appears in two of three documents, so its score drops below
	// the single-document terms, which tie and fall back to lexicographic
	// order.
	want := []string{"drains", "forever", "great", "lasts", "looks"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractTermFrequencyBreaksScoreTies(t *testing.T) {
	comments := []string{
		"alpha alpha beta",
		"gamma",
	}

	got := Extract(comments, "", 3)

	// alpha: tf 2 in one of two docs; beta and gamma tie and sort
	// lexicographically.
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestExtractExcludesTitleAndStopWords(t *testing.T) {
	comments := []string{
		"please subscribe and watch this amazing video about the phone",
		"phone phone phone",
	}

	got := Extract(comments, "Phone Unboxing", 10)

	for _, term := range got {
		switch term {
		case "phone", "unboxing":
			t.Errorf("title token %q leaked into keywords %v", term, got)
		case "subscribe", "watch", "video", "the", "and", "this", "about":
			t.Errorf("stop word %q leaked into keywords %v", term, got)
		}
	}
	if len(got) == 0 {
		t.Fatal("expected at least one keyword from the remaining terms")
	}
}

func TestExtractBounds(t *testing.T) {
	comments := []string{
		"incredible editing and wonderful pacing throughout",
		"wonderful soundtrack",
	}

	for _, k := range []int{1, 2, 3, 10} {
		got := Extract(comments, "", k)
		if len(got) > k {
			t.Errorf("Extract with top_k=%d returned %d terms", k, len(got))
		}
	}

	if got := Extract(nil, "anything", 5); len(got) != 0 {
		t.Errorf("Extract with no comments = %v, want empty", got)
	}
	if got := Extract([]string{"", "   "}, "", 5); len(got) != 0 {
		t.Errorf("Extract with blank comments = %v, want empty", got)
	}
}

func TestExtractShorterListWhenFewDistinctTerms(t *testing.T) {
	got := Extract([]string{"minimal"}, "", 5)

	if len(got) != 1 || got[0] != "minimal" {
		t.Fatalf("Extract = %v, want [minimal]", got)
	}
}

func TestEnhanceAddsEngagementTags(t *testing.T) {
	comments := make([]models.Comment, 25)
	for i := range comments {
		comments[i] = models.Comment{Text: "c", LikeCount: 60}
	}

	got := Enhance([]string{"editing", "pacing"}, comments)

	want := []string{"editing", "pacing", "high engagement", "active discussion", "viral comments"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Enhance = %v, want %v", got, want)
	}
}

func TestEnhanceLeavesQuietVideosAlone(t *testing.T) {
	comments := []models.Comment{
		{Text: "nice", LikeCount: 1},
		{Text: "ok", LikeCount: 0},
	}

	got := Enhance([]string{"editing"}, comments)

	if !reflect.DeepEqual(got, []string{"editing"}) {
		t.Fatalf("Enhance = %v, want [editing]", got)
	}
}

func TestEnhanceEmptyCommentsUnchanged(t *testing.T) {
	keywords := []string{"editing"}

	if got := Enhance(keywords, nil); !reflect.DeepEqual(got, keywords) {
		t.Fatalf("Enhance = %v, want %v", got, keywords)
	}
}

func TestEnhanceDeduplicatesAndCaps(t *testing.T) {
	comments := make([]models.Comment, 25)
	for i := range comments {
		comments[i] = models.Comment{Text: "c", LikeCount: 60}
	}
	keywords := []string{"high engagement", "k1", "k2", "k3", "k4", "k5", "k6", "k7", "k8", "k9"}

	got := Enhance(keywords, comments)

	if len(got) > 10 {
		t.Fatalf("Enhance returned %d entries, cap is 10", len(got))
	}
	seen := map[string]int{}
	for _, k := range got {
		seen[k]++
		if seen[k] > 1 {
			t.Fatalf("duplicate entry %q in %v", k, got)
		}
	}
}
