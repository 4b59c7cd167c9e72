package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spacesedan/commentpulse/internal/models"
)

func TestIteratorCollectJoinsPagesInOrder(t *testing.T) {
	source := &fakeSource{
		comments: map[string][][]models.Comment{
			"v1": {
				commentPage("first", "second"),
				commentPage("third", "fourth"),
				commentPage("fifth"),
			},
		},
	}
	limiter := &countingLimiter{}

	it := NewCommentIterator(context.Background(), source, limiter, "v1", 100, time.Second)
	comments, err := it.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	want := []string{"first", "second", "third", "fourth", "fifth"}
	if len(comments) != len(want) {
		t.Fatalf("collected %d comments, want %d", len(comments), len(want))
	}
	for i, text := range want {
		if comments[i].Text != text {
			t.Errorf("comments[%d] = %q, want %q", i, comments[i].Text, text)
		}
	}
	if limiter.granted() != 3 {
		t.Errorf("limiter granted %d permits, want one per page fetched (3)", limiter.granted())
	}
	if source.listCalls["v1"] != 3 {
		t.Errorf("source fetched %d pages, want 3", source.listCalls["v1"])
	}
}

func TestIteratorFetchesNothingUntilFirstNext(t *testing.T) {
	source := &fakeSource{
		comments: map[string][][]models.Comment{"v1": {commentPage("a")}},
	}
	limiter := &countingLimiter{}

	it := NewCommentIterator(context.Background(), source, limiter, "v1", 100, time.Second)
	if source.listCalls["v1"] != 0 || limiter.granted() != 0 {
		t.Fatal("constructing an iterator must not touch the source")
	}

	if _, err := it.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if source.listCalls["v1"] != 1 {
		t.Errorf("source fetched %d pages after one Next, want 1", source.listCalls["v1"])
	}
}

func TestIteratorStopsAtCapWithoutFetchingFurtherPages(t *testing.T) {
	source := &fakeSource{
		comments: map[string][][]models.Comment{
			"v1": {
				commentPage("a", "b"),
				commentPage("c", "d"),
				commentPage("e", "f"),
				commentPage("g", "h"),
			},
		},
	}
	limiter := &countingLimiter{}

	it := NewCommentIterator(context.Background(), source, limiter, "v1", 3, time.Second)
	comments, err := it.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if len(comments) != 3 {
		t.Fatalf("collected %d comments, want the cap of 3", len(comments))
	}
	if source.listCalls["v1"] != 2 {
		t.Errorf("source fetched %d pages, want 2; the cap must stop paging early", source.listCalls["v1"])
	}
	if limiter.granted() != 2 {
		t.Errorf("limiter granted %d permits, want 2", limiter.granted())
	}
}

func TestIteratorEmptyVideoCollectsToEmptySlice(t *testing.T) {
	source := &fakeSource{
		comments: map[string][][]models.Comment{"v1": {}},
	}
	limiter := &countingLimiter{}

	it := NewCommentIterator(context.Background(), source, limiter, "v1", 100, time.Second)
	comments, err := it.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if comments == nil {
		t.Fatal("Collect returned nil, want an empty slice")
	}
	if len(comments) != 0 {
		t.Fatalf("collected %d comments from an empty video", len(comments))
	}
	if limiter.granted() != 1 {
		t.Errorf("limiter granted %d permits, want 1 for the single probe", limiter.granted())
	}
}

func TestIteratorPropagatesSourceErrors(t *testing.T) {
	source := &fakeSource{
		commentsErr: map[string]error{
			"v1": fmt.Errorf("youtube comments error 503: %w", models.ErrUpstreamUnavailable),
		},
	}

	it := NewCommentIterator(context.Background(), source, &countingLimiter{}, "v1", 100, time.Second)
	comments, err := it.Collect()
	if !errors.Is(err, models.ErrUpstreamUnavailable) {
		t.Fatalf("want ErrUpstreamUnavailable, got %v", err)
	}
	if comments != nil {
		t.Errorf("got %d comments alongside an error", len(comments))
	}
}

func TestIteratorStaysExhausted(t *testing.T) {
	source := &fakeSource{
		comments: map[string][][]models.Comment{"v1": {commentPage("only")}},
	}
	limiter := &countingLimiter{}

	it := NewCommentIterator(context.Background(), source, limiter, "v1", 100, time.Second)
	if _, err := it.Collect(); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	callsAfterDrain := source.listCalls["v1"]

	// New pages appearing upstream must not revive a drained iterator.
	source.mu.Lock()
	source.comments["v1"] = append(source.comments["v1"], commentPage("late arrival"))
	source.mu.Unlock()

	if _, err := it.Next(); !errors.Is(err, ErrNoMoreComments) {
		t.Fatalf("Next after drain = %v, want ErrNoMoreComments", err)
	}
	if source.listCalls["v1"] != callsAfterDrain {
		t.Error("exhausted iterator fetched another page")
	}
}

func TestIteratorStopsOnCancelledContext(t *testing.T) {
	source := &fakeSource{
		comments: map[string][][]models.Comment{"v1": {commentPage("a")}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it := NewCommentIterator(ctx, source, &countingLimiter{}, "v1", 100, time.Second)
	if _, err := it.Next(); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next = %v, want context.Canceled", err)
	}
	if source.listCalls["v1"] != 0 {
		t.Error("page was fetched despite the cancelled context")
	}
}

func TestIteratorNeedsAPermitBeforeFetching(t *testing.T) {
	source := &fakeSource{
		comments: map[string][][]models.Comment{"v1": {commentPage("a")}},
	}
	limiter := &countingLimiter{err: models.ErrQuotaExceeded}

	it := NewCommentIterator(context.Background(), source, limiter, "v1", 100, time.Second)
	if _, err := it.Next(); !errors.Is(err, models.ErrQuotaExceeded) {
		t.Fatalf("Next = %v, want ErrQuotaExceeded", err)
	}
	if source.listCalls["v1"] != 0 {
		t.Error("page was fetched without a limiter permit")
	}
}
