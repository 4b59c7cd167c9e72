package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/spacesedan/commentpulse/internal/models"
)

// ErrNoMoreComments ends iteration; it is never surfaced to callers of
// Collect.
var ErrNoMoreComments = errors.New("no more comments")

// CommentIterator walks one video's comment pages lazily. Every page fetch
// takes a limiter permit first, so a video whose consumer stops early never
// spends quota on pages it did not read. The iterator is not restartable:
// once drained or failed it stays exhausted.
type CommentIterator struct {
	source  VideoSource
	limiter Limiter
	videoID string
	ctx     context.Context

	max     int
	timeout time.Duration

	buf       []models.Comment
	pos       int
	pageToken string
	returned  int
	started   bool
	done      bool
}

func NewCommentIterator(ctx context.Context, source VideoSource, limiter Limiter, videoID string, maxComments int, fetchTimeout time.Duration) *CommentIterator {
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}
	return &CommentIterator{
		source:  source,
		limiter: limiter,
		videoID: videoID,
		ctx:     ctx,
		max:     maxComments,
		timeout: fetchTimeout,
	}
}

// Next returns the next comment, fetching a page on demand. Iteration ends
// with ErrNoMoreComments at the comment cap or when the source has no
// further pages.
func (it *CommentIterator) Next() (models.Comment, error) {
	for {
		if it.done || it.returned >= it.max {
			it.done = true
			return models.Comment{}, ErrNoMoreComments
		}
		if it.pos < len(it.buf) {
			comment := it.buf[it.pos]
			it.pos++
			it.returned++
			return comment, nil
		}
		if it.started && it.pageToken == "" {
			it.done = true
			return models.Comment{}, ErrNoMoreComments
		}
		if err := it.fetchPage(); err != nil {
			it.done = true
			return models.Comment{}, err
		}
	}
}

func (it *CommentIterator) fetchPage() error {
	if err := it.limiter.Acquire(it.ctx); err != nil {
		return err
	}

	fetchCtx := it.ctx
	if it.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(it.ctx, it.timeout)
		defer cancel()
	}

	comments, next, err := it.source.ListComments(fetchCtx, it.videoID, it.pageToken)
	if err != nil {
		return err
	}
	it.started = true
	it.buf = comments
	it.pos = 0
	it.pageToken = next
	return nil
}

// Collect drains the iterator. An empty video (or one with comments turned
// off) collects to an empty slice, not an error.
func (it *CommentIterator) Collect() ([]models.Comment, error) {
	comments := make([]models.Comment, 0, it.max)
	for {
		comment, err := it.Next()
		if errors.Is(err, ErrNoMoreComments) {
			return comments, nil
		}
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
}
