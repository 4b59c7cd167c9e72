package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/commentpulse/internal/models"
)

const DefaultMaxPerMinute = 60

// Mode selects what Acquire does when the window is full.
type Mode int

const (
	// ModeWait parks the caller until a slot frees.
	ModeWait Mode = iota
	// ModeReject fails the caller immediately with ErrQuotaExceeded.
	ModeReject
)

// ParseMode reads a mode name from configuration; anything but "reject"
// means wait.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "reject") {
		return ModeReject
	}
	return ModeWait
}

// Limiter bounds calls to a quota-limited upstream: at any instant, at most
// max grants exist inside the trailing window. This holds strictly, there is
// no burst allowance after an idle stretch.
//
// One Limiter instance is shared by everything that spends the same quota;
// it is passed to its users explicitly, never held as package state.
type Limiter struct {
	mu     sync.Mutex
	max    int
	mode   Mode
	window time.Duration
	grants []time.Time
	now    func() time.Time
}

// New returns a wait-mode limiter allowing maxPerMinute grants per rolling
// minute.
func New(maxPerMinute int) *Limiter {
	return newLimiter(maxPerMinute, time.Minute)
}

// NewWithMode is New with an explicit full-window behavior.
func NewWithMode(maxPerMinute int, mode Mode) *Limiter {
	l := newLimiter(maxPerMinute, time.Minute)
	l.mode = mode
	return l
}

func newLimiter(max int, window time.Duration) *Limiter {
	if max <= 0 {
		max = DefaultMaxPerMinute
	}
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Acquire takes one slot using the limiter's configured mode.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.mode == ModeReject {
		return l.TryAcquire()
	}
	return l.Wait(ctx)
}

// Wait blocks until a slot frees or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		granted, retryIn := l.tryGrant()
		if granted {
			return nil
		}
		if retryIn <= 0 {
			retryIn = time.Millisecond
		}

		timer := time.NewTimer(retryIn)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire grants a slot immediately or fails with ErrQuotaExceeded.
func (l *Limiter) TryAcquire() error {
	granted, _ := l.tryGrant()
	if !granted {
		return fmt.Errorf("limit of %d requests per window reached: %w", l.max, models.ErrQuotaExceeded)
	}
	return nil
}

// Remaining reports how many grants are left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(l.now())
	return l.max - len(l.grants)
}

// tryGrant reports whether a slot was taken; when it was not, it returns
// how long until the oldest grant leaves the window.
func (l *Limiter) tryGrant() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.grants) < l.max {
		l.grants = append(l.grants, now)
		return true, 0
	}
	return false, l.grants[0].Add(l.window).Sub(now)
}

// prune drops grants that have aged out of the trailing window. Grants are
// appended in mutex order, so the slice stays sorted.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.grants = append(l.grants[:0], l.grants[i:]...)
	}
}
