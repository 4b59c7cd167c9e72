package models

import "errors"

// Pipeline error taxonomy. Callers classify failures with errors.Is; the
// concrete cause is carried in the wrapping message.
var (
	// ErrInvalidParameter means bad caller input, rejected before any
	// network call is made.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrQuotaExceeded means the request budget for the current window is
	// spent, either locally (rate limiter in reject mode) or upstream.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrUpstreamUnavailable is a transient VideoSource failure, retried
	// once and then isolated to the affected video.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrSummaryParse means the language model reply was not the expected
	// JSON object; retried once, then the video is degraded, not dropped.
	ErrSummaryParse = errors.New("summary parse failure")

	// ErrStoreUnavailable is a persistence failure, surfaced on the
	// affected video without aborting its siblings.
	ErrStoreUnavailable = errors.New("result store unavailable")

	// ErrInvalidCredentials is an upstream authentication failure and is
	// batch-fatal.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoVideosFound means the search matched nothing.
	ErrNoVideosFound = errors.New("no videos found")
)
