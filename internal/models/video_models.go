package models

import (
	"fmt"
	"time"
)

type SearchFilters struct {
	UploadDate string `json:"upload_date,omitempty"`
	Duration   string `json:"duration,omitempty"`
	SortBy     string `json:"sort_by,omitempty"`
	Language   string `json:"language,omitempty"`
}

var (
	validUploadDates = map[string]bool{"hour": true, "today": true, "week": true, "month": true, "year": true}
	validDurations   = map[string]bool{"short": true, "medium": true, "long": true}
	validSortOrders  = map[string]bool{"relevance": true, "date": true, "viewCount": true, "rating": true}
)

// Validate rejects filter values outside the supported enumerations. Empty
// fields mean "no filter" and always pass.
func (f SearchFilters) Validate() error {
	if f.UploadDate != "" && !validUploadDates[f.UploadDate] {
		return fmt.Errorf("unsupported upload_date %q: %w", f.UploadDate, ErrInvalidParameter)
	}
	if f.Duration != "" && !validDurations[f.Duration] {
		return fmt.Errorf("unsupported duration %q: %w", f.Duration, ErrInvalidParameter)
	}
	if f.SortBy != "" && !validSortOrders[f.SortBy] {
		return fmt.Errorf("unsupported sort_by %q: %w", f.SortBy, ErrInvalidParameter)
	}
	return nil
}

type VideoRecord struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channel_title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishedAt  time.Time `json:"published_at"`
	ViewCount    uint64    `json:"view_count"`
	CommentCount uint64    `json:"comment_count"`
}

type VideoStats struct {
	ViewCount    uint64 `json:"view_count"`
	CommentCount uint64 `json:"comment_count"`
}

type Comment struct {
	Text      string `json:"text"`
	Author    string `json:"author"`
	LikeCount int64  `json:"like_count"`
}
