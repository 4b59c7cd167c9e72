package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/spacesedan/commentpulse/internal/models"
)

var (
	youtubeInstance *YouTubeClient
	youtubeOnce     sync.Once
)

// commentsPageSize is the API maximum for a single commentThreads page.
const commentsPageSize = 100

// uploadDateWindows translates the upload_date filter into how far back
// publishedAfter reaches from now.
var uploadDateWindows = map[string]time.Duration{
	"hour":  time.Hour,
	"today": 24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

type YouTubeClient struct {
	service *ytapi.Service
}

// InitYouTube builds the shared Data API client once. The API key comes
// from YOUTUBE_API_KEY; a missing key or a failed service build is fatal.
func InitYouTube(ctx context.Context) *YouTubeClient {
	youtubeOnce.Do(func() {
		apiKey := os.Getenv("YOUTUBE_API_KEY")
		if apiKey == "" {
			slog.Error("[YouTubeClient] Missing YOUTUBE_API_KEY in environment variables")
			panic("[YouTubeClient] Missing YOUTUBE_API_KEY in environment variables")
		}

		client, err := newYouTubeClient(ctx, apiKey)
		if err != nil {
			slog.Error("[YouTubeClient] Failed to create YouTube service",
				slog.String("error", err.Error()))
			panic(fmt.Errorf("[YouTubeClient] failed to create YouTube service: %w", err))
		}

		youtubeInstance = client
		slog.Info("[YouTubeClient] YouTube client initialized",
			slog.Duration("timeout", youtubeRequestTimeout))
	})
	return youtubeInstance
}

// newYouTubeClient wires the Data API service. A caller-supplied HTTP
// client suppresses the option-installed credentials, so the API key is
// mounted on the client's own RoundTripper rather than option.WithAPIKey.
func newYouTubeClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeClient, error) {
	httpClient := &http.Client{
		Timeout:   youtubeRequestTimeout,
		Transport: &transport.APIKey{Key: apiKey},
	}

	service, err := ytapi.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)...)
	if err != nil {
		return nil, err
	}
	service.UserAgent = USER_AGENT

	return &YouTubeClient{service: service}, nil
}

func GetYouTubeClient() *YouTubeClient {
	if youtubeInstance == nil {
		panic("[YouTubeClient] Error: YouTube client is not initialized")
	}
	return youtubeInstance
}

// Search runs a video search and maps each hit into a VideoRecord. The
// returned records carry no statistics yet; VideoStats fills those in.
func (yc *YouTubeClient) Search(ctx context.Context, query string, maxResults int64, filters models.SearchFilters) ([]models.VideoRecord, error) {
	call := yc.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(maxResults)

	if window, ok := uploadDateWindows[filters.UploadDate]; ok {
		call = call.PublishedAfter(time.Now().UTC().Add(-window).Format(time.RFC3339))
	}
	if filters.Duration != "" {
		call = call.VideoDuration(filters.Duration)
	}
	if filters.SortBy != "" {
		call = call.Order(filters.SortBy)
	}
	if filters.Language != "" {
		call = call.RelevanceLanguage(filters.Language)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classifySearchError(err)
	}

	videos := make([]models.VideoRecord, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}

		publishedAt, parseErr := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if parseErr != nil {
			slog.Warn("[YouTubeClient] Unparseable publish date",
				slog.String("video_id", item.Id.VideoId),
				slog.String("published_at", item.Snippet.PublishedAt))
		}

		videos = append(videos, models.VideoRecord{
			VideoID:      item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
			PublishedAt:  publishedAt,
		})
	}

	slog.Debug("[YouTubeClient] Search completed",
		slog.String("query", query),
		slog.Int("results", len(videos)))
	return videos, nil
}

// VideoStats fetches view and comment counts for up to 50 video ids in a
// single statistics call, keyed by video id.
func (yc *YouTubeClient) VideoStats(ctx context.Context, videoIDs []string) (map[string]models.VideoStats, error) {
	if len(videoIDs) == 0 {
		return map[string]models.VideoStats{}, nil
	}

	resp, err := yc.service.Videos.List([]string{"statistics"}).
		Id(videoIDs...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classifySearchError(err)
	}

	stats := make(map[string]models.VideoStats, len(resp.Items))
	for _, item := range resp.Items {
		if item.Statistics == nil {
			continue
		}
		stats[item.Id] = models.VideoStats{
			ViewCount:    item.Statistics.ViewCount,
			CommentCount: item.Statistics.CommentCount,
		}
	}
	return stats, nil
}

// ListComments returns one page of top-level comments ordered by relevance,
// plus the token for the next page ("" when exhausted). A video with
// comments turned off yields an empty page and no error.
func (yc *YouTubeClient) ListComments(ctx context.Context, videoID, pageToken string) ([]models.Comment, string, error) {
	call := yc.service.CommentThreads.List([]string{"snippet"}).
		VideoId(videoID).
		MaxResults(commentsPageSize).
		Order("relevance").
		TextFormat("plainText")
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		if commentsDisabled(err) {
			slog.Warn("[YouTubeClient] Comments disabled for video",
				slog.String("video_id", videoID))
			return nil, "", nil
		}
		return nil, "", classifyCommentsError(err)
	}

	comments := make([]models.Comment, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
			continue
		}
		snippet := item.Snippet.TopLevelComment.Snippet
		comments = append(comments, models.Comment{
			Text:      snippet.TextDisplay,
			Author:    snippet.AuthorDisplayName,
			LikeCount: snippet.LikeCount,
		})
	}
	return comments, resp.NextPageToken, nil
}

// thumbnailURL prefers the medium rendition and falls back to default.
func thumbnailURL(thumbnails *ytapi.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}
	if thumbnails.Medium != nil && thumbnails.Medium.Url != "" {
		return thumbnails.Medium.Url
	}
	if thumbnails.Default != nil {
		return thumbnails.Default.Url
	}
	return ""
}

// classifySearchError maps Data API failures onto the pipeline error
// taxonomy. A 403 normally means a bad or expired key, but the API also
// reports daily quota exhaustion as 403 with a quota reason.
func classifySearchError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("youtube request failed: %v: %w", err, models.ErrUpstreamUnavailable)
	}

	switch {
	case apiErr.Code == http.StatusBadRequest:
		return fmt.Errorf("youtube rejected the request: %v: %w", apiErr.Message, models.ErrInvalidParameter)
	case apiErr.Code == http.StatusForbidden && hasQuotaReason(apiErr):
		return fmt.Errorf("youtube quota exhausted: %w", models.ErrQuotaExceeded)
	case apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("youtube API key invalid or expired: %w", models.ErrInvalidCredentials)
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("youtube quota exceeded: %w", models.ErrQuotaExceeded)
	default:
		return fmt.Errorf("youtube API error %d: %v: %w", apiErr.Code, apiErr.Message, models.ErrUpstreamUnavailable)
	}
}

// classifyCommentsError treats every comment-stage failure as transient so
// it stays isolated to the affected video.
func classifyCommentsError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("youtube comments error %d: %v: %w", apiErr.Code, apiErr.Message, models.ErrUpstreamUnavailable)
	}
	return fmt.Errorf("youtube comments request failed: %v: %w", err, models.ErrUpstreamUnavailable)
}

func commentsDisabled(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusForbidden {
		return false
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "commentsDisabled" {
			return true
		}
	}
	return false
}

func hasQuotaReason(apiErr *googleapi.Error) bool {
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return false
}
