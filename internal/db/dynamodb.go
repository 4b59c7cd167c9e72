package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/commentpulse/internal/models"
)

const DefaultJobResultsTable = "job_results"

// ItemPutter is the single DynamoDB call the store needs.
type ItemPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ProcessedCache answers "was this (job, video) already stored" without a
// store round trip. Implementations are best-effort; a miss or a cache
// failure just falls through to the store's own key condition.
type ProcessedCache interface {
	IsPersisted(ctx context.Context, jobID, videoID string) bool
	MarkPersisted(ctx context.Context, jobID, videoID string) error
}

type ResultStore struct {
	client ItemPutter
	table  string
	cache  ProcessedCache
	now    func() time.Time
}

func NewResultStore(client ItemPutter, table string, cache ProcessedCache) *ResultStore {
	if table == "" {
		table = DefaultJobResultsTable
	}
	return &ResultStore{
		client: client,
		table:  table,
		cache:  cache,
		now:    time.Now,
	}
}

// storedRow is the job_results item layout. The summarizer's next_hot_topic
// doubles as the summary column; downstream readers query by that name.
type storedRow struct {
	JobID        string   `dynamodbav:"job_id"`
	VideoID      string   `dynamodbav:"video_id"`
	ChannelTitle string   `dynamodbav:"channel_title"`
	VideoTitle   string   `dynamodbav:"video_title"`
	ThumbnailURL string   `dynamodbav:"thumbnail_url"`
	Pros         []string `dynamodbav:"pros"`
	Cons         []string `dynamodbav:"cons"`
	NextHotTopic []string `dynamodbav:"next_hot_topic"`
	Summary      []string `dynamodbav:"summary"`
	CreatedAt    int64    `dynamodbav:"created_at"`
}

func rowFromResult(result models.AnalysisResult, createdAt time.Time) storedRow {
	return storedRow{
		JobID:        result.JobID,
		VideoID:      result.VideoID,
		ChannelTitle: result.ChannelTitle,
		VideoTitle:   result.VideoTitle,
		ThumbnailURL: result.ThumbnailURL,
		Pros:         result.Pros,
		Cons:         result.Cons,
		NextHotTopic: result.NextHotTopic,
		Summary:      result.NextHotTopic,
		CreatedAt:    createdAt.Unix(),
	}
}

// Persist writes one result row, at most once per (job_id, video_id). The
// table's key condition rejects duplicate writes; a rejected write means
// the row is already there and counts as success. A warm cache entry skips
// the round trip entirely.
func (s *ResultStore) Persist(ctx context.Context, result models.AnalysisResult) error {
	if s.cache != nil && s.cache.IsPersisted(ctx, result.JobID, result.VideoID) {
		slog.Debug("[ResultStore] Result already persisted, skipping",
			slog.String("job_id", result.JobID),
			slog.String("video_id", result.VideoID))
		return nil
	}

	item, err := attributevalue.MarshalMap(rowFromResult(result, s.now()))
	if err != nil {
		return fmt.Errorf("marshal job result: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(job_id) AND attribute_not_exists(video_id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			slog.Debug("[ResultStore] Row already exists, treating as stored",
				slog.String("job_id", result.JobID),
				slog.String("video_id", result.VideoID))
			s.markPersisted(ctx, result)
			return nil
		}
		return fmt.Errorf("put job result: %v: %w", err, models.ErrStoreUnavailable)
	}

	slog.Info("[ResultStore] Stored analysis result",
		slog.String("job_id", result.JobID),
		slog.String("video_id", result.VideoID))
	s.markPersisted(ctx, result)
	return nil
}

func (s *ResultStore) markPersisted(ctx context.Context, result models.AnalysisResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkPersisted(ctx, result.JobID, result.VideoID); err != nil {
		slog.Warn("[ResultStore] Failed to mark result in cache",
			slog.String("job_id", result.JobID),
			slog.String("video_id", result.VideoID),
			slog.String("error", err.Error()))
	}
}
