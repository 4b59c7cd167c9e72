package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spacesedan/commentpulse/internal/keywords"
	"github.com/spacesedan/commentpulse/internal/models"
	"github.com/spacesedan/commentpulse/internal/sentiment"
)

// Collaborator contracts. The orchestrator sees its transports only through
// these, so tests can substitute deterministic fakes.
type (
	// VideoSource is the quota-limited video platform boundary.
	VideoSource interface {
		Search(ctx context.Context, query string, maxResults int64, filters models.SearchFilters) ([]models.VideoRecord, error)
		VideoStats(ctx context.Context, videoIDs []string) (map[string]models.VideoStats, error)
		ListComments(ctx context.Context, videoID, pageToken string) ([]models.Comment, string, error)
	}

	// Summarizer turns one video's comments into pros/cons/next-topic lists.
	Summarizer interface {
		Summarize(ctx context.Context, title, channelTitle string, comments []string) (models.VideoSummary, error)
	}

	// ResultStore persists one row per (job, video), exactly once.
	ResultStore interface {
		Persist(ctx context.Context, result models.AnalysisResult) error
	}

	// Limiter hands out permits for calls against the shared upstream
	// quota. One instance is shared by every worker of a pipeline.
	Limiter interface {
		Acquire(ctx context.Context) error
	}
)

const (
	MinVideoCount = 1
	MaxVideoCount = 50

	DefaultMaxComments      = 100
	DefaultTopKeywords      = 5
	DefaultWorkers          = 4
	DefaultRetryBackoff     = time.Second
	DefaultFetchTimeout     = 30 * time.Second
	DefaultSummarizeTimeout = 60 * time.Second
)

type Options struct {
	MaxComments      int
	TopKeywords      int
	Workers          int
	RetryBackoff     time.Duration
	FetchTimeout     time.Duration
	SummarizeTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxComments <= 0 {
		o.MaxComments = DefaultMaxComments
	}
	if o.TopKeywords <= 0 {
		o.TopKeywords = DefaultTopKeywords
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.SummarizeTimeout <= 0 {
		o.SummarizeTimeout = DefaultSummarizeTimeout
	}
	return o
}

// Orchestrator runs one analysis job end to end: search, then a bounded
// fan-out of per-video fetch/classify/summarize/persist work. Failures stay
// isolated to their video; only bad input and upstream auth failure abort a
// batch.
type Orchestrator struct {
	source     VideoSource
	summarizer Summarizer
	store      ResultStore
	limiter    Limiter
	opts       Options
}

func NewOrchestrator(source VideoSource, summarizer Summarizer, store ResultStore, limiter Limiter, opts Options) *Orchestrator {
	return &Orchestrator{
		source:     source,
		summarizer: summarizer,
		store:      store,
		limiter:    limiter,
		opts:       opts.withDefaults(),
	}
}

// Analyze validates the job, finds its videos and analyzes them. The
// returned results are ordered like the search results regardless of which
// video finished first, one entry per video found.
func (o *Orchestrator) Analyze(ctx context.Context, job models.Job) (models.BatchAnalysisResponse, error) {
	return o.analyze(ctx, job, nil)
}

// AnalyzeWithProgress is Analyze with stage updates sent on progress as
// they happen. Sends never block: a slow consumer misses updates instead of
// stalling the pipeline. The channel is never closed here; it belongs to
// the caller.
func (o *Orchestrator) AnalyzeWithProgress(ctx context.Context, job models.Job, progress chan<- models.ProgressUpdate) (models.BatchAnalysisResponse, error) {
	return o.analyze(ctx, job, progress)
}

func (o *Orchestrator) analyze(ctx context.Context, job models.Job, progress chan<- models.ProgressUpdate) (models.BatchAnalysisResponse, error) {
	start := time.Now()

	if err := validateJob(job); err != nil {
		return models.BatchAnalysisResponse{}, err
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	slog.Info("[Orchestrator] Starting analysis job",
		slog.String("job_id", job.JobID),
		slog.String("query", job.Query),
		slog.Int("video_count", job.VideoCount))

	emit(progress, models.ProgressUpdate{
		JobID: job.JobID,
		Stage: models.StageSearching,
		Total: job.VideoCount,
	})

	videos, err := o.searchVideos(ctx, job)
	if err != nil {
		return models.BatchAnalysisResponse{}, err
	}
	o.enrichStats(ctx, videos)

	results := make([]models.AnalysisResult, len(videos))

	workers := o.opts.Workers
	if workers > len(videos) {
		workers = len(videos)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				results[idx] = o.analyzeVideo(ctx, job, videos[idx], idx, len(videos), progress)
			}
		}()
	}
	for idx := range videos {
		indexes <- idx
	}
	close(indexes)
	wg.Wait()

	response := assembleResponse(job, results, time.Since(start))

	emit(progress, models.ProgressUpdate{
		JobID: job.JobID,
		Stage: models.StageDone,
		Total: len(videos),
	})

	slog.Info("[Orchestrator] Analysis job finished",
		slog.String("job_id", job.JobID),
		slog.Int("videos", response.TotalProcessed),
		slog.Int("successful", response.SuccessfulAnalyses),
		slog.Int("failed", response.FailedAnalyses),
		slog.Duration("elapsed", time.Since(start)))

	return response, nil
}

func validateJob(job models.Job) error {
	if strings.TrimSpace(job.Query) == "" {
		return fmt.Errorf("query must not be empty: %w", models.ErrInvalidParameter)
	}
	if job.VideoCount < MinVideoCount || job.VideoCount > MaxVideoCount {
		return fmt.Errorf("video_count %d outside %d..%d: %w",
			job.VideoCount, MinVideoCount, MaxVideoCount, models.ErrInvalidParameter)
	}
	return job.Filters.Validate()
}

func (o *Orchestrator) searchVideos(ctx context.Context, job models.Job) ([]models.VideoRecord, error) {
	if err := o.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	defer cancel()

	videos, err := o.source.Search(searchCtx, job.Query, int64(job.VideoCount), job.Filters)
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no videos matched query %q: %w", job.Query, models.ErrNoVideosFound)
	}
	if len(videos) > job.VideoCount {
		videos = videos[:job.VideoCount]
	}
	return videos, nil
}

// enrichStats fills view and comment counts in place. Stats are garnish on
// the response; a failed lookup is logged and the job carries on.
func (o *Orchestrator) enrichStats(ctx context.Context, videos []models.VideoRecord) {
	if err := o.limiter.Acquire(ctx); err != nil {
		slog.Warn("[Orchestrator] Skipping stats enrichment",
			slog.String("error", err.Error()))
		return
	}

	statsCtx, cancel := context.WithTimeout(ctx, o.opts.FetchTimeout)
	defer cancel()

	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.VideoID
	}

	stats, err := o.source.VideoStats(statsCtx, ids)
	if err != nil {
		slog.Warn("[Orchestrator] Stats lookup failed, continuing without counts",
			slog.String("error", err.Error()))
		return
	}
	for i := range videos {
		if s, ok := stats[videos[i].VideoID]; ok {
			videos[i].ViewCount = s.ViewCount
			videos[i].CommentCount = s.CommentCount
		}
	}
}

// analyzeVideo runs the per-video pipeline. Each stage failure is confined
// to this video's result; a cancelled context abandons the video before
// anything is persisted.
func (o *Orchestrator) analyzeVideo(ctx context.Context, job models.Job, video models.VideoRecord, index, total int, progress chan<- models.ProgressUpdate) models.AnalysisResult {
	result := models.AnalysisResult{
		JobID:        job.JobID,
		VideoID:      video.VideoID,
		ChannelTitle: video.ChannelTitle,
		VideoTitle:   video.Title,
		ThumbnailURL: video.ThumbnailURL,
		Pros:         []string{},
		Cons:         []string{},
		NextHotTopic: []string{},
		TopKeywords:  []string{},
		Status:       models.StatusOK,
	}

	emit(progress, progressFor(job.JobID, video, index, total, models.StageFetchingComments))

	comments, err := o.fetchComments(ctx, video.VideoID)
	if err != nil {
		slog.Error("[Orchestrator] Comment fetch failed",
			slog.String("job_id", job.JobID),
			slog.String("video_id", video.VideoID),
			slog.String("error", err.Error()))
		return failResult(result, err, progress, index, total, video)
	}

	emit(progress, progressFor(job.JobID, video, index, total, models.StageAnalyzing))

	texts := commentTexts(comments)
	labels := make([]sentiment.Label, len(texts))
	for i, text := range texts {
		labels[i] = sentiment.Classify(text)
	}
	result.SentimentSummary = sentiment.Summarize(labels)
	result.TopKeywords = keywords.Enhance(keywords.Extract(texts, video.Title, o.opts.TopKeywords), comments)

	emit(progress, progressFor(job.JobID, video, index, total, models.StageSummarizing))

	summary, err := o.summarize(ctx, video, texts)
	if err != nil {
		slog.Warn("[Orchestrator] Summary degraded for video",
			slog.String("job_id", job.JobID),
			slog.String("video_id", video.VideoID),
			slog.String("error", err.Error()))
		result.Status = models.StatusDegraded
		result.Error = err.Error()
	} else {
		result.Pros = summary.Pros
		result.Cons = summary.Cons
		result.NextHotTopic = summary.NextHotTopic
	}

	if ctx.Err() != nil {
		return failResult(result, ctx.Err(), progress, index, total, video)
	}

	emit(progress, progressFor(job.JobID, video, index, total, models.StagePersisting))

	if err := o.store.Persist(ctx, result); err != nil {
		slog.Error("[Orchestrator] Persist failed",
			slog.String("job_id", job.JobID),
			slog.String("video_id", video.VideoID),
			slog.String("error", err.Error()))
		return failResult(result, err, progress, index, total, video)
	}

	update := progressFor(job.JobID, video, index, total, models.StageDone)
	update.Status = result.Status
	emit(progress, update)

	return result
}

// fetchComments collects up to the comment cap, retrying the whole fetch
// once on a transient failure. The iterator is single-use, so the retry
// starts over with a fresh one.
func (o *Orchestrator) fetchComments(ctx context.Context, videoID string) ([]models.Comment, error) {
	comments, err := NewCommentIterator(ctx, o.source, o.limiter, videoID, o.opts.MaxComments, o.opts.FetchTimeout).Collect()
	if err == nil {
		return comments, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	slog.Warn("[Orchestrator] Retrying comment fetch",
		slog.String("video_id", videoID),
		slog.String("error", err.Error()))
	if err := sleepContext(ctx, o.opts.RetryBackoff); err != nil {
		return nil, err
	}
	return NewCommentIterator(ctx, o.source, o.limiter, videoID, o.opts.MaxComments, o.opts.FetchTimeout).Collect()
}

// summarize calls the model once, and once more after a failure. A reply
// that still cannot be parsed degrades the video rather than dropping it.
func (o *Orchestrator) summarize(ctx context.Context, video models.VideoRecord, texts []string) (models.VideoSummary, error) {
	summary, err := o.summarizeOnce(ctx, video, texts)
	if err == nil {
		return summary, nil
	}
	if ctx.Err() != nil {
		return models.VideoSummary{}, err
	}

	slog.Warn("[Orchestrator] Retrying summary",
		slog.String("video_id", video.VideoID),
		slog.String("error", err.Error()))
	if err := sleepContext(ctx, o.opts.RetryBackoff); err != nil {
		return models.VideoSummary{}, err
	}
	return o.summarizeOnce(ctx, video, texts)
}

func (o *Orchestrator) summarizeOnce(ctx context.Context, video models.VideoRecord, texts []string) (models.VideoSummary, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.SummarizeTimeout)
	defer cancel()
	return o.summarizer.Summarize(callCtx, video.Title, video.ChannelTitle, texts)
}

func commentTexts(comments []models.Comment) []string {
	texts := make([]string, len(comments))
	for i, c := range comments {
		texts[i] = c.Text
	}
	return texts
}

func failResult(result models.AnalysisResult, err error, progress chan<- models.ProgressUpdate, index, total int, video models.VideoRecord) models.AnalysisResult {
	result.Status = models.StatusFailed
	result.Error = err.Error()

	update := progressFor(result.JobID, video, index, total, models.StageDone)
	update.Status = models.StatusFailed
	update.Error = err.Error()
	emit(progress, update)

	return result
}

func assembleResponse(job models.Job, results []models.AnalysisResult, elapsed time.Duration) models.BatchAnalysisResponse {
	response := models.BatchAnalysisResponse{
		JobID:                 job.JobID,
		Query:                 job.Query,
		Results:               results,
		TotalProcessed:        len(results),
		ProcessingTimeSeconds: elapsed.Seconds(),
	}
	for _, r := range results {
		if r.Status == models.StatusFailed {
			response.FailedAnalyses++
		} else {
			response.SuccessfulAnalyses++
		}
	}
	return response
}

func progressFor(jobID string, video models.VideoRecord, index, total int, stage models.ProgressStage) models.ProgressUpdate {
	return models.ProgressUpdate{
		JobID:      jobID,
		VideoID:    video.VideoID,
		VideoTitle: video.Title,
		Index:      index,
		Total:      total,
		Stage:      stage,
	}
}

// emit drops the update when nobody is ready to receive; progress is
// advisory, not load-bearing.
func emit(progress chan<- models.ProgressUpdate, update models.ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
