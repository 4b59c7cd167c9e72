package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spacesedan/commentpulse/internal/models"
)

const defaultVideoCount = 5

// Pipeline runs one analysis job end to end. The handler owns nothing but
// the HTTP translation around it.
type Pipeline interface {
	Analyze(ctx context.Context, job models.Job) (models.BatchAnalysisResponse, error)
	AnalyzeWithProgress(ctx context.Context, job models.Job, progress chan<- models.ProgressUpdate) (models.BatchAnalysisResponse, error)
}

// QuotaReporter tells how many upstream calls the current window still
// allows; surfaced on the health endpoint.
type QuotaReporter interface {
	Remaining() int
}

type AnalyzeHandler struct {
	pipeline Pipeline
	quota    QuotaReporter
}

func NewAnalyzeHandler(pipeline Pipeline, quota QuotaReporter) *AnalyzeHandler {
	return &AnalyzeHandler{pipeline: pipeline, quota: quota}
}

// Analyze handles GET /api/v1/analyze-youtube.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	job, err := jobFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.pipeline.Analyze(c.Request.Context(), job)
	if err != nil {
		status := statusForError(err)
		slog.Error("[Handler] Analysis request failed",
			slog.String("query", job.Query),
			slog.Int("status", status),
			slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// AnalyzeStream handles GET /api/v1/analyze-youtube-stream. Stage updates go
// out as "progress" events while the job runs; a single "result" or "error"
// event ends the stream. A disconnected client cancels the job through the
// request context.
func (h *AnalyzeHandler) AnalyzeStream(c *gin.Context) {
	job, err := jobFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	type outcome struct {
		response models.BatchAnalysisResponse
		err      error
	}

	updates := make(chan models.ProgressUpdate, 64)
	done := make(chan outcome, 1)

	ctx := c.Request.Context()
	go func() {
		response, err := h.pipeline.AnalyzeWithProgress(ctx, job, updates)
		done <- outcome{response: response, err: err}
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[Handler] Stream client went away",
				slog.String("query", job.Query))
			return
		case update := <-updates:
			c.SSEvent("progress", update)
			c.Writer.Flush()
		case result := <-done:
			// the job is finished, nothing writes to updates anymore
			for len(updates) > 0 {
				c.SSEvent("progress", <-updates)
			}
			if result.err != nil {
				slog.Error("[Handler] Streamed analysis failed",
					slog.String("query", job.Query),
					slog.String("error", result.err.Error()))
				c.SSEvent("error", gin.H{"error": result.err.Error()})
			} else {
				c.SSEvent("result", result.response)
			}
			c.Writer.Flush()
			return
		}
	}
}

// Health handles GET /health.
func (h *AnalyzeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"service":              "commentpulse",
		"rate_limit_remaining": h.quota.Remaining(),
	})
}

// jobFromQuery builds the job from request parameters. Range checks live in
// the pipeline; only values that cannot be parsed at all are rejected here.
func jobFromQuery(c *gin.Context) (models.Job, error) {
	job := models.Job{
		JobID:      c.Query("job_id"),
		Query:      strings.TrimSpace(c.Query("query")),
		VideoCount: defaultVideoCount,
	}

	if raw := c.Query("video_count"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return models.Job{}, fmt.Errorf("video_count %q is not a number: %w", raw, models.ErrInvalidParameter)
		}
		job.VideoCount = count
	}

	if raw := c.Query("filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Filters); err != nil {
			return models.Job{}, fmt.Errorf("filters is not a valid JSON object: %w", models.ErrInvalidParameter)
		}
	}

	return job, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNoVideosFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
