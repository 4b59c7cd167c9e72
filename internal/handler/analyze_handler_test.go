package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"github.com/spacesedan/commentpulse/internal/models"
)

type fakePipeline struct {
	response models.BatchAnalysisResponse
	err      error
	updates  []models.ProgressUpdate

	calls  int
	gotJob models.Job
}

func (f *fakePipeline) Analyze(_ context.Context, job models.Job) (models.BatchAnalysisResponse, error) {
	f.calls++
	f.gotJob = job
	return f.response, f.err
}

func (f *fakePipeline) AnalyzeWithProgress(_ context.Context, job models.Job, progress chan<- models.ProgressUpdate) (models.BatchAnalysisResponse, error) {
	f.calls++
	f.gotJob = job
	for _, update := range f.updates {
		progress <- update
	}
	return f.response, f.err
}

type fakeQuota struct{ remaining int }

func (f fakeQuota) Remaining() int { return f.remaining }

func newTestRouter(p Pipeline, q QuotaReporter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAnalyzeHandler(p, q)
	r.GET("/api/v1/analyze-youtube", h.Analyze)
	r.GET("/api/v1/analyze-youtube-stream", h.AnalyzeStream)
	r.GET("/health", h.Health)
	return r
}

func analyzeURL(params url.Values) string {
	return "/api/v1/analyze-youtube?" + params.Encode()
}

func TestAnalyze_ReturnsBatchResponse(t *testing.T) {
	pipeline := &fakePipeline{
		response: models.BatchAnalysisResponse{
			JobID:              "job-1",
			Query:              "go tutorials",
			Results:            []models.AnalysisResult{{VideoID: "v1", Status: models.StatusOK}},
			TotalProcessed:     1,
			SuccessfulAnalyses: 1,
		},
	}
	r := newTestRouter(pipeline, fakeQuota{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analyze-youtube?query=go+tutorials&video_count=3", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "go tutorials", pipeline.gotJob.Query)
	assert.Equal(t, 3, pipeline.gotJob.VideoCount)

	var res models.BatchAnalysisResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, 1, res.TotalProcessed)
	assert.Equal(t, "v1", res.Results[0].VideoID)
}

func TestAnalyze_DefaultVideoCount(t *testing.T) {
	pipeline := &fakePipeline{}
	r := newTestRouter(pipeline, fakeQuota{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analyze-youtube?query=cats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, pipeline.gotJob.VideoCount)
}

func TestAnalyze_ParsesFiltersAndJobID(t *testing.T) {
	pipeline := &fakePipeline{}
	r := newTestRouter(pipeline, fakeQuota{})

	params := url.Values{}
	params.Set("query", "woodworking")
	params.Set("job_id", "retry-7")
	params.Set("filters", `{"upload_date":"week","duration":"short","sort_by":"viewCount"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", analyzeURL(params), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "retry-7", pipeline.gotJob.JobID)
	assert.Equal(t, "week", pipeline.gotJob.Filters.UploadDate)
	assert.Equal(t, "short", pipeline.gotJob.Filters.Duration)
	assert.Equal(t, "viewCount", pipeline.gotJob.Filters.SortBy)
}

func TestAnalyze_RejectsUnparsableVideoCount(t *testing.T) {
	pipeline := &fakePipeline{}
	r := newTestRouter(pipeline, fakeQuota{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analyze-youtube?query=cats&video_count=ten", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, pipeline.calls)
}

func TestAnalyze_RejectsMalformedFilters(t *testing.T) {
	pipeline := &fakePipeline{}
	r := newTestRouter(pipeline, fakeQuota{})

	params := url.Values{}
	params.Set("query", "cats")
	params.Set("filters", `{"upload_date":`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", analyzeURL(params), nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, pipeline.calls)
}

func TestAnalyze_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"invalid parameter", fmt.Errorf("video_count 51 out of range: %w", models.ErrInvalidParameter), http.StatusBadRequest},
		{"invalid credentials", fmt.Errorf("key rejected: %w", models.ErrInvalidCredentials), http.StatusForbidden},
		{"no videos", fmt.Errorf("nothing matched: %w", models.ErrNoVideosFound), http.StatusNotFound},
		{"quota exceeded", fmt.Errorf("window exhausted: %w", models.ErrQuotaExceeded), http.StatusTooManyRequests},
		{"upstream down", fmt.Errorf("search unavailable: %w", models.ErrUpstreamUnavailable), http.StatusInternalServerError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(&fakePipeline{err: tt.err}, fakeQuota{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/api/v1/analyze-youtube?query=cats", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)

			var res map[string]string
			json.Unmarshal(w.Body.Bytes(), &res)
			if res["error"] == "" {
				t.Error("error body missing message")
			}
		})
	}
}

func TestAnalyzeStream_EmitsProgressThenResult(t *testing.T) {
	pipeline := &fakePipeline{
		updates: []models.ProgressUpdate{
			{JobID: "job-1", Stage: models.StageSearching},
			{JobID: "job-1", VideoID: "v1", Stage: models.StageFetchingComments},
		},
		response: models.BatchAnalysisResponse{JobID: "job-1", TotalProcessed: 1},
	}
	r := newTestRouter(pipeline, fakeQuota{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analyze-youtube-stream?query=cats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))

	body := w.Body.String()
	assert.Equal(t, true, strings.Contains(body, "event:progress"))
	assert.Equal(t, true, strings.Contains(body, "fetching_comments"))
	assert.Equal(t, true, strings.Contains(body, "event:result"))
	assert.Equal(t, true, strings.Contains(body, `"job_id":"job-1"`))
}

func TestAnalyzeStream_EmitsErrorEvent(t *testing.T) {
	pipeline := &fakePipeline{
		err: fmt.Errorf("nothing matched: %w", models.ErrNoVideosFound),
	}
	r := newTestRouter(pipeline, fakeQuota{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analyze-youtube-stream?query=cats", nil)
	r.ServeHTTP(w, req)

	body := w.Body.String()
	assert.Equal(t, true, strings.Contains(body, "event:error"))
	assert.Equal(t, true, strings.Contains(body, "nothing matched"))
	assert.Equal(t, false, strings.Contains(body, "event:result"))
}

func TestAnalyzeStream_RejectsBadParamsBeforeStreaming(t *testing.T) {
	pipeline := &fakePipeline{}
	r := newTestRouter(pipeline, fakeQuota{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analyze-youtube-stream?query=cats&video_count=many", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, pipeline.calls)
}

func TestHealth_ReportsQuota(t *testing.T) {
	r := newTestRouter(&fakePipeline{}, fakeQuota{remaining: 42})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res map[string]any
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, "healthy", res["status"])
	assert.Equal(t, float64(42), res["rate_limit_remaining"])
}
