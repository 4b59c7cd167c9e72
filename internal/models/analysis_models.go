package models

type SentimentSummary struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

// VideoSummary is the structured reply expected from the language model.
type VideoSummary struct {
	Pros         []string `json:"pros"`
	Cons         []string `json:"cons"`
	NextHotTopic []string `json:"next_hot_topic"`
}

type ResultStatus string

const (
	StatusOK       ResultStatus = "ok"
	StatusDegraded ResultStatus = "degraded"
	StatusFailed   ResultStatus = "failed"
)

// AnalysisResult is the per-video unit of persistence and of the API
// response. A batch always carries one entry per video the search returned;
// Status and Error tell "no data" apart from "analysis incomplete".
type AnalysisResult struct {
	JobID            string           `json:"job_id"`
	VideoID          string           `json:"video_id"`
	ChannelTitle     string           `json:"channel_title"`
	VideoTitle       string           `json:"video_title"`
	ThumbnailURL     string           `json:"thumbnail_url"`
	Pros             []string         `json:"pros"`
	Cons             []string         `json:"cons"`
	NextHotTopic     []string         `json:"next_hot_topic"`
	TopKeywords      []string         `json:"top_keywords"`
	SentimentSummary SentimentSummary `json:"sentiment_summary"`
	Status           ResultStatus     `json:"status"`
	Error            string           `json:"error,omitempty"`
}

type BatchAnalysisResponse struct {
	JobID                 string           `json:"job_id"`
	Query                 string           `json:"query"`
	Results               []AnalysisResult `json:"results"`
	TotalProcessed        int              `json:"total_processed"`
	SuccessfulAnalyses    int              `json:"successful_analyses"`
	FailedAnalyses        int              `json:"failed_analyses"`
	ProcessingTimeSeconds float64          `json:"processing_time_seconds"`
}

type ProgressStage string

const (
	StageSearching        ProgressStage = "searching"
	StageFetchingComments ProgressStage = "fetching_comments"
	StageAnalyzing        ProgressStage = "analyzing"
	StageSummarizing      ProgressStage = "summarizing"
	StagePersisting       ProgressStage = "persisting"
	StageDone             ProgressStage = "done"
)

type ProgressUpdate struct {
	JobID      string        `json:"job_id"`
	VideoID    string        `json:"video_id,omitempty"`
	VideoTitle string        `json:"video_title,omitempty"`
	Index      int           `json:"index"`
	Total      int           `json:"total"`
	Stage      ProgressStage `json:"stage"`
	Status     ResultStatus  `json:"status,omitempty"`
	Error      string        `json:"error,omitempty"`
}
