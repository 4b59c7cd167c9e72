package models

// Job is one end-to-end analysis request covering a batch of videos. It
// lives only for the duration of the pipeline run; JobID doubles as the
// partition key for persisted results.
type Job struct {
	JobID      string        `json:"job_id"`
	Query      string        `json:"query"`
	VideoCount int           `json:"video_count"`
	Filters    SearchFilters `json:"filters"`
}
