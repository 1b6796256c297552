package ingest

import (
	"context"
	"math"
)

// Status is the saga's lifecycle state. paused is a suspend point, not
// terminal: a paused run can be restarted with its resume offset.
type Status string

const (
	StatusFetching   Status = "fetching"
	StatusProcessing Status = "processing"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// GuideError records one guide's failure without aborting the run.
type GuideError struct {
	GuideID int    `json:"guide_id"`
	Title   string `json:"title"`
	Error   string `json:"error"`
}

// ProgressEvent is the control-plane event emitted after every guide
// and at each state transition.
type ProgressEvent struct {
	SiteID          string       `json:"site_id"`
	Status          Status       `json:"status,omitempty"`
	TotalGuides     int          `json:"total_guides"`
	ProcessedGuides int          `json:"processed_guides"`
	FailedGuides    int          `json:"failed_guides"`
	TotalChunks     int          `json:"total_chunks"`
	CurrentGuide    string       `json:"current_guide,omitempty"`
	Percentage      float64      `json:"percentage,omitempty"`
	Error           string       `json:"error,omitempty"`
	ResumeOffset    *int         `json:"resume_offset,omitempty"`
	Errors          []GuideError `json:"errors,omitempty"`
}

// Emitter consumes progress events. Emission is best-effort side
// channel reporting and must not fail the run.
type Emitter interface {
	Emit(ctx context.Context, event ProgressEvent)
}

// percentage is processed/total*100 rounded to one decimal.
func percentage(processed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(processed)/float64(total)*1000) / 10
}
