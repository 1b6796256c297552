package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"guiderag/internal/guide"
)

// GuideIngester is the checkpointed unit of work the saga drives.
type GuideIngester interface {
	IngestGuide(ctx context.Context, guideID int, token, sourceID string) (int, error)
}

// PauseSignal is an external pause request keyed by site id. Wait
// blocks for at most timeout and reports whether a request was pending.
type PauseSignal interface {
	Wait(ctx context.Context, siteID string, timeout time.Duration) bool
}

// Request starts (or resumes) a catalog ingestion run.
type Request struct {
	SiteID string
	Token  string
	// ResumeOffset is the catalog index to restart from; 0 for a fresh run.
	ResumeOffset int
}

// Summary is the terminal (or suspended) outcome of a saga run.
type Summary struct {
	Status          Status       `json:"status"`
	TotalGuides     int          `json:"total_guides"`
	ProcessedGuides int          `json:"processed_guides"`
	FailedGuides    int          `json:"failed_guides"`
	TotalChunks     int          `json:"total_chunks"`
	ResumeOffset    int          `json:"resume_offset,omitempty"`
	Errors          []GuideError `json:"errors,omitempty"`
}

// Saga ingests an entire catalog one guide at a time, sequentially,
// emitting progress after every guide, continuing past per-guide
// failures and honoring cooperative pause requests.
type Saga struct {
	source   GuideSource
	ingester GuideIngester
	emitter  Emitter
	pause    PauseSignal
	log      *slog.Logger

	pageSize   int
	pauseEvery int
	pauseWait  time.Duration
}

func NewSaga(source GuideSource, ingester GuideIngester, emitter Emitter, pause PauseSignal, log *slog.Logger) *Saga {
	return &Saga{
		source:     source,
		ingester:   ingester,
		emitter:    emitter,
		pause:      pause,
		log:        log,
		pageSize:   guide.DefaultPageSize,
		pauseEvery: 5,
		pauseWait:  time.Second,
	}
}

// Run executes the saga to completion, pause or failure. A paused run
// returns a summary whose ResumeOffset the caller feeds into the next
// Run to continue where it left off.
func (s *Saga) Run(ctx context.Context, req Request) (Summary, error) {
	log := s.log.With("site_id", req.SiteID)

	catalog, err := s.fetchCatalog(ctx, req.Token)
	if err != nil {
		log.Error("catalog listing failed", "error", err)
		s.emitter.Emit(ctx, ProgressEvent{
			SiteID: req.SiteID,
			Status: StatusFailed,
			Error:  err.Error(),
		})
		return Summary{Status: StatusFailed}, err
	}

	total := len(catalog)
	log.Info("catalog fetched", "total_guides", total, "resume_offset", req.ResumeOffset)
	s.emitter.Emit(ctx, ProgressEvent{
		SiteID:      req.SiteID,
		Status:      StatusFetching,
		TotalGuides: total,
	})

	processed := 0
	totalChunks := 0
	var guideErrors []GuideError

	for i := req.ResumeOffset; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return Summary{
				Status:          StatusFailed,
				TotalGuides:     total,
				ProcessedGuides: processed,
				FailedGuides:    len(guideErrors),
				TotalChunks:     totalChunks,
				Errors:          guideErrors,
			}, err
		}

		// Cooperative pause: polled every few guides, never preemptive.
		// A guide in flight always completes before a pause is honored.
		if i > 0 && i%s.pauseEvery == 0 && s.pause.Wait(ctx, req.SiteID, s.pauseWait) {
			offset := i
			log.Info("pause requested", "resume_offset", offset)
			s.emitter.Emit(ctx, ProgressEvent{
				SiteID:          req.SiteID,
				Status:          StatusPaused,
				TotalGuides:     total,
				ProcessedGuides: processed,
				FailedGuides:    len(guideErrors),
				TotalChunks:     totalChunks,
				ResumeOffset:    &offset,
			})
			return Summary{
				Status:          StatusPaused,
				TotalGuides:     total,
				ProcessedGuides: processed,
				FailedGuides:    len(guideErrors),
				TotalChunks:     totalChunks,
				ResumeOffset:    offset,
				Errors:          guideErrors,
			}, nil
		}

		summary := catalog[i]
		if summary.GuideID == 0 {
			// Not counted as a failure; there is nothing to fetch.
			continue
		}

		chunks, err := s.ingestWithRetry(ctx, summary.GuideID, req)
		if err != nil {
			guideErrors = append(guideErrors, GuideError{
				GuideID: summary.GuideID,
				Title:   guideTitle(summary),
				Error:   err.Error(),
			})
			log.Error("guide ingestion failed", "guide_id", summary.GuideID, "error", err)
			s.emitter.Emit(ctx, ProgressEvent{
				SiteID:          req.SiteID,
				TotalGuides:     total,
				ProcessedGuides: processed,
				FailedGuides:    len(guideErrors),
				TotalChunks:     totalChunks,
				Error:           fmt.Sprintf("failed to process guide %d: %s", summary.GuideID, err),
			})
			continue
		}

		processed++
		totalChunks += chunks
		s.emitter.Emit(ctx, ProgressEvent{
			SiteID:          req.SiteID,
			Status:          StatusProcessing,
			TotalGuides:     total,
			ProcessedGuides: processed,
			FailedGuides:    len(guideErrors),
			TotalChunks:     totalChunks,
			CurrentGuide:    guideTitle(summary),
			Percentage:      percentage(processed, total),
		})
	}

	log.Info("catalog ingestion completed",
		"processed", processed, "failed", len(guideErrors), "chunks", totalChunks)
	s.emitter.Emit(ctx, ProgressEvent{
		SiteID:          req.SiteID,
		Status:          StatusCompleted,
		TotalGuides:     total,
		ProcessedGuides: processed,
		FailedGuides:    len(guideErrors),
		TotalChunks:     totalChunks,
		Errors:          guideErrors,
	})

	return Summary{
		Status:          StatusCompleted,
		TotalGuides:     total,
		ProcessedGuides: processed,
		FailedGuides:    len(guideErrors),
		TotalChunks:     totalChunks,
		Errors:          guideErrors,
	}, nil
}

// fetchCatalog pages through the listing until a short page signals the
// end. Page fetches are retried on transient failures.
func (s *Saga) fetchCatalog(ctx context.Context, token string) ([]guide.Summary, error) {
	var all []guide.Summary
	offset := 0
	for {
		var page []guide.Summary
		err := s.withRetry(ctx, func() error {
			var err error
			page, err = s.source.FetchGuideList(ctx, token, offset, s.pageSize)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list guides at offset %d: %w", offset, err)
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			break
		}
		offset += s.pageSize
	}
	return all, nil
}

func (s *Saga) ingestWithRetry(ctx context.Context, guideID int, req Request) (int, error) {
	sourceID := SourceID(req.SiteID, guideID)
	var chunks int
	err := s.withRetry(ctx, func() error {
		var err error
		chunks, err = s.ingester.IngestGuide(ctx, guideID, req.Token, sourceID)
		return err
	})
	return chunks, err
}

func (s *Saga) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		s.log.Warn("retryable step error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func guideTitle(summary guide.Summary) string {
	if summary.Title != "" {
		return summary.Title
	}
	return fmt.Sprintf("Guide %d", summary.GuideID)
}
