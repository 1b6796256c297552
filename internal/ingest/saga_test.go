package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"guiderag/internal/guide"
)

type fakeCatalog struct {
	summaries []guide.Summary
	listErr   error
	offsets   []int
}

func (f *fakeCatalog) FetchGuide(ctx context.Context, guideID int, token string) (*guide.Document, error) {
	return nil, errors.New("not used")
}

func (f *fakeCatalog) FetchGuideList(ctx context.Context, token string, offset, limit int) ([]guide.Summary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.offsets = append(f.offsets, offset)
	if offset >= len(f.summaries) {
		return nil, nil
	}
	end := min(offset+limit, len(f.summaries))
	return f.summaries[offset:end], nil
}

type fakeIngester struct {
	chunks map[int]int
	errs   map[int]error
	order  []int
}

func (f *fakeIngester) IngestGuide(ctx context.Context, guideID int, token, sourceID string) (int, error) {
	f.order = append(f.order, guideID)
	if err := f.errs[guideID]; err != nil {
		return 0, err
	}
	return f.chunks[guideID], nil
}

type recordingEmitter struct {
	events []ProgressEvent
}

func (r *recordingEmitter) Emit(ctx context.Context, event ProgressEvent) {
	r.events = append(r.events, event)
}

func (r *recordingEmitter) last() ProgressEvent {
	return r.events[len(r.events)-1]
}

type fakePauseSignal struct {
	pending bool
}

func (f *fakePauseSignal) Wait(ctx context.Context, siteID string, timeout time.Duration) bool {
	if f.pending {
		f.pending = false
		return true
	}
	return false
}

func catalogOf(n int) []guide.Summary {
	summaries := make([]guide.Summary, n)
	for i := range n {
		summaries[i] = guide.Summary{GuideID: i + 1, Title: fmt.Sprintf("Guide %d", i+1)}
	}
	return summaries
}

func newTestSaga(source GuideSource, ingester GuideIngester, emitter Emitter, pause PauseSignal) *Saga {
	s := NewSaga(source, ingester, emitter, pause, discardLogger())
	s.pauseWait = time.Millisecond
	return s
}

func TestSagaRun_CompletesCatalog(t *testing.T) {
	source := &fakeCatalog{summaries: catalogOf(7)}
	ingester := &fakeIngester{chunks: map[int]int{1: 3, 2: 2, 3: 4, 4: 1, 5: 5, 6: 2, 7: 3}}
	emitter := &recordingEmitter{}
	saga := newTestSaga(source, ingester, emitter, &fakePauseSignal{})

	summary, err := saga.Run(context.Background(), Request{SiteID: "site", Token: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", summary.Status)
	}
	if summary.ProcessedGuides != 7 || summary.FailedGuides != 0 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.TotalChunks != 20 {
		t.Errorf("expected 20 chunks, got %d", summary.TotalChunks)
	}
	if len(ingester.order) != 7 || ingester.order[0] != 1 || ingester.order[6] != 7 {
		t.Errorf("guides not processed sequentially in catalog order: %v", ingester.order)
	}

	first, last := emitter.events[0], emitter.last()
	if first.Status != StatusFetching || first.TotalGuides != 7 {
		t.Errorf("first event should announce the catalog: %+v", first)
	}
	if last.Status != StatusCompleted || last.ProcessedGuides != 7 {
		t.Errorf("last event should be completion: %+v", last)
	}
}

func TestSagaRun_ContinuesPastFailures(t *testing.T) {
	source := &fakeCatalog{summaries: catalogOf(4)}
	ingester := &fakeIngester{
		chunks: map[int]int{1: 2, 3: 2, 4: 2},
		errs:   map[int]error{2: &guide.AuthError{StatusCode: 403, Message: "denied"}},
	}
	emitter := &recordingEmitter{}
	saga := newTestSaga(source, ingester, emitter, &fakePauseSignal{})

	summary, err := saga.Run(context.Background(), Request{SiteID: "site", Token: "tok"})
	if err != nil {
		t.Fatalf("a per-guide failure must not fail the run: %v", err)
	}

	if summary.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", summary.Status)
	}
	if summary.ProcessedGuides != 3 || summary.FailedGuides != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if len(summary.Errors) != 1 || summary.Errors[0].GuideID != 2 {
		t.Fatalf("expected one recorded failure for guide 2, got %+v", summary.Errors)
	}
	if summary.Errors[0].Title != "Guide 2" {
		t.Errorf("failure should carry the guide title, got %q", summary.Errors[0].Title)
	}
	// Guides after the failed one were still processed.
	if len(ingester.order) != 4 {
		t.Errorf("expected all 4 guides attempted, got %v", ingester.order)
	}
}

func TestSagaRun_PausesAtPollPoint(t *testing.T) {
	source := &fakeCatalog{summaries: catalogOf(12)}
	ingester := &fakeIngester{chunks: map[int]int{}}
	for i := 1; i <= 12; i++ {
		ingester.chunks[i] = 1
	}
	emitter := &recordingEmitter{}
	pause := &fakePauseSignal{pending: true}
	saga := newTestSaga(source, ingester, emitter, pause)

	summary, err := saga.Run(context.Background(), Request{SiteID: "site", Token: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Status != StatusPaused {
		t.Fatalf("expected paused, got %s", summary.Status)
	}
	// The pause poll fires at index 5, after guides 0..4 completed.
	if summary.ResumeOffset != 5 {
		t.Errorf("expected resume offset 5, got %d", summary.ResumeOffset)
	}
	if summary.ProcessedGuides != 5 {
		t.Errorf("expected 5 guides processed before the pause, got %d", summary.ProcessedGuides)
	}

	last := emitter.last()
	if last.Status != StatusPaused || last.ResumeOffset == nil || *last.ResumeOffset != 5 {
		t.Errorf("pause event should carry the resume offset: %+v", last)
	}
}

func TestSagaRun_ResumeCoversRemainder(t *testing.T) {
	source := &fakeCatalog{summaries: catalogOf(12)}
	ingester := &fakeIngester{chunks: map[int]int{}}
	for i := 1; i <= 12; i++ {
		ingester.chunks[i] = 1
	}
	saga := newTestSaga(source, ingester, &recordingEmitter{}, &fakePauseSignal{})

	summary, err := saga.Run(context.Background(), Request{SiteID: "site", Token: "tok", ResumeOffset: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", summary.Status)
	}
	if summary.ProcessedGuides != 7 {
		t.Errorf("expected 7 remaining guides processed, got %d", summary.ProcessedGuides)
	}
	if len(ingester.order) != 7 || ingester.order[0] != 6 || ingester.order[6] != 12 {
		t.Errorf("resume should start at catalog index 5: %v", ingester.order)
	}
}

func TestSagaRun_SkipsMissingGuideIDs(t *testing.T) {
	summaries := catalogOf(3)
	summaries[1].GuideID = 0
	source := &fakeCatalog{summaries: summaries}
	ingester := &fakeIngester{chunks: map[int]int{1: 1, 3: 1}}
	saga := newTestSaga(source, ingester, &recordingEmitter{}, &fakePauseSignal{})

	summary, err := saga.Run(context.Background(), Request{SiteID: "site", Token: "tok"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.ProcessedGuides != 2 || summary.FailedGuides != 0 {
		t.Errorf("a missing guide id is neither processed nor failed: %+v", summary)
	}
	if len(ingester.order) != 2 {
		t.Errorf("expected 2 ingestion attempts, got %v", ingester.order)
	}
}

func TestSagaRun_CatalogFailure(t *testing.T) {
	source := &fakeCatalog{listErr: &guide.AuthError{StatusCode: 401, Message: "bad token"}}
	emitter := &recordingEmitter{}
	saga := newTestSaga(source, &fakeIngester{}, emitter, &fakePauseSignal{})

	summary, err := saga.Run(context.Background(), Request{SiteID: "site", Token: "bad"})
	if err == nil {
		t.Fatal("expected error")
	}
	if summary.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", summary.Status)
	}
	if last := emitter.last(); last.Status != StatusFailed || last.Error == "" {
		t.Errorf("failure event should carry the error: %+v", last)
	}
}

func TestFetchCatalog_Pagination(t *testing.T) {
	source := &fakeCatalog{summaries: catalogOf(7)}
	saga := newTestSaga(source, &fakeIngester{}, &recordingEmitter{}, &fakePauseSignal{})
	saga.pageSize = 3

	catalog, err := saga.fetchCatalog(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(catalog) != 7 {
		t.Fatalf("expected 7 summaries, got %d", len(catalog))
	}
	// Pages of 3, 3 and 1; the short final page ends the listing.
	wantOffsets := []int{0, 3, 6}
	if len(source.offsets) != len(wantOffsets) {
		t.Fatalf("expected offsets %v, got %v", wantOffsets, source.offsets)
	}
	for i, want := range wantOffsets {
		if source.offsets[i] != want {
			t.Errorf("page %d: expected offset %d, got %d", i, want, source.offsets[i])
		}
	}
}

func TestSagaRun_CancelledContext(t *testing.T) {
	source := &fakeCatalog{summaries: catalogOf(3)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saga := newTestSaga(source, &fakeIngester{}, &recordingEmitter{}, &fakePauseSignal{})
	summary, err := saga.Run(ctx, Request{SiteID: "site", Token: "tok"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if summary.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", summary.Status)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		processed, total int
		want             float64
	}{
		{0, 0, 0},
		{0, 10, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{10, 10, 100},
	}
	for _, tt := range tests {
		if got := percentage(tt.processed, tt.total); got != tt.want {
			t.Errorf("percentage(%d, %d) = %v, want %v", tt.processed, tt.total, got, tt.want)
		}
	}
}
