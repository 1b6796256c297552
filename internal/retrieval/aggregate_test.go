package retrieval

import (
	"testing"

	"guiderag/internal/vectorstore"
)

func scoredPoint(text, source string, guideID int, images ...string) vectorstore.ScoredPoint {
	return vectorstore.ScoredPoint{
		Payload: vectorstore.Payload{
			Text:    text,
			Source:  source,
			GuideID: guideID,
			Images:  images,
		},
	}
}

func TestAggregate_AlignedSlices(t *testing.T) {
	points := []vectorstore.ScoredPoint{
		scoredPoint("first chunk", "guide_1", 1, "https://img/one"),
		scoredPoint("second chunk", "guide_2", 2),
		scoredPoint("third chunk", "guide_1", 1, "https://img/two"),
	}

	result := Aggregate(points)

	if len(result.Contexts) != 3 {
		t.Fatalf("expected 3 contexts, got %d", len(result.Contexts))
	}
	if len(result.ImagesPerContext) != len(result.Contexts) {
		t.Errorf("images misaligned: %d lists for %d contexts", len(result.ImagesPerContext), len(result.Contexts))
	}
	if len(result.GuideInfo) != len(result.Contexts) {
		t.Errorf("guide info misaligned: %d entries for %d contexts", len(result.GuideInfo), len(result.Contexts))
	}
	if result.ImagesPerContext[1] == nil {
		t.Error("context without images should get an empty list, not nil")
	}
}

func TestAggregate_SkipsEmptyText(t *testing.T) {
	points := []vectorstore.ScoredPoint{
		scoredPoint("kept", "guide_1", 1),
		scoredPoint("", "guide_2", 2),
		scoredPoint("also kept", "guide_3", 3),
	}

	result := Aggregate(points)

	if len(result.Contexts) != 2 {
		t.Fatalf("expected 2 contexts, got %d: %v", len(result.Contexts), result.Contexts)
	}
	if result.Contexts[0] != "kept" || result.Contexts[1] != "also kept" {
		t.Errorf("rank order not preserved: %v", result.Contexts)
	}
	for _, gid := range result.GuideIDs {
		if gid == 2 {
			t.Error("guide id of a skipped point leaked into the result")
		}
	}
}

func TestAggregate_DeduplicatesSourcesAndGuides(t *testing.T) {
	points := []vectorstore.ScoredPoint{
		scoredPoint("a", "guide_5", 5),
		scoredPoint("b", "guide_5", 5),
		scoredPoint("c", "guide_9", 9),
	}

	result := Aggregate(points)

	if len(result.Sources) != 2 {
		t.Errorf("expected 2 distinct sources, got %v", result.Sources)
	}
	if len(result.GuideIDs) != 2 {
		t.Errorf("expected 2 distinct guide ids, got %v", result.GuideIDs)
	}
	if result.Sources[0] != "guide_5" || result.GuideIDs[0] != 5 {
		t.Errorf("first-seen order not kept: %v %v", result.Sources, result.GuideIDs)
	}
	// Duplicate texts stay, only the sets deduplicate.
	if len(result.Contexts) != 3 {
		t.Errorf("expected all 3 contexts kept, got %d", len(result.Contexts))
	}
}

func TestAggregate_ZeroGuideIDLeftOutOfSet(t *testing.T) {
	points := []vectorstore.ScoredPoint{
		scoredPoint("orphan chunk", "upload_abc", 0),
	}

	result := Aggregate(points)

	if len(result.GuideIDs) != 0 {
		t.Errorf("guide id set should be empty, got %v", result.GuideIDs)
	}
	if len(result.GuideInfo) != 1 || result.GuideInfo[0].Source != "upload_abc" {
		t.Errorf("per-context attribution should still be present: %+v", result.GuideInfo)
	}
}

func TestAggregate_Empty(t *testing.T) {
	result := Aggregate(nil)

	if result.Contexts == nil || result.Sources == nil || result.GuideIDs == nil ||
		result.ImagesPerContext == nil || result.GuideInfo == nil {
		t.Error("aggregate of no points should return empty, non-nil slices")
	}
}
