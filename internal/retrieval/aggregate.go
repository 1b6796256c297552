// Package retrieval turns raw vector-index hits into attributed answer
// context and runs the question-answering flow on top of it.
package retrieval

import "guiderag/internal/vectorstore"

// GuideInfo attributes one context to its guide. GuideID is zero when
// the stored payload carried none.
type GuideInfo struct {
	GuideID int    `json:"guide_id,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source"`
}

// SearchResult is the aggregated, deduplicated retrieval output.
// Contexts, ImagesPerContext and GuideInfo are index-aligned; Sources
// and GuideIDs are sets with no duplicates and no order guarantee.
type SearchResult struct {
	Contexts         []string    `json:"contexts"`
	Sources          []string    `json:"sources"`
	GuideIDs         []int       `json:"guide_ids"`
	ImagesPerContext [][]string  `json:"images_per_context"`
	GuideInfo        []GuideInfo `json:"guide_info"`
}

// Aggregate walks scored points in index order (similarity-descending,
// never re-sorted) and collects context for answer generation. Points
// with empty text are skipped; duplicate texts are kept in rank order.
func Aggregate(points []vectorstore.ScoredPoint) SearchResult {
	result := SearchResult{
		Contexts:         []string{},
		Sources:          []string{},
		GuideIDs:         []int{},
		ImagesPerContext: [][]string{},
		GuideInfo:        []GuideInfo{},
	}

	seenSources := make(map[string]bool)
	seenGuides := make(map[int]bool)

	for _, point := range points {
		p := point.Payload
		if p.Text == "" {
			continue
		}

		result.Contexts = append(result.Contexts, p.Text)

		if !seenSources[p.Source] {
			seenSources[p.Source] = true
			result.Sources = append(result.Sources, p.Source)
		}
		if p.GuideID != 0 && !seenGuides[p.GuideID] {
			seenGuides[p.GuideID] = true
			result.GuideIDs = append(result.GuideIDs, p.GuideID)
		}

		result.GuideInfo = append(result.GuideInfo, GuideInfo{
			GuideID: p.GuideID,
			Title:   p.GuideTitle,
			URL:     p.GuideURL,
			Source:  p.Source,
		})

		images := p.Images
		if images == nil {
			images = []string{}
		}
		result.ImagesPerContext = append(result.ImagesPerContext, images)
	}

	return result
}
