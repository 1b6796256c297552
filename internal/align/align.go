// Package align turns a guide document into ordered, index-aligned
// (text chunk, image list) pairs ready for embedding.
package align

import "guiderag/internal/guide"

// Result holds the aligned output of Align. Chunks and Images always
// have equal length; Images[i] lists the image URLs belonging to
// Chunks[i].
type Result struct {
	Chunks []string
	Images [][]string
	Meta   guide.Meta
}

// Engine chunks guide documents. The zero value is not usable; use New.
type Engine struct {
	splitter Splitter
}

func New(splitter Splitter) *Engine {
	return &Engine{splitter: splitter}
}

// Align renders a document into sections, splits oversized section text,
// and replicates each section's image list onto every resulting sub-chunk.
// It is total: malformed or missing fields degrade to empty values.
func (e *Engine) Align(doc *guide.Document) Result {
	res := Result{
		Chunks: []string{},
		Images: [][]string{},
	}
	if doc == nil {
		return res
	}

	sections := buildSections(doc)

	for _, sec := range sections {
		parts := []string{sec.Text}
		if len(sec.Text) > e.splitter.chunkSize() {
			parts = e.splitter.Split(sec.Text)
		}
		for _, part := range parts {
			res.Chunks = append(res.Chunks, part)
			res.Images = append(res.Images, copyImages(sec.Images))
		}
	}

	res.Meta = guide.Meta{Title: doc.Title, URL: doc.URL}
	return res
}

func (s Splitter) chunkSize() int {
	if s.ChunkSize <= 0 {
		return 1000
	}
	return s.ChunkSize
}

func copyImages(images []string) []string {
	if len(images) == 0 {
		return []string{}
	}
	out := make([]string, len(images))
	copy(out, images)
	return out
}
