package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"guiderag/internal/guide"
	"guiderag/internal/vectorstore"
)

// User-visible failure categories; the underlying cause stays wrapped
// for diagnostics.
var (
	ErrSearch = errors.New("failed to search knowledge base")
	ErrAnswer = errors.New("failed to generate an answer")
)

// Embedder produces query vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int, guideID *int) ([]vectorstore.ScoredPoint, error)
}

// AnswerGenerator turns a question plus retrieved contexts into prose.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, contexts, history []string) (string, error)
}

// GuideFetcher resolves guide metadata for source attribution.
type GuideFetcher interface {
	FetchGuide(ctx context.Context, guideID int, token string) (*guide.Document, error)
}

// Service runs the retrieval-augmented answer flow.
type Service struct {
	embedder Embedder
	searcher Searcher
	answerer AnswerGenerator
	guides   GuideFetcher
	log      *slog.Logger
}

func NewService(embedder Embedder, searcher Searcher, answerer AnswerGenerator, guides GuideFetcher, log *slog.Logger) *Service {
	return &Service{
		embedder: embedder,
		searcher: searcher,
		answerer: answerer,
		guides:   guides,
		log:      log,
	}
}

// QueryRequest is one question against the knowledge base.
type QueryRequest struct {
	Question string
	TopK     int
	History  []string
	// Token, when set, lets the service fetch fresh guide metadata for
	// attribution. Without it only stored payload metadata is returned.
	Token string
	// GuideID, when set, restricts retrieval to one guide.
	GuideID *int
}

// QueryResult is the answered question with attribution.
type QueryResult struct {
	Answer       string      `json:"answer"`
	Sources      []string    `json:"sources"`
	NumContexts  int         `json:"num_contexts"`
	SourceGuides []GuideInfo `json:"source_guides"`
	Images       []string    `json:"images"`
}

// Retrieve embeds the question and aggregates the index hits.
func (s *Service) Retrieve(ctx context.Context, req QueryRequest) (SearchResult, error) {
	vectors, err := s.embedder.Embed(ctx, []string{req.Question})
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: embed query: %w", ErrSearch, err)
	}
	if len(vectors) == 0 {
		return SearchResult{}, fmt.Errorf("%w: embed query returned no vector", ErrSearch)
	}

	points, err := s.searcher.Search(ctx, vectors[0], req.TopK, req.GuideID)
	if err != nil {
		return SearchResult{}, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	return Aggregate(points), nil
}

// Query retrieves context and generates an attributed answer.
func (s *Service) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	found, err := s.Retrieve(ctx, req)
	if err != nil {
		return QueryResult{}, err
	}

	answer, err := s.answerer.GenerateAnswer(ctx, req.Question, found.Contexts, req.History)
	if err != nil {
		return QueryResult{}, fmt.Errorf("%w: %w", ErrAnswer, err)
	}

	return QueryResult{
		Answer:       answer,
		Sources:      found.Sources,
		NumContexts:  len(found.Contexts),
		SourceGuides: s.collectSourceGuides(ctx, found, req.Token),
		Images:       flattenImages(found.ImagesPerContext),
	}, nil
}

// collectSourceGuides resolves titles and URLs for the guides behind the
// answer. With a token it asks the content source; failures there are
// logged and skipped, never fatal. Without one it falls back to the
// metadata stored alongside the chunks.
func (s *Service) collectSourceGuides(ctx context.Context, found SearchResult, token string) []GuideInfo {
	if len(found.GuideIDs) == 0 {
		return []GuideInfo{}
	}

	if token == "" || s.guides == nil {
		return storedGuideInfo(found)
	}

	guides := make([]GuideInfo, 0, len(found.GuideIDs))
	for _, gid := range found.GuideIDs {
		doc, err := s.guides.FetchGuide(ctx, gid, token)
		if err != nil {
			s.log.Warn("unable to fetch guide for attribution", "guide_id", gid, "error", err)
			continue
		}
		title := doc.Title
		if title == "" {
			title = fmt.Sprintf("Guide %d", gid)
		}
		guides = append(guides, GuideInfo{GuideID: gid, Title: title, URL: doc.URL})
	}
	return guides
}

// storedGuideInfo keeps the first payload metadata seen per guide id.
func storedGuideInfo(found SearchResult) []GuideInfo {
	seen := make(map[int]bool)
	guides := make([]GuideInfo, 0, len(found.GuideIDs))
	for _, info := range found.GuideInfo {
		if info.GuideID == 0 || seen[info.GuideID] {
			continue
		}
		seen[info.GuideID] = true
		guides = append(guides, info)
	}
	return guides
}

// flattenImages merges per-context image lists into one deduplicated,
// rank-ordered list for the response.
func flattenImages(imagesPerContext [][]string) []string {
	seen := make(map[string]bool)
	flat := []string{}
	for _, images := range imagesPerContext {
		for _, url := range images {
			if url == "" || seen[url] {
				continue
			}
			seen[url] = true
			flat = append(flat, url)
		}
	}
	return flat
}
