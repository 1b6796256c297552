// Package ingest implements the guide ingestion pipeline: the
// single-guide step, the whole-catalog saga and the run manager that
// hosts saga runs.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"guiderag/internal/align"
	"guiderag/internal/guide"
	"guiderag/internal/vectorstore"
)

// GuideSource is the content-source surface the pipeline needs.
type GuideSource interface {
	FetchGuide(ctx context.Context, guideID int, token string) (*guide.Document, error)
	FetchGuideList(ctx context.Context, token string, offset, limit int) ([]guide.Summary, error)
}

// Embedder batches chunk texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Upserter is the write side of the vector index.
type Upserter interface {
	Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []vectorstore.Payload) error
}

// Ingester runs the single-guide ingestion step:
// fetch, align, embed, upsert.
type Ingester struct {
	source   GuideSource
	embedder Embedder
	store    Upserter
	engine   *align.Engine
	log      *slog.Logger
}

func NewIngester(source GuideSource, embedder Embedder, store Upserter, engine *align.Engine, log *slog.Logger) *Ingester {
	return &Ingester{
		source:   source,
		embedder: embedder,
		store:    store,
		engine:   engine,
		log:      log,
	}
}

// IngestGuide processes one guide under the given source identifier and
// returns the number of chunks written. Point ids are derived from the
// source id and chunk index, so re-running the step overwrites prior
// points instead of duplicating them.
func (in *Ingester) IngestGuide(ctx context.Context, guideID int, token, sourceID string) (int, error) {
	doc, err := in.source.FetchGuide(ctx, guideID, token)
	if err != nil {
		return 0, fmt.Errorf("fetch guide %d: %w", guideID, err)
	}

	res := in.engine.Align(doc)
	if len(res.Chunks) == 0 {
		in.log.Warn("guide produced no chunks", "guide_id", guideID, "source", sourceID)
		return 0, nil
	}

	vectors, err := in.embedder.Embed(ctx, res.Chunks)
	if err != nil {
		return 0, fmt.Errorf("embed guide %d: %w", guideID, err)
	}
	if len(vectors) != len(res.Chunks) {
		return 0, fmt.Errorf("embed guide %d: got %d vectors for %d chunks", guideID, len(vectors), len(res.Chunks))
	}

	ids := make([]string, len(res.Chunks))
	payloads := make([]vectorstore.Payload, len(res.Chunks))
	for i, text := range res.Chunks {
		ids[i] = PointID(sourceID, i)
		payloads[i] = vectorstore.Payload{
			Source:     sourceID,
			Text:       text,
			GuideID:    guideID,
			Images:     nonEmpty(res.Images[i]),
			GuideTitle: res.Meta.Title,
			GuideURL:   res.Meta.URL,
		}
	}

	if err := in.store.Upsert(ctx, ids, vectors, payloads); err != nil {
		return 0, fmt.Errorf("upsert guide %d: %w", guideID, err)
	}

	in.log.Info("ingested guide", "guide_id", guideID, "source", sourceID, "chunks", len(res.Chunks))
	return len(res.Chunks), nil
}

// PointID derives the stable point id for a chunk: a name-based UUID of
// "source:index" in the URL namespace.
func PointID(sourceID string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "%s:%d", sourceID, index)).String()
}

// SourceID names a guide within a site's catalog.
func SourceID(siteID string, guideID int) string {
	return fmt.Sprintf("%s_guide_%d", siteID, guideID)
}

func nonEmpty(images []string) []string {
	if len(images) == 0 {
		return nil
	}
	return images
}
