// Package indexing embeds the review dataset in batches and loads it
// into the vector index at startup.
package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/repository/vectorindex"
)

// DefaultBatchSize is the number of reviews embedded per request.
const DefaultBatchSize = 100

// maxParallelBatches bounds concurrent embed+upsert pipelines so the
// embedding API is not flooded at startup.
const maxParallelBatches = 4

// Service indexes review embeddings.
type Service struct {
	source    ReviewSource
	embedder  BatchEmbedder
	index     IndexWriter
	batchSize int
	logger    *zap.Logger
}

// New creates an indexing service.
func New(source ReviewSource, embedder BatchEmbedder, index IndexWriter, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{
		source:    source,
		embedder:  embedder,
		index:     index,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run ensures the index exists and loads every review into it. Batches
// are embedded and upserted in parallel; the first failure cancels the
// rest and is returned, leaving the engine to run keyword-only.
func (s *Service) Run(ctx context.Context) (int, error) {
	reviews, err := s.source.All()
	if err != nil {
		return 0, fmt.Errorf("load reviews: %w", err)
	}
	if len(reviews) == 0 {
		return 0, nil
	}

	if err := s.index.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatches)

	for start := 0; start < len(reviews); start += s.batchSize {
		end := min(start+s.batchSize, len(reviews))
		g.Go(func() error {
			return s.indexBatch(gctx, start, reviews[start:end])
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	s.logger.Info("Indexed review embeddings", zap.Int("count", len(reviews)))
	return len(reviews), nil
}

// Indexed reports how many embeddings the index currently holds.
func (s *Service) Indexed(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}

func (s *Service) indexBatch(ctx context.Context, start int, batch []domain.Review) error {
	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.Text
	}

	result, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch at %d: %w", start, err)
	}
	if len(result.Embeddings) != len(batch) {
		return fmt.Errorf("embed batch at %d: got %d embeddings for %d texts", start, len(result.Embeddings), len(batch))
	}

	items := make([]vectorindex.Item, len(batch))
	for i, r := range batch {
		items[i] = vectorindex.Item{
			ReviewIndex: start + i,
			Vector:      result.Embeddings[i],
			Review:      r,
		}
	}

	if err := s.index.Upsert(ctx, items); err != nil {
		return fmt.Errorf("upsert batch at %d: %w", start, err)
	}
	return nil
}
