package indexing

import (
	"context"

	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/repository/vectorindex"
)

// ReviewSource serves the loaded review dataset.
type ReviewSource interface {
	All() ([]domain.Review, error)
}

// BatchEmbedder vectorizes many texts in one request.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// IndexWriter persists review embeddings.
type IndexWriter interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, items []vectorindex.Item) error
	Count(ctx context.Context) (int, error)
}
