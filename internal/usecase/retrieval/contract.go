package retrieval

import (
	"context"

	"github.com/parklens/parklens/internal/domain"
)

// ReviewSource serves the loaded review dataset.
type ReviewSource interface {
	All() ([]domain.Review, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorSearcher runs KNN queries over indexed review embeddings and
// returns similarity scores keyed by review index.
type VectorSearcher interface {
	Query(ctx context.Context, vector []float32, k int, reviewIndexes []int) (domain.ScoreMap, error)
}
