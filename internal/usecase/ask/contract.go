package ask

import (
	"context"

	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/repository/semcache"
	"github.com/parklens/parklens/internal/usecase/retrieval"
)

// Searcher runs hybrid review retrieval.
type Searcher interface {
	Search(ctx context.Context, p retrieval.Params) ([]domain.RankedReview, error)
}

// Generator produces an answer from a system and user prompt.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Cache memoizes question→answer pairs by embedding similarity.
type Cache interface {
	Get(ctx context.Context, question string) (semcache.Hit, bool)
	Set(ctx context.Context, question, answer string, numReviewsUsed int) error
}
