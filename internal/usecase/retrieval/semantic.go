package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/metrics"
)

// Retrieval strategies, chosen by candidate-set size.
const (
	strategyIDFiltered = "id_filtered"
	strategyFullSearch = "full_search"
)

// Retriever scores candidates by embedding similarity. Any embedding or
// index failure degrades to an empty score map so the caller can fall
// back to keyword-only ranking.
type Retriever struct {
	embedder Embedder
	searcher VectorSearcher
	logger   *zap.Logger
}

// NewRetriever creates a semantic retriever.
func NewRetriever(e Embedder, s VectorSearcher, logger *zap.Logger) *Retriever {
	return &Retriever{embedder: e, searcher: s, logger: logger}
}

// Retrieve embeds the query and runs a KNN search. Large candidate sets
// are queried with an ID restriction; small ones over-fetch from the
// full index and post-filter, since a tiny ID subset cannot yield
// diverse neighbors on its own.
func (r *Retriever) Retrieve(ctx context.Context, query string, candidateIndexes []int, maxResults int) domain.ScoreMap {
	result, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Warn("Semantic retrieval embedding failed, degrading to keyword-only", zap.Error(err))
		return domain.ScoreMap{}
	}

	threshold := maxResults * 5

	if len(candidateIndexes) >= threshold {
		metrics.HybridStrategyTotal.WithLabelValues(strategyIDFiltered).Inc()

		k := min(len(candidateIndexes), maxResults*2)
		scores, err := r.searcher.Query(ctx, result.Embedding, k, candidateIndexes)
		if err != nil {
			r.logger.Warn("Semantic retrieval query failed, degrading to keyword-only", zap.Error(err))
			return domain.ScoreMap{}
		}
		return scores
	}

	metrics.HybridStrategyTotal.WithLabelValues(strategyFullSearch).Inc()

	scores, err := r.searcher.Query(ctx, result.Embedding, maxResults*3, nil)
	if err != nil {
		r.logger.Warn("Semantic retrieval query failed, degrading to keyword-only", zap.Error(err))
		return domain.ScoreMap{}
	}

	allowed := make(map[int]struct{}, len(candidateIndexes))
	for _, idx := range candidateIndexes {
		allowed[idx] = struct{}{}
	}
	filtered := make(domain.ScoreMap, len(scores))
	for idx, score := range scores {
		if _, ok := allowed[idx]; ok {
			filtered[idx] = score
		}
	}
	return filtered
}
