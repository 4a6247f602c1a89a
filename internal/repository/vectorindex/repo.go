// Package vectorindex persists review embeddings in the vector store and
// serves KNN queries keyed by positional review id.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/db"
	"github.com/parklens/parklens/internal/domain"
)

const reviewIDPrefix = "review_"

// store is the consumer interface over the vector store (ISP).
type store interface {
	EnsureIndex(ctx context.Context, def *db.IndexDefinition) error
	Upsert(ctx context.Context, keyPrefix string, items []db.VectorItem) error
	QueryKNN(ctx context.Context, keyPrefix string, q *db.KNNQuery) ([]db.Neighbor, error)
	IndexCount(ctx context.Context, indexName string) (int, error)
}

// Config describes the review vector index.
type Config struct {
	IndexName       string
	KeyPrefix       string
	VectorDim       int
	HNSWM           int
	HNSWEFConstruct int
}

// Item is one review embedding to upsert.
type Item struct {
	ReviewIndex int
	Vector      []float32
	Review      domain.Review
}

// Repo stores and queries review embeddings.
type Repo struct {
	store  store
	cfg    Config
	logger *zap.Logger
}

// New creates a vector index repository.
func New(s store, cfg Config, logger *zap.Logger) *Repo {
	return &Repo{store: s, cfg: cfg, logger: logger}
}

// EnsureIndex creates the index if missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:            r.cfg.IndexName,
		Prefix:          r.cfg.KeyPrefix,
		VectorDim:       r.cfg.VectorDim,
		Distance:        db.DistanceCosine,
		HNSWM:           r.cfg.HNSWM,
		HNSWEFConstruct: r.cfg.HNSWEFConstruct,
	}
	if err := r.store.EnsureIndex(ctx, def); err != nil {
		return fmt.Errorf("ensure index %s: %w", r.cfg.IndexName, err)
	}
	return nil
}

// Upsert writes one batch of review embeddings.
func (r *Repo) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	dbItems := make([]db.VectorItem, len(items))
	for i, item := range items {
		dbItems[i] = db.VectorItem{
			ID:     ReviewID(item.ReviewIndex),
			Vector: item.Vector,
			Fields: map[string]string{
				"branch":   item.Review.Branch,
				"location": item.Review.ReviewerLocation,
				"rating":   item.Review.Rating,
			},
		}
	}

	if err := r.store.Upsert(ctx, r.cfg.KeyPrefix, dbItems); err != nil {
		return fmt.Errorf("upsert %d embeddings: %w", len(items), err)
	}
	return nil
}

// Query runs a KNN search and returns similarity scores keyed by review
// index. When reviewIndexes is non-empty the search is restricted to those
// reviews. Similarity is 1 - cosine distance.
func (r *Repo) Query(ctx context.Context, vector []float32, k int, reviewIndexes []int) (domain.ScoreMap, error) {
	q := &db.KNNQuery{
		IndexName: r.cfg.IndexName,
		Vector:    vector,
		K:         k,
	}
	for _, idx := range reviewIndexes {
		q.IDs = append(q.IDs, ReviewID(idx))
	}

	neighbors, err := r.store.QueryKNN(ctx, r.cfg.KeyPrefix, q)
	if err != nil {
		return nil, fmt.Errorf("knn query: %w", err)
	}

	scores := make(domain.ScoreMap, len(neighbors))
	for _, n := range neighbors {
		idx, err := parseReviewID(n.ID)
		if err != nil {
			r.logger.Warn("Skipping neighbor with malformed id", zap.String("id", n.ID))
			continue
		}
		scores[idx] = 1 - n.Distance
	}
	return scores, nil
}

// Count returns the number of indexed embeddings. A missing index counts
// as zero.
func (r *Repo) Count(ctx context.Context) (int, error) {
	count, err := r.store.IndexCount(ctx, r.cfg.IndexName)
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("index count: %w", err)
	}
	return count, nil
}

// ReviewID maps a positional review index to its vector document id.
func ReviewID(index int) string {
	return reviewIDPrefix + strconv.Itoa(index)
}

func parseReviewID(id string) (int, error) {
	rest, ok := strings.CutPrefix(id, reviewIDPrefix)
	if !ok {
		return 0, fmt.Errorf("missing %q prefix in %q", reviewIDPrefix, id)
	}
	return strconv.Atoi(rest)
}
