// Package retrieval implements hybrid review retrieval: normalized
// branch/location filtering, keyword and semantic scoring run in
// parallel, and weighted score fusion.
package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/metrics"
)

// Default fusion weights.
const (
	DefaultKeywordWeight  = 0.4
	DefaultSemanticWeight = 0.6
)

// Params describes one search request. Zero MaxResults and weights fall
// back to the engine defaults.
type Params struct {
	Query          string
	Branch         string
	Location       string
	MaxResults     int
	KeywordWeight  float64
	SemanticWeight float64
}

// Config holds engine defaults.
type Config struct {
	MaxResults     int
	KeywordWeight  float64
	SemanticWeight float64
}

// Engine orchestrates the retrieval pipeline. A nil semantic retriever
// means the semantic subsystem is unavailable and the engine ranks by
// keyword score alone.
type Engine struct {
	source   ReviewSource
	semantic *Retriever
	cfg      Config
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine. semantic may be nil.
func NewEngine(source ReviewSource, semantic *Retriever, cfg Config, logger *zap.Logger) *Engine {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.KeywordWeight == 0 && cfg.SemanticWeight == 0 {
		cfg.KeywordWeight = DefaultKeywordWeight
		cfg.SemanticWeight = DefaultSemanticWeight
	}
	return &Engine{source: source, semantic: semantic, cfg: cfg, logger: logger}
}

// SemanticAvailable reports whether hybrid ranking is active.
func (e *Engine) SemanticAvailable() bool {
	return e.semantic != nil
}

// Search runs the full pipeline: filter, score, fuse, truncate.
func (e *Engine) Search(ctx context.Context, p Params) ([]domain.RankedReview, error) {
	reviews, err := e.source.All()
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = e.cfg.MaxResults
	}
	kwWeight, semWeight := p.KeywordWeight, p.SemanticWeight
	if kwWeight == 0 && semWeight == 0 {
		kwWeight, semWeight = e.cfg.KeywordWeight, e.cfg.SemanticWeight
	}

	filtered := p.Branch != "" || p.Location != ""
	candidates := Filter(reviews, p.Branch, p.Location)
	if len(candidates) == 0 {
		e.logger.Info("No reviews matched filters",
			zap.String("branch", p.Branch), zap.String("location", p.Location))
		return []domain.RankedReview{}, nil
	}

	searchType := "keyword"
	if e.semantic != nil {
		searchType = "hybrid"
	}
	metrics.SearchesTotal.WithLabelValues(searchType, strconv.FormatBool(filtered)).Inc()

	var ranked []domain.RankedReview
	if e.semantic == nil {
		kwScores := ScoreKeyword(candidates, p.Query)
		ranked = Fuse(candidates, kwScores, nil, 1, 0, maxResults)
	} else {
		ranked = e.searchHybrid(ctx, candidates, p.Query, kwWeight, semWeight, maxResults)
	}

	metrics.ReviewsReturned.WithLabelValues(searchType).Observe(float64(len(ranked)))
	return ranked, nil
}

// searchHybrid runs the keyword and semantic scorers in parallel and
// fuses their score maps. The scorers share no mutable state.
func (e *Engine) searchHybrid(ctx context.Context, candidates []domain.Candidate, query string, kwWeight, semWeight float64, maxResults int) []domain.RankedReview {
	indexes := make([]int, len(candidates))
	for i, c := range candidates {
		indexes[i] = c.Index
	}

	var kwScores, semScores domain.ScoreMap

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kwScores = ScoreKeyword(candidates, query)
		return nil
	})
	g.Go(func() error {
		semScores = e.semantic.Retrieve(gctx, query, indexes, maxResults)
		return nil
	})
	_ = g.Wait() // neither scorer returns an error; failures degrade to empty maps

	return Fuse(candidates, kwScores, semScores, kwWeight, semWeight, maxResults)
}
