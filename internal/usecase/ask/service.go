// Package ask orchestrates answering a question: semantic cache lookup,
// hybrid retrieval, answer generation behind a circuit breaker, and
// cache write-back.
package ask

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/breaker"
	"github.com/parklens/parklens/internal/usecase/retrieval"
)

// Answer is the full response to one question.
type Answer struct {
	Question         string     `json:"question"`
	Answer           string     `json:"answer"`
	NumReviewsUsed   int        `json:"num_reviews_used"`
	Cached           bool       `json:"cached"`
	CacheSimilarity  float64    `json:"cache_similarity,omitempty"`
	OriginalQuestion string     `json:"original_question,omitempty"`
	Complexity       Complexity `json:"complexity"`
}

// Service answers questions about reviews. cache may be nil when the
// cache store is not configured; retrieval and generation still work.
type Service struct {
	searcher  Searcher
	generator Generator
	cache     Cache
	llm       *breaker.Breaker
	logger    *zap.Logger
}

// New creates an ask service. The breaker guards every Generator call.
func New(searcher Searcher, generator Generator, cache Cache, llm *breaker.Breaker, logger *zap.Logger) *Service {
	return &Service{
		searcher:  searcher,
		generator: generator,
		cache:     cache,
		llm:       llm,
		logger:    logger,
	}
}

// Ask answers a question. A cache hit short-circuits retrieval and
// generation entirely; cache failures never fail the request.
func (s *Service) Ask(ctx context.Context, question string) (Answer, error) {
	complexity := EstimateComplexity(question)

	if s.cache != nil {
		if hit, ok := s.cache.Get(ctx, question); ok {
			return Answer{
				Question:         question,
				Answer:           hit.Answer,
				NumReviewsUsed:   hit.NumReviewsUsed,
				Cached:           true,
				CacheSimilarity:  hit.Similarity,
				OriginalQuestion: hit.OriginalQuestion,
				Complexity:       complexity,
			}, nil
		}
	}

	branch, location := DetectFilters(question)
	ranked, err := s.searcher.Search(ctx, retrieval.Params{
		Query:    question,
		Branch:   branch,
		Location: location,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("search reviews: %w", err)
	}

	userPrompt := buildUserPrompt(question, BuildContext(ranked))

	var answer string
	err = s.llm.Call(ctx, func(ctx context.Context) error {
		var genErr error
		answer, genErr = s.generator.Complete(ctx, systemPrompt, userPrompt)
		return genErr
	})
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, question, answer, len(ranked)); err != nil {
			s.logger.Warn("Failed to cache answer", zap.Error(err))
		}
	}

	return Answer{
		Question:       question,
		Answer:         answer,
		NumReviewsUsed: len(ranked),
		Complexity:     complexity,
	}, nil
}
