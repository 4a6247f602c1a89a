package ask

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/breaker"
	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/repository/semcache"
	"github.com/parklens/parklens/internal/usecase/retrieval"
)

type mockSearcher struct {
	ranked []domain.RankedReview
	err    error
	calls  int
	gotP   retrieval.Params
}

func (m *mockSearcher) Search(_ context.Context, p retrieval.Params) ([]domain.RankedReview, error) {
	m.calls++
	m.gotP = p
	return m.ranked, m.err
}

type mockGenerator struct {
	answer string
	err    error
	calls  int

	gotSystem string
	gotUser   string
}

func (m *mockGenerator) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	m.gotSystem = systemPrompt
	m.gotUser = userPrompt
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

type mockCache struct {
	hit    semcache.Hit
	hasHit bool
	setErr error

	getCalls int
	setCalls int

	gotQuestion string
	gotAnswer   string
	gotReviews  int
}

func (m *mockCache) Get(_ context.Context, _ string) (semcache.Hit, bool) {
	m.getCalls++
	return m.hit, m.hasHit
}

func (m *mockCache) Set(_ context.Context, question, answer string, numReviewsUsed int) error {
	m.setCalls++
	m.gotQuestion = question
	m.gotAnswer = answer
	m.gotReviews = numReviewsUsed
	return m.setErr
}

func newTestService(t *testing.T, searcher *mockSearcher, generator *mockGenerator, cache Cache) *Service {
	t.Helper()
	llm := breaker.New(breaker.Config{Name: "llm"})
	return New(searcher, generator, cache, llm, zap.NewNop())
}

func rankedFixture() []domain.RankedReview {
	return []domain.RankedReview{
		{
			Index: 0,
			Review: domain.Review{
				Branch:           "Disneyland_California",
				Rating:           "5",
				Period:           "2019-4",
				ReviewerLocation: "United States",
				Text:             "The rides were amazing",
			},
			KeywordScore:  1.0,
			CombinedScore: 0.4,
		},
		{
			Index: 1,
			Review: domain.Review{
				Branch:           "Disneyland_California",
				Rating:           "3",
				Period:           "2019-5",
				ReviewerLocation: "Canada",
				Text:             "Long lines",
			},
			KeywordScore:  0.5,
			CombinedScore: 0.2,
		},
	}
}
