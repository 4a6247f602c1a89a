package retrieval

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/parklens/parklens/internal/domain"
)

type mockSource struct {
	reviews []domain.Review
	err     error
}

func (m *mockSource) All() ([]domain.Review, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.reviews, nil
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

type mockSearcher struct {
	scores domain.ScoreMap
	err    error
	calls  int

	gotK       int
	gotIndexes []int
}

func (m *mockSearcher) Query(_ context.Context, _ []float32, k int, reviewIndexes []int) (domain.ScoreMap, error) {
	m.calls++
	m.gotK = k
	m.gotIndexes = reviewIndexes
	if m.err != nil {
		return nil, m.err
	}
	return m.scores, nil
}

func testReviews() []domain.Review {
	return []domain.Review{
		{Branch: "Disneyland_California", ReviewerLocation: "United States", Text: "The rides were amazing and fast"},
		{Branch: "Disneyland_California", ReviewerLocation: "Canada", Text: "Long lines but great rides"},
		{Branch: "Disneyland_California", ReviewerLocation: "Australia", Text: "Food was expensive"},
		{Branch: "Disneyland_Paris", ReviewerLocation: "France", Text: "Beautiful castle and nice rides"},
		{Branch: "Disneyland_Paris", ReviewerLocation: "Germany", Text: "Staff was friendly"},
	}
}

func newTestRetriever(t *testing.T, e *mockEmbedder, s *mockSearcher) *Retriever {
	t.Helper()
	return NewRetriever(e, s, zap.NewNop())
}

func newTestEngine(t *testing.T, source *mockSource, semantic *Retriever) *Engine {
	t.Helper()
	return NewEngine(source, semantic, Config{MaxResults: 10}, zap.NewNop())
}
