package ask

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/parklens/parklens/internal/domain"
	"github.com/parklens/parklens/internal/repository/semcache"
)

func TestAsk_FullPath(t *testing.T) {
	searcher := &mockSearcher{ranked: rankedFixture()}
	generator := &mockGenerator{answer: "The rides are well liked."}
	cache := &mockCache{}
	s := newTestService(t, searcher, generator, cache)

	answer, err := s.Ask(context.Background(), "how are the rides in California?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Answer != "The rides are well liked." {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
	if answer.NumReviewsUsed != 2 {
		t.Errorf("expected 2 reviews used, got %d", answer.NumReviewsUsed)
	}
	if answer.Cached {
		t.Error("expected uncached answer")
	}
	if searcher.gotP.Branch != "California" {
		t.Errorf("expected California branch hint, got %q", searcher.gotP.Branch)
	}
	if cache.setCalls != 1 || cache.gotAnswer != "The rides are well liked." || cache.gotReviews != 2 {
		t.Errorf("cache set not recorded: %+v", cache)
	}
	if !strings.Contains(generator.gotUser, "Review 1:") {
		t.Errorf("context missing from prompt: %q", generator.gotUser)
	}
}

func TestAsk_CacheHitShortCircuits(t *testing.T) {
	searcher := &mockSearcher{}
	generator := &mockGenerator{}
	cache := &mockCache{
		hasHit: true,
		hit: semcache.Hit{
			Answer:           "Cached answer.",
			NumReviewsUsed:   3,
			Similarity:       0.97,
			OriginalQuestion: "how are the rides?",
		},
	}
	s := newTestService(t, searcher, generator, cache)

	answer, err := s.Ask(context.Background(), "are the rides good?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !answer.Cached {
		t.Fatal("expected cached answer")
	}
	if answer.Answer != "Cached answer." || answer.NumReviewsUsed != 3 {
		t.Errorf("unexpected answer: %+v", answer)
	}
	if answer.CacheSimilarity != 0.97 || answer.OriginalQuestion != "how are the rides?" {
		t.Errorf("cache metadata not carried: %+v", answer)
	}
	if searcher.calls != 0 || generator.calls != 0 {
		t.Error("cache hit must skip retrieval and generation")
	}
}

func TestAsk_NoCacheConfigured(t *testing.T) {
	searcher := &mockSearcher{ranked: rankedFixture()}
	generator := &mockGenerator{answer: "ok"}
	s := newTestService(t, searcher, generator, nil)

	answer, err := s.Ask(context.Background(), "how are the rides?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Answer != "ok" {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
}

func TestAsk_SearchErrorPropagates(t *testing.T) {
	searcher := &mockSearcher{err: domain.ErrStoreNotLoaded}
	s := newTestService(t, searcher, &mockGenerator{}, nil)

	_, err := s.Ask(context.Background(), "anything")
	if !errors.Is(err, domain.ErrStoreNotLoaded) {
		t.Errorf("expected ErrStoreNotLoaded, got %v", err)
	}
}

func TestAsk_GenerationErrorPropagates(t *testing.T) {
	searcher := &mockSearcher{ranked: rankedFixture()}
	generator := &mockGenerator{err: domain.ErrGenerationFailed}
	cache := &mockCache{}
	s := newTestService(t, searcher, generator, cache)

	_, err := s.Ask(context.Background(), "anything")
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
	if cache.setCalls != 0 {
		t.Error("failed generation must not be cached")
	}
}

func TestAsk_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	searcher := &mockSearcher{ranked: rankedFixture()}
	generator := &mockGenerator{err: errors.New("llm down")}
	s := newTestService(t, searcher, generator, nil)
	ctx := context.Background()

	// Default window 10, threshold 0.5: consecutive failures trip it.
	for range 6 {
		if _, err := s.Ask(ctx, "q"); err == nil {
			t.Fatal("expected error")
		}
	}

	calls := generator.calls
	_, err := s.Ask(ctx, "q")
	if !errors.Is(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if generator.calls != calls {
		t.Error("generator must not be invoked while circuit is open")
	}
}

func TestAsk_CacheSetFailureIsNotFatal(t *testing.T) {
	searcher := &mockSearcher{ranked: rankedFixture()}
	generator := &mockGenerator{answer: "ok"}
	cache := &mockCache{setErr: errors.New("redis down")}
	s := newTestService(t, searcher, generator, cache)

	answer, err := s.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Answer != "ok" {
		t.Errorf("unexpected answer: %q", answer.Answer)
	}
}

func TestAsk_ComplexityIncluded(t *testing.T) {
	searcher := &mockSearcher{ranked: rankedFixture()}
	generator := &mockGenerator{answer: "ok"}
	s := newTestService(t, searcher, generator, nil)

	answer, err := s.Ask(context.Background(), "why is California better than Paris? And how about food?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Complexity.Label != ComplexityComplex {
		t.Errorf("expected complex label, got %+v", answer.Complexity)
	}
}
