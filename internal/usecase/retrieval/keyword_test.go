package retrieval

import (
	"math"
	"testing"

	"github.com/parklens/parklens/internal/domain"
)

func candidatesFrom(texts ...string) []domain.Candidate {
	out := make([]domain.Candidate, len(texts))
	for i, text := range texts {
		out[i] = domain.Candidate{Index: i, Review: domain.Review{Text: text}}
	}
	return out
}

func TestScoreKeyword_Overlap(t *testing.T) {
	candidates := candidatesFrom(
		"the rides were great",     // both words
		"great food",               // one of two words
		"nothing relevant at all",  // zero overlap
	)

	scores := ScoreKeyword(candidates, "great rides")
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	if math.Abs(scores[0]-1.0) > 1e-9 {
		t.Errorf("expected full overlap score 1.0, got %f", scores[0])
	}
	if math.Abs(scores[1]-0.5) > 1e-9 {
		t.Errorf("expected half overlap score 0.5, got %f", scores[1])
	}
	if scores[2] != 0 {
		t.Errorf("expected zero score, got %f", scores[2])
	}
}

func TestScoreKeyword_VerbatimBoost(t *testing.T) {
	candidates := candidatesFrom(
		"we loved the great rides there", // verbatim "great rides"
		"the rides were great",           // same words, no verbatim phrase
	)

	scores := ScoreKeyword(candidates, "great rides")
	if scores[0] <= scores[1] {
		t.Errorf("verbatim match %f must beat word-only match %f", scores[0], scores[1])
	}
	if math.Abs(scores[0]-1.5) > 1e-9 {
		t.Errorf("expected boosted score 1.5, got %f", scores[0])
	}
}

func TestScoreKeyword_CaseInsensitive(t *testing.T) {
	candidates := candidatesFrom("The RIDES were Great")
	scores := ScoreKeyword(candidates, "GREAT rides")
	if math.Abs(scores[0]-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %f", scores[0])
	}
}

func TestScoreKeyword_EmptyQuery(t *testing.T) {
	candidates := candidatesFrom("some text")
	for _, query := range []string{"", "   "} {
		scores := ScoreKeyword(candidates, query)
		if scores[0] != 0 {
			t.Errorf("expected 0 for query %q, got %f", query, scores[0])
		}
	}
}

func TestScoreKeyword_RangeBound(t *testing.T) {
	candidates := candidatesFrom("rides rides rides rides")
	scores := ScoreKeyword(candidates, "rides")
	if scores[0] > 1.5 {
		t.Errorf("score above 1.5: %f", scores[0])
	}
}
