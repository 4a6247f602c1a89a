package retrieval

import (
	"strings"

	"github.com/parklens/parklens/internal/domain"
)

// verbatimBoost multiplies the overlap score when the whole query appears
// verbatim in the review text.
const verbatimBoost = 1.5

// ScoreKeyword scores every candidate by query-word overlap. The base
// score is |query words ∩ text words| / |query words|, boosted by 1.5x
// for a verbatim phrase match, so scores live in [0, 1.5].
func ScoreKeyword(candidates []domain.Candidate, query string) domain.ScoreMap {
	scores := make(domain.ScoreMap, len(candidates))

	queryLower := strings.ToLower(query)
	queryWords := wordSet(queryLower)
	if len(queryWords) == 0 {
		for _, c := range candidates {
			scores[c.Index] = 0
		}
		return scores
	}

	for _, c := range candidates {
		textLower := strings.ToLower(c.Review.Text)
		textWords := wordSet(textLower)

		overlap := 0
		for w := range queryWords {
			if _, ok := textWords[w]; ok {
				overlap++
			}
		}

		score := float64(overlap) / float64(len(queryWords))
		if strings.Contains(textLower, queryLower) {
			score *= verbatimBoost
		}
		scores[c.Index] = score
	}

	return scores
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
