package retrieval

import (
	"sort"

	"github.com/parklens/parklens/internal/domain"
)

// Fuse combines keyword and semantic scores into one ranking.
// combined = kwWeight*keyword + semWeight*semantic, a missing side
// contributing 0. Ties sort by lower review index so the ranking is
// deterministic.
func Fuse(candidates []domain.Candidate, keyword, semantic domain.ScoreMap, kwWeight, semWeight float64, maxResults int) []domain.RankedReview {
	byIndex := make(map[int]domain.Review, len(candidates))
	for _, c := range candidates {
		byIndex[c.Index] = c.Review
	}

	seen := make(map[int]struct{}, len(keyword)+len(semantic))
	ranked := make([]domain.RankedReview, 0, len(keyword)+len(semantic))

	add := func(idx int) {
		if _, dup := seen[idx]; dup {
			return
		}
		seen[idx] = struct{}{}

		review, ok := byIndex[idx]
		if !ok {
			return
		}
		kw := keyword[idx]
		sem := semantic[idx]
		ranked = append(ranked, domain.RankedReview{
			Index:         idx,
			Review:        review,
			KeywordScore:  kw,
			SemanticScore: sem,
			CombinedScore: kwWeight*kw + semWeight*sem,
		})
	}

	for idx := range keyword {
		add(idx)
	}
	for idx := range semantic {
		add(idx)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CombinedScore != ranked[j].CombinedScore {
			return ranked[i].CombinedScore > ranked[j].CombinedScore
		}
		return ranked[i].Index < ranked[j].Index
	})

	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}
