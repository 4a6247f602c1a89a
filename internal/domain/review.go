package domain

// ContextTextLimit caps review text length when assembling LLM context.
const ContextTextLimit = 500

// Review is a single customer review record. Reviews are owned by the
// review store and immutable after load; other components only read them.
type Review struct {
	Branch           string
	Rating           string
	Period           string // Year_Month in the source data
	ReviewerLocation string
	Text             string
}

// ContextText returns the review text truncated for context assembly.
func (r Review) ContextText() string {
	if len(r.Text) > ContextTextLimit {
		return r.Text[:ContextTextLimit]
	}
	return r.Text
}

// Candidate pairs a review with its stable positional index in the store.
type Candidate struct {
	Index  int
	Review Review
}

// ScoreMap maps review index to a relevance score. Keyword scores live in
// [0, 1.5] (verbatim-phrase boost), semantic scores in [0, 1].
type ScoreMap map[int]float64

// RankedReview is one row of a ranked retrieval result.
type RankedReview struct {
	Index         int
	Review        Review
	KeywordScore  float64
	SemanticScore float64
	CombinedScore float64
}
