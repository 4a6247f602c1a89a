package retrieval

import (
	"strings"

	"github.com/parklens/parklens/internal/domain"
)

// Filter narrows the full dataset to candidates matching the branch and
// location filters, preserving positional indexes.
func Filter(reviews []domain.Review, branch, location string) []domain.Candidate {
	candidates := make([]domain.Candidate, len(reviews))
	for i, r := range reviews {
		candidates[i] = domain.Candidate{Index: i, Review: r}
	}
	return FilterCandidates(candidates, branch, location)
}

// FilterCandidates applies normalized substring matching to an existing
// candidate set. An empty filter argument passes everything through; no
// match yields an empty set, never an error.
func FilterCandidates(candidates []domain.Candidate, branch, location string) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(candidates))
	branchNeedle := normalizeFilter(branch)
	locationNeedle := normalizeFilter(location)

	for _, c := range candidates {
		if branchNeedle != "" && !strings.Contains(normalizeFilter(c.Review.Branch), branchNeedle) {
			continue
		}
		if locationNeedle != "" && !strings.Contains(normalizeFilter(c.Review.ReviewerLocation), locationNeedle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// normalizeFilter lowercases and strips underscore, hyphen and space so
// "Hong_Kong", "hong kong" and "HongKong" compare equal.
func normalizeFilter(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, s)
}
