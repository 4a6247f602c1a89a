package ask

import "strings"

// Complexity labels.
const (
	ComplexitySimple  = "simple"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// Complexity is a heuristic estimate of how demanding a question is.
type Complexity struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

var (
	comparativeWords = []string{"compare", "versus", "vs", "better", "worse", "difference", "similar"}
	analyticalWords  = []string{"why", "how", "analyze", "trend", "pattern", "correlation"}
	branchMentions   = []string{"california", "hong kong", "paris"}
)

// EstimateComplexity scores a question in [0,1] from its length,
// comparative/analytical wording, branch mentions and question marks.
func EstimateComplexity(question string) Complexity {
	score := 0.0
	q := strings.ToLower(question)

	wordCount := len(strings.Fields(question))
	switch {
	case wordCount > 20:
		score += 0.2
	case wordCount > 10:
		score += 0.1
	}

	if containsAny(q, comparativeWords) {
		score += 0.2
	}
	if containsAny(q, analyticalWords) {
		score += 0.3
	}

	branches := 0
	for _, b := range branchMentions {
		if strings.Contains(q, b) {
			branches++
		}
	}
	switch {
	case branches > 1:
		score += 0.3
	case branches == 1:
		score += 0.1
	}

	if strings.Count(question, "?") > 1 {
		score += 0.2
	}

	if score > 1 {
		score = 1
	}

	label := ComplexitySimple
	switch {
	case score >= 0.7:
		label = ComplexityComplex
	case score >= 0.3:
		label = ComplexityMedium
	}

	return Complexity{Score: score, Label: label}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
