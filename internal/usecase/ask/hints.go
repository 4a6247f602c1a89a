package ask

import "strings"

// DetectFilters extracts branch and reviewer-location filters from plain
// mentions in the question. First branch mention wins, in a fixed
// precedence order.
func DetectFilters(question string) (branch, location string) {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "hong kong"):
		branch = "Hong_Kong"
	case strings.Contains(q, "california"):
		branch = "California"
	case strings.Contains(q, "paris"):
		branch = "Paris"
	}

	if strings.Contains(q, "australia") {
		location = "Australia"
	}
	return branch, location
}
