package ask

import (
	"fmt"
	"strings"

	"github.com/parklens/parklens/internal/domain"
)

const systemPrompt = "You are a helpful assistant that answers questions about theme parks " +
	"based on customer reviews. Use only the provided reviews to answer. " +
	"If the reviews don't contain enough information, say so."

// BuildContext renders ranked reviews as numbered blocks separated by
// "---". Review text is truncated for the prompt.
func BuildContext(reviews []domain.RankedReview) string {
	if len(reviews) == 0 {
		return "No relevant reviews found."
	}

	parts := make([]string, len(reviews))
	for i, r := range reviews {
		parts[i] = fmt.Sprintf(
			"Review %d:\nPark: %s\nRating: %s\nDate: %s\nReviewer Location: %s\nReview: %s\n",
			i+1,
			r.Review.Branch,
			r.Review.Rating,
			r.Review.Period,
			r.Review.ReviewerLocation,
			r.Review.ContextText(),
		)
	}
	return strings.Join(parts, "\n---\n")
}

func buildUserPrompt(question, reviewContext string) string {
	return fmt.Sprintf(
		"Based on these customer reviews:\n\n%s\n\nQuestion: %s\n\nPlease provide a concise answer based on the reviews above.",
		reviewContext, question,
	)
}
