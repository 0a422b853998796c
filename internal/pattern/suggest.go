package pattern

import (
	"fmt"
	"sort"

	"github.com/rcliao/browser-memory/internal/model"
)

// SuggestionThreshold is the confidence a recommendation must exceed to be suggested.
const SuggestionThreshold = 0.6

// SuccessfulThreshold is the success rate above which a pattern counts as learned.
const SuccessfulThreshold = 0.7

// Suggest keeps actionable recommendations, highest confidence first.
func Suggest(recs []model.Recommendation) []model.Suggestion {
	out := []model.Suggestion{}
	for _, r := range recs {
		if r.Confidence <= SuggestionThreshold {
			continue
		}
		expected := r.TypicalResult
		if expected == "" && r.Data != nil {
			expected = r.Data.TypicalResult
		}
		if expected == "" {
			expected = "Unknown"
		}
		out = append(out, model.Suggestion{
			Action:         r.Action,
			Confidence:     r.Confidence,
			Reason:         fmt.Sprintf("Successful %d times before", r.BasedOnExperiences),
			ExpectedResult: expected,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}
