package grade

import (
	"context"

	"github.com/lecturelab/examgen/internal/i18n"
)

// Score tiers with inclusive lower bounds: below 50 the student reviews
// fundamentals, from 50 up to (not including) 75 application practice,
// at 75 and above mastery and extension work.
const (
	tierApplication = 50
	tierMastery     = 75
)

var tierMessages = struct {
	foundational []string
	application  []string
	mastery      []string
}{
	foundational: []string{"SuggestFundamentals", "SuggestSummaries", "SuggestDefinitions"},
	application:  []string{"SuggestApplication", "SuggestTimeManagement", "SuggestDiagrams"},
	mastery:      []string{"SuggestExcellent", "SuggestAdvanced", "SuggestHelpPeers"},
}

// Suggest maps a score to its tier of localized study suggestions.
func Suggest(ctx context.Context, score float64) []string {
	var ids []string
	switch {
	case score < tierApplication:
		ids = tierMessages.foundational
	case score < tierMastery:
		ids = tierMessages.application
	default:
		ids = tierMessages.mastery
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, i18n.T(ctx, id))
	}
	return out
}
