// Package grade scores a submitted exam against its canonical answers
// and maps scores to study suggestions.
package grade

import (
	"math"
	"strings"

	"github.com/lecturelab/examgen/internal/model"
)

// maxMismatches bounds the mistake list in a grading result.
const maxMismatches = 5

// Grade compares a submission to the canonical answers of an exam set.
// Answers are looked up by question ID with a fallback to the prompt
// text; a missing answer counts as an empty string, never an error.
// The result is deterministic for identical inputs.
func Grade(set model.ExamSet, sub model.AnswerSubmission) model.GradingResult {
	result := model.GradingResult{
		Total:    len(set.Questions),
		Feedback: []model.Mismatch{},
	}

	for _, q := range set.Questions {
		answer, ok := sub[q.ID]
		if !ok {
			answer = sub[q.Prompt]
		}

		if normalize(answer) == normalize(q.Answer) {
			result.Correct++
			continue
		}
		if len(result.Feedback) < maxMismatches {
			result.Feedback = append(result.Feedback, model.Mismatch{
				Question:      q.Prompt,
				YourAnswer:    answer,
				CorrectAnswer: q.Answer,
			})
		}
	}

	if result.Total > 0 {
		result.Score = round1(float64(result.Correct) / float64(result.Total) * 100)
	}
	return result
}

// normalize trims surrounding whitespace and case-folds. Nothing more:
// an exact normalized match is the sole correctness criterion for every
// question variant.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
