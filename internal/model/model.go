package model

import "strings"

// Format identifies a supported document format. The set is closed:
// extraction dispatches with an exhaustive switch over these values,
// never over raw extension strings.
type Format string

const (
	// FormatPDF is a PDF document.
	FormatPDF Format = "pdf"
	// FormatLegacySlide is a binary .ppt slide deck. It cannot be decoded
	// directly and must pass through the format converter first.
	FormatLegacySlide Format = "legacy-slide"
	// FormatModernSlide is an OOXML .pptx slide deck.
	FormatModernSlide Format = "modern-slide"
	// FormatWord is an OOXML .docx word-processing document.
	FormatWord Format = "word"
)

// ParseFormat maps a file extension (without the dot) to its Format.
// The second return value is false for unsupported extensions.
func ParseFormat(ext string) (Format, bool) {
	switch strings.ToLower(ext) {
	case "pdf":
		return FormatPDF, true
	case "ppt":
		return FormatLegacySlide, true
	case "pptx":
		return FormatModernSlide, true
	case "docx":
		return FormatWord, true
	}
	return "", false
}

// QuestionType is the variant of a generated question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	FillInBlank    QuestionType = "fill_in_blank"
	ShortAnswer    QuestionType = "short_answer"
)

// Document is an uploaded lecture document. Text is produced once during
// upload and immutable afterwards.
type Document struct {
	ID     string
	Format Format
	Raw    []byte
	Text   string
}

// Question is a single generated exam question. Options is set only for
// multiple choice questions and then holds exactly 4 entries; the
// canonical Answer should match one of them case-insensitively.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"question"`
	Options []string     `json:"options,omitempty"`
	Answer  string       `json:"answer"`
}

// ExamSet is the ordered question set generated for one document.
// Question IDs are unique within a set.
type ExamSet struct {
	DocumentID string     `json:"filename"`
	Questions  []Question `json:"questions"`
}

// AnswerSubmission maps a question ID (or the question prompt, for
// transports that do not carry IDs) to the raw submitted answer.
type AnswerSubmission map[string]string

// Mismatch records one incorrectly answered question.
type Mismatch struct {
	Question      string `json:"question"`
	YourAnswer    string `json:"your_answer"`
	CorrectAnswer string `json:"correct_answer"`
}

// GradingResult is the on-demand graded report for one document. It is
// derived from the stores and never persisted.
type GradingResult struct {
	Score       float64    `json:"score"`
	Correct     int        `json:"correct"`
	Total       int        `json:"total"`
	Feedback    []Mismatch `json:"feedback"`
	Suggestions []string   `json:"suggestions"`
}

// Quota is the requested distribution of question types for generation.
type Quota struct {
	MultipleChoice int
	FillInBlank    int
	ShortAnswer    int
}

// Total returns the overall number of requested questions.
func (q Quota) Total() int {
	return q.MultipleChoice + q.FillInBlank + q.ShortAnswer
}
