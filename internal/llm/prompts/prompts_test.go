package prompts

import (
	"strings"
	"testing"

	"github.com/lecturelab/examgen/internal/model"
)

func TestBuildGeneratePrompt(t *testing.T) {
	quota := model.Quota{MultipleChoice: 30, FillInBlank: 15, ShortAnswer: 5}

	prompt, err := BuildGeneratePrompt("Newton's laws of motion.", quota, 3000)
	if err != nil {
		t.Fatalf("BuildGeneratePrompt: %v", err)
	}

	for _, want := range []string{
		"exactly 30 multiple choice",
		"15 fill-in-the-blank",
		"5 short answer",
		"exactly 4 entries",
		`"multiple_choice"`,
		`"fill_in"`,
		`"short_answer"`,
		"Newton's laws of motion.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildGeneratePromptTruncates(t *testing.T) {
	quota := model.Quota{MultipleChoice: 1}
	text := strings.Repeat("a", 50) + "OVERFLOW"

	prompt, err := BuildGeneratePrompt(text, quota, 50)
	if err != nil {
		t.Fatalf("BuildGeneratePrompt: %v", err)
	}
	if strings.Contains(prompt, "OVERFLOW") {
		t.Error("prompt should not contain text past the truncation limit")
	}
	if !strings.Contains(prompt, strings.Repeat("a", 50)) {
		t.Error("prompt should contain the first 50 characters of the source")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "abc", 10, "abc"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"over limit", "abcdef", 3, "abc"},
		{"no limit", "abcdef", 0, "abcdef"},
		{"multibyte runes", "привет", 3, "при"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}
