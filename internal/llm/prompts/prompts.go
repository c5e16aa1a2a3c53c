// Package prompts builds exam generation prompts from embedded templates.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"

	"github.com/lecturelab/examgen/internal/model"
)

//go:embed generate.txt
var templateFS embed.FS

var (
	loadOnce sync.Once
	loadErr  error
	genTmpl  *template.Template
)

// GenerateData holds template data for the exam generation prompt.
type GenerateData struct {
	MultipleChoice int
	FillInBlank    int
	ShortAnswer    int
	SourceText     string
}

func load() error {
	loadOnce.Do(func() {
		content, err := templateFS.ReadFile("generate.txt")
		if err != nil {
			loadErr = fmt.Errorf("read prompt template: %w", err)
			return
		}
		genTmpl, loadErr = template.New("generate").Parse(string(content))
	})
	return loadErr
}

// BuildGeneratePrompt renders the generation prompt for the given source
// text and quota. The text is truncated to maxChars runes first, so the
// same document always produces the same prompt and the external service
// cost stays bounded.
func BuildGeneratePrompt(text string, quota model.Quota, maxChars int) (string, error) {
	if err := load(); err != nil {
		return "", err
	}

	data := GenerateData{
		MultipleChoice: quota.MultipleChoice,
		FillInBlank:    quota.FillInBlank,
		ShortAnswer:    quota.ShortAnswer,
		SourceText:     Truncate(text, maxChars),
	}

	var buf bytes.Buffer
	if err := genTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Truncate keeps the first n runes of s. Non-positive n means no limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
