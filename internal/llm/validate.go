package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/lecturelab/examgen/internal/model"
)

// replySchema is the contract a generation reply must satisfy before
// any question enters the store. Multiple choice questions carry
// exactly 4 options.
const replySchema = `{
  "type": "object",
  "required": ["multiple_choice", "fill_in", "short_answer"],
  "properties": {
    "multiple_choice": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "options", "answer"],
        "properties": {
          "id": {"type": ["string", "integer"]},
          "question": {"type": "string", "minLength": 1},
          "options": {
            "type": "array",
            "items": {"type": "string"},
            "minItems": 4,
            "maxItems": 4
          },
          "answer": {"type": "string", "minLength": 1}
        }
      }
    },
    "fill_in": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "properties": {
          "id": {"type": ["string", "integer"]},
          "question": {"type": "string", "minLength": 1},
          "answer": {"type": "string", "minLength": 1}
        }
      }
    },
    "short_answer": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "properties": {
          "id": {"type": ["string", "integer"]},
          "question": {"type": "string", "minLength": 1},
          "answer": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schemaErr  error
	compiled   *gojsonschema.Schema
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiled, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(replySchema))
	})
	return compiled, schemaErr
}

// generationReply mirrors the JSON structure the model is instructed to
// return.
type generationReply struct {
	MultipleChoice []replyQuestion `json:"multiple_choice"`
	FillIn         []replyQuestion `json:"fill_in"`
	ShortAnswer    []replyQuestion `json:"short_answer"`
}

type replyQuestion struct {
	ID       any      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// ValidateReply parses and validates a raw generation reply against the
// question schema. Acceptance is all-or-nothing: a reply that fails
// validation, or that contains no questions at all, contributes zero
// questions. Question IDs from the reply are kept when present and
// unique; anything else gets a fresh sequential ID so IDs stay unique
// within the set.
func ValidateReply(documentID string, raw []byte) (model.ExamSet, error) {
	schema, err := compiledSchema()
	if err != nil {
		return model.ExamSet{}, fmt.Errorf("compile reply schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return model.ExamSet{}, model.E(model.KindMalformedGeneration, "reply is not valid JSON", err)
	}
	if !result.Valid() {
		return model.ExamSet{}, model.Errf(model.KindMalformedGeneration,
			"reply failed schema validation: %s", schemaErrors(result))
	}

	var reply generationReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return model.ExamSet{}, model.E(model.KindMalformedGeneration, "decode reply", err)
	}

	set := model.ExamSet{DocumentID: documentID}
	seen := make(map[string]bool)

	add := func(questions []replyQuestion, typ model.QuestionType) {
		for _, rq := range questions {
			id := idString(rq.ID)
			if id == "" || seen[id] {
				id = nextID(seen, len(set.Questions)+1)
			}
			seen[id] = true

			q := model.Question{
				ID:     id,
				Type:   typ,
				Prompt: rq.Question,
				Answer: rq.Answer,
			}
			if typ == model.MultipleChoice {
				q.Options = rq.Options
				if !answerInOptions(rq.Answer, rq.Options) {
					// Data-quality defect, not fatal: the question still
					// grades against its canonical answer.
					slog.Warn("canonical answer is not among the options",
						"document", documentID, "question", id)
				}
			}
			set.Questions = append(set.Questions, q)
		}
	}

	add(reply.MultipleChoice, model.MultipleChoice)
	add(reply.FillIn, model.FillInBlank)
	add(reply.ShortAnswer, model.ShortAnswer)

	if len(set.Questions) == 0 {
		return model.ExamSet{}, model.Errf(model.KindMalformedGeneration, "reply contains no questions")
	}
	return set, nil
}

func nextID(seen map[string]bool, from int) string {
	for i := from; ; i++ {
		candidate := "q" + strconv.Itoa(i)
		if !seen[candidate] {
			return candidate
		}
	}
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", id)
	}
}

func answerInOptions(answer string, options []string) bool {
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(opt)) {
			return true
		}
	}
	return false
}

func schemaErrors(result *gojsonschema.Result) string {
	var parts []string
	for _, e := range result.Errors() {
		parts = append(parts, e.String())
		if len(parts) == 3 {
			break
		}
	}
	return strings.Join(parts, "; ")
}
