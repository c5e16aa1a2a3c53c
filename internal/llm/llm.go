// Package llm generates exams from lecture text through an
// OpenAI-compatible API and validates the replies.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lecturelab/examgen/internal/llm/prompts"
	"github.com/lecturelab/examgen/internal/model"
)

// Config holds the generation settings for the client. Quota and
// MaxSourceChars are explicit configuration, never inferred.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	Quota          model.Quota
	MaxSourceChars int
	Timeout        time.Duration
}

// Client wraps an OpenAI-compatible API client for exam generation.
type Client struct {
	api *openai.Client
	cfg Config
}

// New creates a new LLM client. A missing API key is not an error here:
// it is detected on each generation call, so the server can start
// without credentials and report the problem per request.
func New(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api: openai.NewClientWithConfig(apiCfg),
		cfg: cfg,
	}
}

// GenerateExam asks the model for an exam over the given lecture text
// and validates the reply before returning it. A reply that fails
// validation yields zero questions; the caller may re-invoke with the
// same text, the client itself never retries.
func (c *Client) GenerateExam(ctx context.Context, documentID, text string) (model.ExamSet, error) {
	if c.cfg.APIKey == "" {
		return model.ExamSet{}, model.Errf(model.KindAuthentication,
			"no API key configured for the language model service")
	}

	prompt, err := prompts.BuildGeneratePrompt(text, c.cfg.Quota, c.cfg.MaxSourceChars)
	if err != nil {
		return model.ExamSet{}, fmt.Errorf("build generation prompt: %w", err)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return model.ExamSet{}, classifyAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return model.ExamSet{}, model.Errf(model.KindMalformedGeneration, "model returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("generation reply", "document", documentID, "raw", raw)

	return ValidateReply(documentID, []byte(raw))
}

// classifyAPIError separates credential rejections from other API
// failures, which stay unclassified and surface as server errors.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return model.E(model.KindAuthentication, "language model service rejected the credential", err)
		}
	}
	return fmt.Errorf("LLM API call: %w", err)
}
