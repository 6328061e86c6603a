// Package openai provides the quality translation path backed by the OpenAI
// chat completions API. One request returns the high-fidelity translation
// plus the optional coaching fields (analysis, strategy, suggested answer).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ai-live-interpreter-service/internal/translate"
)

const systemPrompt = `You are a live conversation interpreter and coach.
Translate the given utterance faithfully and, when it is a question directed
at the user, suggest a concise answer. Respond with a single JSON object:
{"translation": "...", "analysis": "...", "strategy": "...",
 "answer": "...", "answerTranslation": "..."}
Only "translation" is required; omit fields you cannot fill.`

// Client implements translate.QualityBackend via chat completions.
type Client struct {
	api   openai.Client
	model string
}

// New creates a quality backend client.
func New(apiKey, model string) *Client {
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(apiKey)),
		model: model,
	}
}

// Request performs one quality translation round trip. Latency is measured
// here so the caller can surface it on the message.
func (c *Client) Request(ctx context.Context, req translate.QualityRequest) (translate.QualityResult, error) {
	start := time.Now()

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(req)),
		},
	})
	if err != nil {
		return translate.QualityResult{}, fmt.Errorf("quality backend request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return translate.QualityResult{}, errors.New("quality backend returned no choices")
	}

	result, err := parseResult(completion.Choices[0].Message.Content)
	if err != nil {
		return translate.QualityResult{}, err
	}
	result.LatencyMs = time.Since(start).Milliseconds()
	return result, nil
}

func buildPrompt(req translate.QualityRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source language: %s\nTarget language: %s\n", req.SourceLang, req.TargetLang)
	if req.Context != "" {
		fmt.Fprintf(&b, "Recent conversation:\n%s\n", req.Context)
	}
	fmt.Fprintf(&b, "Utterance:\n%s", req.Text)
	return b.String()
}

// parseResult decodes the model's JSON reply. A reply that is not valid JSON
// is treated as a plain translation rather than an error.
func parseResult(content string) (translate.QualityResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if content == "" {
		return translate.QualityResult{}, errors.New("quality backend returned empty content")
	}

	var payload struct {
		Translation       string `json:"translation"`
		Analysis          string `json:"analysis"`
		Strategy          string `json:"strategy"`
		Answer            string `json:"answer"`
		AnswerTranslation string `json:"answerTranslation"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return translate.QualityResult{Translation: content}, nil
	}
	if strings.TrimSpace(payload.Translation) == "" {
		return translate.QualityResult{}, errors.New("quality backend returned no translation")
	}

	return translate.QualityResult{
		Translation:       payload.Translation,
		Analysis:          payload.Analysis,
		Strategy:          payload.Strategy,
		Answer:            payload.Answer,
		AnswerTranslation: payload.AnswerTranslation,
	}, nil
}
