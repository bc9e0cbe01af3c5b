package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// openAIBackend talks to OpenAI-compatible local servers (llama.cpp, LM Studio,
// Ollama's /v1 endpoint).
type openAIBackend struct {
	client  *openai.Client
	model   string
	baseURL string
}

func newOpenAIBackend(cfg Config, timeout time.Duration) *openAIBackend {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = base
	oc.HTTPClient = &http.Client{Timeout: timeout}
	return &openAIBackend{client: openai.NewClientWithConfig(oc), model: cfg.Model, baseURL: base}
}

func (b *openAIBackend) Name() string { return "openai" }

func (b *openAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (b *openAIBackend) Ping(ctx context.Context) error {
	models, err := b.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("server unreachable at %s: %w", b.baseURL, err)
	}
	ids := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		ids = append(ids, m.ID)
	}
	if !hasModel(ids, b.model) {
		return fmt.Errorf("model '%s' is not available on %s", b.model, b.baseURL)
	}
	return nil
}
