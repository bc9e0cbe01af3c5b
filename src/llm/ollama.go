package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	generatePath = "/api/generate"
	tagsPath     = "/api/tags"
)

// Ollama API structures
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type GenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

type ollamaBackend struct {
	baseURL string
	model   string
	http    *http.Client
}

func newOllamaBackend(cfg Config, timeout time.Duration) *ollamaBackend {
	return &ollamaBackend{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
	}
}

func (b *ollamaBackend) Name() string { return "ollama" }

func (b *ollamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(GenerateRequest{Model: b.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+generatePath, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var response GenerateResponse
	decodeErr := json.Unmarshal(body, &response)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && response.Error != "" {
			return "", fmt.Errorf("server returned status %d: %s", resp.StatusCode, response.Error)
		}
		return "", fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if response.Error != "" {
		return "", fmt.Errorf("server error: %s", response.Error)
	}
	return response.Response, nil
}

func (b *ollamaBackend) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+tagsPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable at %s: %w", b.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("failed to decode model list: %w", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name, m.Model)
	}
	if !hasModel(names, b.model) {
		return fmt.Errorf("model '%s' is not available on %s", b.model, b.baseURL)
	}
	return nil
}

// hasModel matches "gemma3n" against "gemma3n" or any "gemma3n:<tag>".
func hasModel(names []string, model string) bool {
	for _, n := range names {
		if n == model || strings.HasPrefix(n, model+":") {
			return true
		}
	}
	return false
}
