package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"offlinemind/src/logutil"
)

const DefaultTimeout = 30 * time.Second

var (
	ErrNotInitialized = errors.New("LLM client not initialized")
	ErrEmptyResponse  = errors.New("empty response from model")
)

type Config struct {
	BaseURL  string
	Model    string
	Provider string
	APIKey   string
	Timeout  time.Duration
}

// Backend is one inference server protocol.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
	Name() string
}

type Client struct {
	model   string
	timeout time.Duration
	backend Backend
}

// New builds a client for the configured provider ("ollama" or "openai").
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var backend Backend
	switch cfg.Provider {
	case "openai":
		backend = newOpenAIBackend(cfg, timeout)
	default:
		backend = newOllamaBackend(cfg, timeout)
	}
	return NewWithBackend(cfg.Model, timeout, backend)
}

// NewWithBackend wires a custom backend, mostly for tests.
func NewWithBackend(model string, timeout time.Duration, backend Backend) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{model: model, timeout: timeout, backend: backend}
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Ping verifies the server is reachable and serves the configured model.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return ErrNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.backend.Ping(ctx)
}

// Generate sends a prompt and returns the completion, bounded by the client timeout.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.backend == nil {
		return "", ErrNotInitialized
	}
	if c.model == "" {
		return "", fmt.Errorf("model is required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.backend.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Explain asks for a short explanation of text in language. It never fails:
// errors are turned into a message suitable for the popup.
func (c *Client) Explain(ctx context.Context, text, language string) string {
	start := time.Now()
	resp, err := c.Generate(ctx, BuildPrompt(text, language))
	if err != nil {
		log.Printf("llm: explain failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return FormatError(err, c.Model())
	}
	log.Printf("llm: explain completed in %s: %q", time.Since(start).Round(time.Millisecond), logutil.SanitizeForLogging(resp))
	return resp
}

// BuildPrompt embeds text and language exactly once in the instruction template.
func BuildPrompt(text, language string) string {
	return fmt.Sprintf("Provide a short and concise explanation for the following text in %s. "+
		"If it is a word, provide a good definition and an example sentence for its daily use. "+
		"If it is a sentence or a phrase, provide a clear and simple explanation without complex words. "+
		"Do not write an essay or big paragraphs, just the explanation. "+
		"The text to explain is: '%s'", language, text)
}

// FormatError renders a failed request for display.
func FormatError(err error, model string) string {
	return fmt.Sprintf("Error connecting to the inference server: %v. "+
		"Please ensure the server is running and the '%s' model is available.", err, model)
}
