package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/IshaanNene/napwatch/internal/config"
)

// LLMProvider names a chat backend.
type LLMProvider string

const (
	ProviderOllama LLMProvider = "ollama"
	ProviderOpenAI LLMProvider = "openai"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// LLMClient sends single-turn prompts to an Ollama or OpenAI-compatible server.
// Sampling uses temperature 0.
type LLMClient struct {
	cfg    config.LLMConfig
	http   *http.Client
	logger *slog.Logger
}

// NewLLMClient creates a client for cfg.Provider.
func NewLLMClient(cfg config.LLMConfig, logger *slog.Logger) *LLMClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &LLMClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger.With("component", "llm_client", "provider", cfg.Provider, "model", cfg.Model),
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Format  string        `json:"format"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate returns the model's reply to prompt.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var (
		reply string
		err   error
	)
	switch LLMProvider(c.cfg.Provider) {
	case ProviderOllama:
		reply, err = c.ollama(ctx, prompt)
	case ProviderOpenAI:
		reply, err = c.chat(ctx, prompt)
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", c.cfg.Provider)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.cfg.Provider, err)
	}

	c.logger.Debug("llm replied", "duration", time.Since(start), "chars", len(reply))
	return reply, nil
}

func (c *LLMClient) ollama(ctx context.Context, prompt string) (string, error) {
	req := ollamaRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Format: "json",
		Options: ollamaOptions{
			NumPredict: c.cfg.MaxTokens,
		},
	}
	var resp ollamaResponse
	if err := c.postJSON(ctx, c.url(c.cfg.Endpoint, "/api/generate"), req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *LLMClient) chat(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.cfg.MaxTokens,
	}
	endpoint := c.cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}

	var resp chatResponse
	if err := c.postJSON(ctx, c.url(endpoint, "/chat/completions"), req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *LLMClient) url(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func (c *LLMClient) postJSON(ctx context.Context, url string, in, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(in); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// firstObject returns the first balanced {...} in s, or "{}" when there is none.
// Models often wrap their JSON in prose.
func firstObject(s string) string {
	open := strings.IndexByte(s, '{')
	if open < 0 {
		return "{}"
	}
	depth := 0
	for i, ch := range s[open:] {
		if ch == '{' {
			depth++
			continue
		}
		if ch == '}' {
			if depth--; depth == 0 {
				return s[open : open+i+1]
			}
		}
	}
	return "{}"
}
