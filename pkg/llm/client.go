package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ikkim/lunchmap-backend/config"
)

// Client generates a completion for a single prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClient builds the backend selected by cfg.Provider.
func NewClient(cfg config.LLMConfig) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return &ollamaClient{
			baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
			model:       cfg.Model,
			temperature: cfg.Temperature,
			httpClient:  httpClient,
		}, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is not configured")
		}
		baseURL := cfg.OpenAIBaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return &openAIClient{
			baseURL:     strings.TrimRight(baseURL, "/"),
			apiKey:      cfg.APIKey,
			model:       cfg.Model,
			temperature: cfg.Temperature,
			httpClient:  httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
