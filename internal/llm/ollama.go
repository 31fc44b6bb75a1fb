package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"

	"bostr/internal/rag/interfaces"
)

type OllamaClient struct {
	client *ollama.Client
	model  string
}

var _ interfaces.LLM = (*OllamaClient)(nil)

func NewOllama(model, baseURL string) (*OllamaClient, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama model is not set")
	}
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base url %q: %w", baseURL, err)
	}
	httpClient := &http.Client{Timeout: 300 * time.Second}
	return &OllamaClient{
		client: ollama.NewClient(u, httpClient),
		model:  model,
	}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &ollama.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var sb strings.Builder
	err := c.client.Generate(ctx, req, func(resp ollama.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}
	return sb.String(), nil
}
