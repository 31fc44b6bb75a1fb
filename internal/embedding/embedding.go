package embedding

import (
	"fmt"

	"bostr/internal/config"
	"bostr/internal/rag/interfaces"
)

// ModelType enumerates the supported embedding providers.
type ModelType string

const (
	OpenAI ModelType = "openai"
	Ollama ModelType = "ollama"
	Gemini ModelType = "gemini"
)

// NewModel is a factory returning the embedding client for the configured
// provider.
func NewModel(cfg *config.EmbeddingConfig) (interfaces.EmbeddingModel, error) {
	switch ModelType(cfg.Provider) {
	case OpenAI:
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	case Ollama:
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	case Gemini:
		return NewGeminiModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
