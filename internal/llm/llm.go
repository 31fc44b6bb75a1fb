package llm

import (
	"fmt"

	"bostr/internal/config"
	"bostr/internal/rag/interfaces"
)

// Provider enumerates the supported chat completion backends.
type Provider string

const (
	OpenAI Provider = "openai"
	Ollama Provider = "ollama"
	Gemini Provider = "gemini"
)

// NewClient is a factory returning an LLM client for the given provider.
// provider and modelName may be empty, in which case the configured default
// provider and its configured model are used. Chat requests use this to pick
// a backend per request.
func NewClient(cfg *config.LLMConfig, provider, modelName string) (interfaces.LLM, error) {
	if provider == "" {
		provider = cfg.Provider
	}

	switch Provider(provider) {
	case OpenAI:
		model := cfg.OpenAI.Model
		if modelName != "" {
			model = modelName
		}
		return NewOpenAI(model, cfg.OpenAI.APIKey)
	case Ollama:
		model := cfg.Ollama.Model
		if modelName != "" {
			model = modelName
		}
		return NewOllama(model, cfg.Ollama.BaseURL)
	case Gemini:
		model := cfg.Gemini.Model
		if modelName != "" {
			model = modelName
		}
		return NewGemini(model, cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
