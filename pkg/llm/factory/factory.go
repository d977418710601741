package factory

import (
	"fmt"
	"net/http"
	"time"

	"ai-relay-bot/pkg/llm"
	"ai-relay-bot/pkg/llm/langchain"

	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderDeepSeek = "deepseek"
	ProviderOpenAI   = "openai"
	ProviderOllama   = "ollama"
)

const (
	DeepSeekBaseURL = "https://api.deepseek.com"
	DeepSeekModel   = "deepseek-chat"
)

// Settings selects and configures the chat backend.
type Settings struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	model, err := resolveModel(s.Provider, s.Model)
	if err != nil {
		return nil, err
	}

	switch s.Provider {
	case ProviderDeepSeek, ProviderOpenAI:
		baseURL := s.BaseURL
		if baseURL == "" && s.Provider == ProviderDeepSeek {
			baseURL = DeepSeekBaseURL
		}
		opts := []openai.Option{
			openai.WithToken(s.APIKey),
			openai.WithModel(model),
			openai.WithHTTPClient(client),
		}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("init %s client: %w", s.Provider, err)
		}
		return langchain.NewProvider(s.Provider, m), nil
	case ProviderOllama:
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		m, err := ollama.New(
			ollama.WithServerURL(baseURL),
			ollama.WithModel(model),
			ollama.WithHTTPClient(client),
		)
		if err != nil {
			return nil, fmt.Errorf("init ollama client: %w", err)
		}
		return langchain.NewProvider(s.Provider, m), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}

// resolveModel applies the DeepSeek default model; other providers must name
// one.
func resolveModel(provider, model string) (string, error) {
	switch provider {
	case ProviderDeepSeek:
		if model == "" {
			return DeepSeekModel, nil
		}
		return model, nil
	case ProviderOpenAI, ProviderOllama:
		if model == "" {
			return "", fmt.Errorf("%s provider requires a model name", provider)
		}
		return model, nil
	default:
		return "", fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}
