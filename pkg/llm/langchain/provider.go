package langchain

import (
	"context"
	"errors"
	"fmt"

	"ai-relay-bot/pkg/llm"

	"github.com/tmc/langchaingo/llms"
)

// Provider adapts any langchaingo model to llm.LLMProvider.
type Provider struct {
	name  string
	model llms.Model
}

// Ensure Provider implements LLMProvider
var _ llm.LLMProvider = &Provider{}

func NewProvider(name string, model llms.Model) *Provider {
	return &Provider{name: name, model: model}
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(opts...)

	messages := make([]llms.MessageContent, 0, len(history))
	for _, msg := range history {
		messages = append(messages, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}

	var callOpts []llms.CallOption
	if options.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(options.Temperature))
	}
	if options.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(options.MaxTokens))
	}
	if options.Model != "" {
		callOpts = append(callOpts, llms.WithModel(options.Model))
	}

	resp, err := p.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", p.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New(p.name + ": empty choices in response")
	}

	return resp.Choices[0].Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case llm.RoleSystem:
		return llms.ChatMessageTypeSystem
	case llm.RoleAssistant, "model":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
