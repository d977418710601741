// Package llm is the provider-neutral contract for chat models.
package llm

import (
	"context"
)

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Option tunes a single call.
type Option func(*Options)

// Options holds per-call overrides. Zero values mean "provider default".
type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string
}

// ApplyOptions folds opts into a fresh Options value.
func ApplyOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider is a chat-completion backend. Implementations return the raw
// completion text; interpreting it is the caller's job.
type LLMProvider interface {
	// Chat sends the full transcript, system prompt first.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single user prompt.
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
