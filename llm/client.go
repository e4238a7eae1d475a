// Package llm provides text-completion clients. Responses are returned as
// opaque text.
package llm

import (
	"context"
	"fmt"
	"time"
)

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider  string        `yaml:"provider"`
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// New picks a client by provider name; gemini is the default.
func New(cfg Config) (Completer, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiClient(cfg), nil
	case "deepseek":
		return NewDeepSeekClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
