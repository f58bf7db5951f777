package llm

import (
	"context"
	"fmt"

	"github.com/markdave123-py/mindease/internal/config"
	"github.com/markdave123-py/mindease/internal/core"
)

// NewProvider builds the oracle selected by cfg.LLMProvider. The returned
// close function releases the client and is never nil.
func NewProvider(ctx context.Context, cfg *config.Config) (core.LLMProvider, func() error, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize gemini: %w", err)
		}
		return g, g.Close, nil
	case config.ProviderOpenAI:
		o, err := NewOpenAILLM(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize openai: %w", err)
		}
		return o, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
