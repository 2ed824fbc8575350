package generator

import (
	"context"
	"fmt"

	"github.com/imkonsowa/food-recs/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Ollama generates through a local Ollama server.
type Ollama struct {
	llm *ollama.LLM
}

func NewOllama(cfg config.Ollama) (*Ollama, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.Address()),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &Ollama{llm: llm}, nil
}

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return text, nil
}
