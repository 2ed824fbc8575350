// Package generator wraps the hosted language models used to write
// recommendations. Every backend returns raw, untrusted text.
package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/imkonsowa/food-recs/config"
	"github.com/imkonsowa/food-recs/metrics"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type timed struct {
	next    Generator
	service string
	timeout time.Duration
}

// WithTimeout bounds every call to next by timeout and reports failures,
// timeouts included, as UPSTREAM errors.
func WithTimeout(next Generator, service string, timeout time.Duration) Generator {
	return &timed{next: next, service: service, timeout: timeout}
}

func (t *timed) Generate(ctx context.Context, prompt string) (text string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(t.service, start, err) }()

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	text, err = t.next.Generate(ctx, prompt)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return "", apperrors.Upstream(t.service, err)
	}

	return text, nil
}

// New builds the generator selected by cfg.Generator.Provider.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.Generator.Provider {
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return WithTimeout(g, "gemini", cfg.Generator.Timeout), nil
	case config.ProviderOllama:
		g, err := NewOllama(cfg.Ollama)
		if err != nil {
			return nil, err
		}
		return WithTimeout(g, "ollama", cfg.Generator.Timeout), nil
	default:
		return nil, apperrors.New(apperrors.CodeConfig, fmt.Sprintf("unknown generator provider %q", cfg.Generator.Provider))
	}
}
