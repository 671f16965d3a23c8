// Package generate defines the generation executor collaborator: the
// single call the engine makes per step or retry attempt.
package generate

import (
	"context"
	"fmt"

	"github.com/weaverhq/weaver/internal/adapter"
)

// Request carries one generation attempt. The offsets let the retry layer
// nudge sampling and output budget without knowing provider specifics.
type Request struct {
	Prompt            string
	SystemPrompt      string
	Context           string
	TemperatureOffset float64
	TokenLimitOffset  int
}

// Executor performs one generation call. Failures must return a descriptive
// error: the retry layer inspects the message for strategy hints.
type Executor interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req Request) (string, error)

func (f ExecutorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Defaults applied by the adapter-backed executor.
const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4096
	minTemperature     = 0.0
	maxTemperature     = 1.0
)

// adapterExecutor maps executor requests onto an LLMAdapter.
type adapterExecutor struct {
	llm   adapter.LLMAdapter
	model string
}

// NewExecutor wraps an LLMAdapter as an Executor. model may be empty to use
// the adapter's default.
func NewExecutor(llm adapter.LLMAdapter, model string) Executor {
	return &adapterExecutor{llm: llm, model: model}
}

func (e *adapterExecutor) Generate(ctx context.Context, req Request) (string, error) {
	temp := clamp(defaultTemperature+req.TemperatureOffset, minTemperature, maxTemperature)
	maxTokens := defaultMaxTokens + req.TokenLimitOffset
	if maxTokens < 256 {
		maxTokens = 256
	}

	out, err := e.llm.Complete(ctx, adapter.CompletionRequest{
		SystemPrompt: req.SystemPrompt,
		Context:      req.Context,
		Prompt:       req.Prompt,
		Model:        e.model,
		MaxTokens:    maxTokens,
		Temperature:  temp,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
