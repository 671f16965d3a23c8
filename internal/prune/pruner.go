// Package prune fits conversation history into a token budget by
// summarizing or truncating older turns.
package prune

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaverhq/weaver/internal/conversation"
	"github.com/weaverhq/weaver/internal/token"
)

// Summarizer condenses a slice of turns into one text block. It may fail;
// failures degrade to truncation and are never surfaced.
type Summarizer interface {
	Summarize(ctx context.Context, turns []conversation.Turn) (string, error)
}

// SummarizerFunc adapts a function to the Summarizer interface.
type SummarizerFunc func(ctx context.Context, turns []conversation.Turn) (string, error)

func (f SummarizerFunc) Summarize(ctx context.Context, turns []conversation.Turn) (string, error) {
	return f(ctx, turns)
}

// Config controls pruning behaviour.
type Config struct {
	// MaxTokens is the target budget for the whole conversation.
	MaxTokens int
	// ReserveTokens is held back from the budget for the model's reply.
	ReserveTokens int
	// PreserveRecentCount turns at the tail are always kept whole.
	PreserveRecentCount int
	// PreserveSystem keeps system turns out of the reducible set.
	PreserveSystem bool
	// SummarizationThreshold is the fraction of MaxTokens above which
	// pruning triggers (e.g. 0.8).
	SummarizationThreshold float64
}

// DefaultConfig returns the configuration used when a field is zero.
func DefaultConfig() Config {
	return Config{
		MaxTokens:              8000,
		ReserveTokens:          1000,
		PreserveRecentCount:    4,
		PreserveSystem:         true,
		SummarizationThreshold: 0.8,
	}
}

// Result reports what pruning did.
type Result struct {
	Turns            []conversation.Turn
	PrunedCount      int
	SummarizedCount  int
	OriginalTokens   int
	FinalTokens      int
	CompressionRatio float64
}

// Pruner reduces conversations under a token budget. Construct with NewPruner.
type Pruner struct {
	estimator *token.Estimator
}

// NewPruner creates a Pruner backed by the given estimator.
func NewPruner(est *token.Estimator) *Pruner {
	return &Pruner{estimator: est}
}

const (
	// Kept code fences longer than this many lines are elided.
	fenceCompressLines = 20
	fenceHeadLines     = 5
	fenceTailLines     = 4

	// Rough character width used when converting a token budget into a
	// character budget for the final truncated turn.
	charsPerToken = 4
)

// Prune fits turns into the configured budget. It never returns an error:
// summarizer failures fall back to truncation, and an impossible budget
// simply drops all reducible turns.
func (p *Pruner) Prune(ctx context.Context, turns []conversation.Turn, cfg Config, summarizer Summarizer) Result {
	if cfg.MaxTokens <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.SummarizationThreshold <= 0 {
		cfg.SummarizationThreshold = DefaultConfig().SummarizationThreshold
	}

	original := p.totalTokens(turns)
	trigger := float64(cfg.MaxTokens) * cfg.SummarizationThreshold
	if float64(original) <= trigger {
		return Result{
			Turns:            turns,
			OriginalTokens:   original,
			FinalTokens:      original,
			CompressionRatio: 1.0,
		}
	}

	system, recent, older := partition(turns, cfg)

	kept := make([]conversation.Turn, 0, len(system)+len(recent)+1)
	kept = append(kept, system...)

	budget := cfg.MaxTokens - cfg.ReserveTokens - p.totalTokens(system) - p.totalTokens(recent)

	var pruned, summarized int
	switch {
	case budget <= 0 || len(older) == 0:
		pruned = len(older)

	case summarizer != nil && len(older) >= 3:
		summary, err := safeSummarize(ctx, summarizer, older)
		if err == nil && summary != "" {
			synthetic := conversation.Turn{
				Role:    conversation.RoleAssistant,
				Content: "[Previous conversation summary]\n" + summary,
			}
			if p.estimator.Estimate(synthetic.Content) <= budget {
				kept = append(kept, synthetic)
				summarized = len(older)
				break
			}
		}
		// Summary unavailable or too large.
		var truncKept []conversation.Turn
		truncKept, pruned = p.truncate(older, budget)
		kept = append(kept, truncKept...)

	default:
		var truncKept []conversation.Turn
		truncKept, pruned = p.truncate(older, budget)
		kept = append(kept, truncKept...)
	}

	kept = append(kept, recent...)

	for i := range kept {
		kept[i].Content = CompressFences(kept[i].Content)
		kept[i].Tokens = 0
	}

	final := p.totalTokens(kept)
	ratio := 1.0
	if original > 0 {
		ratio = float64(final) / float64(original)
	}

	return Result{
		Turns:            kept,
		PrunedCount:      pruned,
		SummarizedCount:  summarized,
		OriginalTokens:   original,
		FinalTokens:      final,
		CompressionRatio: ratio,
	}
}

// partition splits turns into system (when preserved), the last K turns,
// and the older reducible middle.
func partition(turns []conversation.Turn, cfg Config) (system, recent, older []conversation.Turn) {
	var rest []conversation.Turn
	for _, t := range turns {
		if cfg.PreserveSystem && t.IsSystem() {
			system = append(system, t)
			continue
		}
		rest = append(rest, t)
	}

	k := cfg.PreserveRecentCount
	if k > len(rest) {
		k = len(rest)
	}
	recent = rest[len(rest)-k:]
	older = rest[:len(rest)-k]
	return system, recent, older
}

// truncate walks older turns newest-first, keeping whole turns while they
// fit, then one partially kept turn trimmed to the remaining character
// budget. Returns kept turns in chronological order and the dropped count.
func (p *Pruner) truncate(older []conversation.Turn, budget int) ([]conversation.Turn, int) {
	var kept []conversation.Turn
	remaining := budget

	for i := len(older) - 1; i >= 0; i-- {
		t := older[i]
		cost := p.estimator.Estimate(t.Content)
		if cost <= remaining {
			kept = append([]conversation.Turn{t}, kept...)
			remaining -= cost
			continue
		}

		charBudget := remaining * charsPerToken
		if charBudget > len(" [...truncated]") {
			cut := charBudget - len(" [...truncated]")
			if cut > len(t.Content) {
				cut = len(t.Content)
			}
			t.Content = t.Content[:cut] + " [...truncated]"
			t.Tokens = 0
			kept = append([]conversation.Turn{t}, kept...)
			return kept, len(older) - len(kept)
		}
		return kept, len(older) - len(kept)
	}
	return kept, 0
}

func (p *Pruner) totalTokens(turns []conversation.Turn) int {
	total := 0
	for _, t := range turns {
		if t.Tokens > 0 {
			total += t.Tokens
			continue
		}
		total += p.estimator.Estimate(t.Content)
	}
	return total
}

// safeSummarize invokes the summarizer, converting panics into errors so a
// misbehaving callback can never abort pruning.
func safeSummarize(ctx context.Context, s Summarizer, turns []conversation.Turn) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prune: summarizer panic: %v", r)
		}
	}()
	return s.Summarize(ctx, turns)
}

// CompressFences elides the body of any code fence longer than
// fenceCompressLines lines, keeping the head and tail with an omission
// marker in between. Text outside fences is untouched.
func CompressFences(content string) string {
	if !strings.Contains(content, "```") {
		return content
	}

	lines := strings.Split(content, "\n")
	var out []string
	var fence []string
	inFence := false

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if !inFence {
				inFence = true
				fence = fence[:0]
				out = append(out, line)
				continue
			}
			inFence = false
			out = append(out, compressFenceBody(fence)...)
			out = append(out, line)
			continue
		}
		if inFence {
			fence = append(fence, line)
			continue
		}
		out = append(out, line)
	}

	if inFence {
		// Unterminated fence: keep body as-is.
		out = append(out, fence...)
	}
	return strings.Join(out, "\n")
}

func compressFenceBody(body []string) []string {
	if len(body) <= fenceCompressLines {
		return body
	}
	omitted := len(body) - fenceHeadLines - fenceTailLines
	out := make([]string, 0, fenceHeadLines+fenceTailLines+1)
	out = append(out, body[:fenceHeadLines]...)
	out = append(out, fmt.Sprintf("// ... (%d lines omitted)", omitted))
	out = append(out, body[len(body)-fenceTailLines:]...)
	return out
}
