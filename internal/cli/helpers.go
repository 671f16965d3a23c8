package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/weaverhq/weaver/internal/adapter"
	"github.com/weaverhq/weaver/internal/config"
	"github.com/weaverhq/weaver/internal/embed"
	"github.com/weaverhq/weaver/internal/engine"
	"github.com/weaverhq/weaver/internal/generate"
	"github.com/weaverhq/weaver/internal/retry"
	"github.com/weaverhq/weaver/internal/scanner"
)

// defaultEmbedDimension is used when the configured embedder cannot
// report one (or no remote embedder is reachable at all).
const defaultEmbedDimension = 256

func findRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	// First check if .weaver/ already exists in cwd or any parent.
	dir, _ := filepath.Abs(cwd)
	for {
		if _, err := os.Stat(filepath.Join(dir, ".weaver")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// Fall back to project root detection.
	return scanner.FindProjectRoot(cwd)
}

// ensureInitialized checks that the project has been initialized
// (.weaver/weaver.db exists).
func ensureInitialized(root string) (string, error) {
	dbPath := config.ProjectDBPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("weaver not initialized. Run `weaver init` first")
	}
	return dbPath, nil
}

// buildEmbedder constructs the remote embedder from config. A provider
// that cannot embed, or fails to construct, yields nil: the resilient
// wrapper falls back to local hashing vectors.
func buildEmbedder(gcfg config.GlobalConfig) (embed.Embedder, int) {
	llm, err := adapter.New(gcfg.DefaultEmbedder, gcfg.Ollama.EmbedModel, keyFor(gcfg, gcfg.DefaultEmbedder), gcfg.Ollama.Host)
	if err != nil {
		return nil, defaultEmbedDimension
	}
	dim := llm.Info().EmbeddingDimension
	if dim <= 0 {
		return nil, defaultEmbedDimension
	}
	return llm, dim
}

// buildExecutor constructs the generation executor for the configured
// model provider. Returns nil when no provider can be built; commands
// that only assemble context still work without one.
func buildExecutor(gcfg config.GlobalConfig, model string) generate.Executor {
	provider := gcfg.DefaultModel
	if model != "" {
		provider = model
	}
	llm, err := adapter.New(provider, gcfg.Ollama.EmbedModel, keyFor(gcfg, provider), gcfg.Ollama.Host)
	if err != nil {
		return nil
	}
	return generate.NewExecutor(llm, "")
}

func keyFor(gcfg config.GlobalConfig, provider string) string {
	switch provider {
	case adapter.ProviderClaude:
		return gcfg.Keys.Anthropic
	case adapter.ProviderOpenAI:
		return gcfg.Keys.OpenAI
	}
	return ""
}

// buildEngine wires the engine from effective config. executor may be nil.
func buildEngine(gcfg config.GlobalConfig, executor generate.Executor) (*engine.Engine, int) {
	remote, dim := buildEmbedder(gcfg)
	resilient := embed.NewResilient(remote, dim)

	cfg := engine.DefaultConfig()
	if gcfg.Context.CodeBudget > 0 {
		cfg.CodeBudget = gcfg.Context.CodeBudget
	}
	if gcfg.Context.HistoryBudget > 0 {
		cfg.HistoryBudget = gcfg.Context.HistoryBudget
	}
	if gcfg.Context.MaxIndexes > 0 {
		cfg.MaxIndexes = gcfg.Context.MaxIndexes
	}

	var opts []engine.Option
	if executor != nil {
		opts = append(opts, engine.WithRetrier(buildRetrier(gcfg, executor)))
	}
	return engine.New(cfg, resilient, executor, opts...), dim
}

// buildRetrier constructs the retry engine from the [retry] config section.
func buildRetrier(gcfg config.GlobalConfig, executor generate.Executor) *retry.Engine {
	breaker := retry.NewCircuitBreaker(
		retry.WithFailureThreshold(gcfg.Retry.BreakerThreshold),
		retry.WithCooldown(time.Duration(gcfg.Retry.CooldownSeconds)*time.Second),
	)
	return retry.NewEngine(executor, breaker, retry.WithMaxAttempts(gcfg.Retry.MaxAttempts))
}

// loadProjectFiles scans the tree, honoring project config exclusions.
func loadProjectFiles(root string, gcfg config.GlobalConfig, pcfg config.ProjectConfig) scanner.LoadResult {
	opts := scanner.LoadOptions{
		Root:          root,
		IncludeTests:  pcfg.IncludeTests,
		Exclude:       pcfg.Exclude,
		AlwaysInclude: pcfg.AlwaysInclude,
	}
	if gcfg.Context.MaxFileKB > 0 {
		opts.MaxFileBytes = int64(gcfg.Context.MaxFileKB) * 1024
	}
	return scanner.Load(opts)
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
